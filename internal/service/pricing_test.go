package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPriceQuote(t *testing.T) {
	q := NewPriceQuote(100, 75, 5)

	assert.Equal(t, int64(7500), q.UnitPrice)
	assert.Equal(t, int64(375), q.ServiceFee)
}

func TestPriceQuoteTotal(t *testing.T) {
	q := NewPriceQuote(100, 75, 5)

	// Fee is charged once, not per ticket.
	assert.Equal(t, int64(7875), q.Total(1))
	assert.Equal(t, int64(15375), q.Total(2))

	for n := 1; n <= 10; n++ {
		expected := int64(n)*7500 + 375
		assert.Equal(t, expected, q.Total(n))
	}
}

func TestPriceQuoteZeroBase(t *testing.T) {
	q := NewPriceQuote(0, 75, 5)

	assert.Equal(t, int64(0), q.UnitPrice)
	assert.Equal(t, int64(0), q.ServiceFee)
	assert.Equal(t, int64(0), q.Total(3))
}
