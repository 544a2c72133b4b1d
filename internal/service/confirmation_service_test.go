package service

import (
	"strings"
	"testing"

	"smarteventscape/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderConfirmation(t *testing.T) {
	cs := NewConfirmationService()

	booking := &models.Booking{
		Reference:   "BK-a1b2c3d4",
		Quantity:    2,
		TotalAmount: 15375,
	}
	event := &models.EventDisplay{
		Title: "Go Conference",
		Date:  "Nov 15, 2026",
	}

	c := cs.Render(booking, event)

	assert.Equal(t, "BK-a1b2c3d4", c.Reference)
	assert.Equal(t, "Go Conference", c.EventTitle)
	assert.Equal(t, "Nov 15, 2026", c.EventDate)
	assert.Equal(t, 2, c.Tickets)
	assert.Equal(t, int64(15375), c.TotalPaid)
	assert.True(t, strings.HasPrefix(c.QRDataURI, "data:image/png;base64,"))
	assert.Empty(t, c.QRFallback)
}

func TestRenderWithoutEvent(t *testing.T) {
	cs := NewConfirmationService()

	booking := &models.Booking{
		Reference:   "BK-a1b2c3d4",
		Quantity:    1,
		TotalAmount: 7875,
	}

	c := cs.Render(booking, nil)

	// No event fields are invented for a missing event row.
	assert.Empty(t, c.EventTitle)
	assert.Empty(t, c.EventDate)
	assert.False(t, c.Placeholder)
	assert.Equal(t, "BK-a1b2c3d4", c.Reference)
	assert.True(t, strings.HasPrefix(c.QRDataURI, "data:image/png;base64,"))
}

func TestRenderKeepsPlaceholderMarker(t *testing.T) {
	cs := NewConfirmationService()

	booking := &models.Booking{Reference: "BK-a1b2c3d4", Quantity: 1}
	c := cs.Render(booking, PlaceholderEvent(9))

	assert.True(t, c.Placeholder)
	assert.Equal(t, "Tech Innovation Summit", c.EventTitle)
}

func TestRenderFallbackOnEmptyReference(t *testing.T) {
	cs := NewConfirmationService()

	c := cs.Render(&models.Booking{}, &models.EventDisplay{Title: "Go Conference"})

	assert.Empty(t, c.QRDataURI)
	assert.Contains(t, c.QRFallback, "Your booking reference is")
}

func TestQRDataURIRoundTrip(t *testing.T) {
	cs := NewConfirmationService()

	uri, err := cs.QRDataURI("BK-a1b2c3d4")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(uri, "data:image/png;base64,"))
}

func TestPNGRejectsEmptyText(t *testing.T) {
	cs := NewConfirmationService()

	_, err := cs.PNG("")
	assert.Error(t, err)
}

func TestPNGEncodesBytes(t *testing.T) {
	cs := NewConfirmationService()

	png, err := cs.PNG("BK-a1b2c3d4")
	require.NoError(t, err)
	// PNG magic bytes.
	require.True(t, len(png) > 8)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, png[:4])
}
