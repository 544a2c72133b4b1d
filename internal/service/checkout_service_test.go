package service

import (
	"testing"

	"smarteventscape/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestAdvanceStopsAtPayment(t *testing.T) {
	s := &models.CheckoutSession{Step: models.StepTicketSelection}

	advance(s)
	assert.Equal(t, models.StepAttendeeInfo, s.Step)

	advance(s)
	assert.Equal(t, models.StepPayment, s.Step)

	// Continue at the last step stays put; confirmation only comes
	// from a successful submission.
	advance(s)
	assert.Equal(t, models.StepPayment, s.Step)
}

func TestRetreatStopsAtFirstStep(t *testing.T) {
	s := &models.CheckoutSession{Step: models.StepPayment}

	retreat(s)
	assert.Equal(t, models.StepAttendeeInfo, s.Step)

	retreat(s)
	assert.Equal(t, models.StepTicketSelection, s.Step)

	retreat(s)
	assert.Equal(t, models.StepTicketSelection, s.Step)
}

func TestRetreatPreservesEnteredData(t *testing.T) {
	s := &models.CheckoutSession{
		Step:        models.StepPayment,
		TicketCount: 4,
		Attendee: models.AttendeeInfo{
			FirstName: "Ada",
			LastName:  "Lovelace",
			Email:     "ada@example.com",
		},
		Card: models.CardDetails{Name: "Ada Lovelace", Number: "4242424242424242"},
	}

	retreat(s)
	retreat(s)

	assert.Equal(t, 4, s.TicketCount)
	assert.Equal(t, "Ada", s.Attendee.FirstName)
	assert.Equal(t, "4242424242424242", s.Card.Number)
}

func TestValidPaymentMethod(t *testing.T) {
	assert.True(t, validPaymentMethod(models.PaymentMethodCard))
	assert.True(t, validPaymentMethod(models.PaymentMethodPaypal))
	assert.True(t, validPaymentMethod(models.PaymentMethodBank))
	assert.False(t, validPaymentMethod("crypto"))
	assert.False(t, validPaymentMethod(""))
}

func paymentStepSession() *models.CheckoutSession {
	return &models.CheckoutSession{
		Step:          models.StepPayment,
		TicketCount:   2,
		PaymentMethod: models.PaymentMethodCard,
		Card: models.CardDetails{
			Name:   "Ada Lovelace",
			Number: "4242424242424242",
			Expiry: "12/27",
			CVC:    "123",
		},
	}
}

func TestValidateForSubmit(t *testing.T) {
	s := paymentStepSession()
	assert.NoError(t, validateForSubmit(s, 1, 10))
}

func TestValidateForSubmitWrongStep(t *testing.T) {
	s := paymentStepSession()
	s.Step = models.StepAttendeeInfo

	err := validateForSubmit(s, 1, 10)
	assert.ErrorIs(t, err, ErrNotAtPaymentStep)
}

func TestValidateForSubmitTicketBounds(t *testing.T) {
	s := paymentStepSession()

	s.TicketCount = 0
	assert.ErrorIs(t, validateForSubmit(s, 1, 10), ErrInvalidTicketCount)

	s.TicketCount = 11
	assert.ErrorIs(t, validateForSubmit(s, 1, 10), ErrInvalidTicketCount)

	s.TicketCount = 10
	assert.NoError(t, validateForSubmit(s, 1, 10))
}

func TestValidateForSubmitCardFields(t *testing.T) {
	for _, clear := range []func(*models.CheckoutSession){
		func(s *models.CheckoutSession) { s.Card.Name = "" },
		func(s *models.CheckoutSession) { s.Card.Number = "" },
		func(s *models.CheckoutSession) { s.Card.Expiry = "" },
		func(s *models.CheckoutSession) { s.Card.CVC = "" },
	} {
		s := paymentStepSession()
		clear(s)
		assert.ErrorIs(t, validateForSubmit(s, 1, 10), ErrCardDetailsRequired)
	}
}

func TestValidateForSubmitNonCardSkipsCardGate(t *testing.T) {
	s := paymentStepSession()
	s.PaymentMethod = models.PaymentMethodPaypal
	s.Card = models.CardDetails{}

	assert.NoError(t, validateForSubmit(s, 1, 10))
}

func TestValidateForSubmitUnknownMethod(t *testing.T) {
	s := paymentStepSession()
	s.PaymentMethod = "cheque"

	assert.ErrorIs(t, validateForSubmit(s, 1, 10), ErrInvalidPaymentMethod)
}

func TestValidationReason(t *testing.T) {
	assert.Equal(t, "card_details", validationReason(ErrCardDetailsRequired))
	assert.Equal(t, "payment_method", validationReason(ErrInvalidPaymentMethod))
	assert.Equal(t, "ticket_count", validationReason(ErrInvalidTicketCount))
	assert.Equal(t, "wrong_step", validationReason(ErrNotAtPaymentStep))
	assert.Equal(t, "other", validationReason(assert.AnError))
}
