package service

import (
	"context"
	"errors"
	"time"

	"smarteventscape/config"
	"smarteventscape/internal/models"
	"smarteventscape/internal/redisclient"
	"smarteventscape/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrSessionCompleted     = errors.New("checkout session already completed")
	ErrInvalidTicketCount   = errors.New("ticket count out of range")
	ErrInvalidPaymentMethod = errors.New("unknown payment method")
	ErrCardDetailsRequired  = errors.New("card details required")
	ErrNotAtPaymentStep     = errors.New("checkout is not at the payment step")
)

// CheckoutService drives the three-step checkout state machine.
// Sessions live in Redis under a TTL; the idempotency key for the
// eventual booking write is minted once, at session start.
type CheckoutService struct {
	redis    *redisclient.Client
	events   *EventService
	bookings *BookingService
	cfg      config.BusinessConfig
	logger   *zap.Logger
}

// NewCheckoutService creates a new checkout service
func NewCheckoutService(
	redis *redisclient.Client,
	events *EventService,
	bookings *BookingService,
	cfg config.BusinessConfig,
) *CheckoutService {
	return &CheckoutService{
		redis:    redis,
		events:   events,
		bookings: bookings,
		cfg:      cfg,
		logger:   util.GetLogger(),
	}
}

// StartCheckoutResponse is returned when a session is opened
type StartCheckoutResponse struct {
	Session *models.CheckoutSession `json:"session"`
	Event   *models.EventDisplay    `json:"event"`
}

// StartCheckout opens a new checkout session for an event
func (s *CheckoutService) StartCheckout(ctx context.Context, eventID int64, userID *int64) (*StartCheckoutResponse, error) {
	ctx, span := util.StartSpan(ctx, "CheckoutService.StartCheckout")
	defer span.End()

	display, err := s.events.GetDisplayEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	session := &models.CheckoutSession{
		ID:             uuid.New().String(),
		EventID:        eventID,
		UserID:         userID,
		Step:           models.StepTicketSelection,
		TicketCount:    1,
		PaymentMethod:  models.PaymentMethodCard,
		IdempotencyKey: uuid.New().String(),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.saveSession(ctx, session); err != nil {
		return nil, err
	}

	util.CheckoutSessionsStartedTotal.Inc()
	s.logger.Info("Checkout session started",
		zap.String("session_id", session.ID),
		zap.Int64("event_id", eventID))

	return &StartCheckoutResponse{Session: session, Event: display}, nil
}

// GetSession retrieves a checkout session
func (s *CheckoutService) GetSession(ctx context.Context, id string) (*models.CheckoutSession, error) {
	return s.redis.GetCheckoutSession(ctx, id)
}

// UpdateCheckoutRequest carries partial form updates; only the fields
// present are applied, so moving between steps never clears data
type UpdateCheckoutRequest struct {
	TicketCount   *int                 `json:"ticket_count,omitempty"`
	PaymentMethod *string              `json:"payment_method,omitempty"`
	Attendee      *models.AttendeeInfo `json:"attendee,omitempty"`
	Card          *models.CardDetails  `json:"card,omitempty"`
}

// UpdateSession applies form values to a session
func (s *CheckoutService) UpdateSession(ctx context.Context, id string, req *UpdateCheckoutRequest) (*models.CheckoutSession, error) {
	session, err := s.redis.GetCheckoutSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.Completed {
		return nil, ErrSessionCompleted
	}

	if req.TicketCount != nil {
		if *req.TicketCount < s.cfg.MinTickets || *req.TicketCount > s.cfg.MaxTickets {
			return nil, ErrInvalidTicketCount
		}
		session.TicketCount = *req.TicketCount
	}
	if req.PaymentMethod != nil {
		if !validPaymentMethod(*req.PaymentMethod) {
			return nil, ErrInvalidPaymentMethod
		}
		session.PaymentMethod = *req.PaymentMethod
	}
	if req.Attendee != nil {
		session.Attendee = *req.Attendee
	}
	if req.Card != nil {
		session.Card = *req.Card
	}

	if err := s.saveSession(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// Continue advances the session one step forward
func (s *CheckoutService) Continue(ctx context.Context, id string) (*models.CheckoutSession, error) {
	return s.transition(ctx, id, advance)
}

// Back moves the session one step backward, preserving entered data
func (s *CheckoutService) Back(ctx context.Context, id string) (*models.CheckoutSession, error) {
	return s.transition(ctx, id, retreat)
}

func (s *CheckoutService) transition(ctx context.Context, id string, step func(*models.CheckoutSession)) (*models.CheckoutSession, error) {
	session, err := s.redis.GetCheckoutSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.Completed {
		return nil, ErrSessionCompleted
	}

	step(session)

	if err := s.saveSession(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// SubmitResponse is returned from a submission attempt
type SubmitResponse struct {
	Booking      *models.Booking `json:"booking"`
	Created      bool            `json:"created"`
	Confirmation *Confirmation   `json:"confirmation"`
}

// Submit completes the checkout: validates the payment gates, performs
// the idempotent booking write, and marks the session confirmed. A
// failed submission leaves the session at the payment step so the user
// can retry with the same idempotency key.
func (s *CheckoutService) Submit(ctx context.Context, id string, confirmations *ConfirmationService) (*SubmitResponse, error) {
	ctx, span := util.StartSpan(ctx, "CheckoutService.Submit")
	defer span.End()

	session, err := s.redis.GetCheckoutSession(ctx, id)
	if err != nil {
		return nil, err
	}

	if !session.Completed {
		if err := validateForSubmit(session, s.cfg.MinTickets, s.cfg.MaxTickets); err != nil {
			util.CheckoutValidationFailures.WithLabelValues(validationReason(err)).Inc()
			return nil, err
		}
	}

	display, err := s.events.GetDisplayEvent(ctx, session.EventID)
	if err != nil {
		return nil, err
	}
	quote := PriceQuote{UnitPrice: display.Price, ServiceFee: display.ServiceFee}

	booking, created, err := s.bookings.Submit(ctx, session, quote)
	if err != nil {
		return nil, err
	}

	if !session.Completed {
		session.Completed = true
		session.Reference = booking.Reference
		if err := s.saveSession(ctx, session); err != nil {
			s.logger.Error("Failed to mark session completed",
				zap.String("session_id", session.ID),
				zap.Error(err))
		}
		util.CheckoutSessionsCompletedTotal.Inc()
	}

	return &SubmitResponse{
		Booking:      booking,
		Created:      created,
		Confirmation: confirmations.Render(booking, display),
	}, nil
}

func (s *CheckoutService) saveSession(ctx context.Context, session *models.CheckoutSession) error {
	session.UpdatedAt = time.Now()
	ttl := time.Duration(s.cfg.SessionTTLMinutes) * time.Minute
	return s.redis.SaveCheckoutSession(ctx, session, ttl)
}

// advance moves to the next step, stopping at payment. The confirmed
// state is only reachable through a successful submission.
func advance(s *models.CheckoutSession) {
	if s.Step < models.StepPayment {
		s.Step++
	}
}

// retreat moves to the previous step. Entered values stay in place.
func retreat(s *models.CheckoutSession) {
	if s.Step > models.StepTicketSelection {
		s.Step--
	}
}

func validPaymentMethod(method string) bool {
	switch method {
	case models.PaymentMethodCard, models.PaymentMethodPaypal, models.PaymentMethodBank:
		return true
	}
	return false
}

// validateForSubmit enforces the two submission gates: the payment
// method must be known, and card payment requires all four card fields
// present. Presence only; no Luhn or expiry-format checks.
func validateForSubmit(s *models.CheckoutSession, minTickets, maxTickets int) error {
	if s.Step != models.StepPayment {
		return ErrNotAtPaymentStep
	}
	if s.TicketCount < minTickets || s.TicketCount > maxTickets {
		return ErrInvalidTicketCount
	}
	if !validPaymentMethod(s.PaymentMethod) {
		return ErrInvalidPaymentMethod
	}
	if s.PaymentMethod == models.PaymentMethodCard {
		if s.Card.Name == "" || s.Card.Number == "" || s.Card.Expiry == "" || s.Card.CVC == "" {
			return ErrCardDetailsRequired
		}
	}
	return nil
}

func validationReason(err error) string {
	switch {
	case errors.Is(err, ErrCardDetailsRequired):
		return "card_details"
	case errors.Is(err, ErrInvalidPaymentMethod):
		return "payment_method"
	case errors.Is(err, ErrInvalidTicketCount):
		return "ticket_count"
	case errors.Is(err, ErrNotAtPaymentStep):
		return "wrong_step"
	default:
		return "other"
	}
}
