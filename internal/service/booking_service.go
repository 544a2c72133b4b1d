package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"smarteventscape/config"
	"smarteventscape/internal/models"
	"smarteventscape/internal/redisclient"
	"smarteventscape/internal/store"
	"smarteventscape/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrInsufficientSeats = errors.New("not enough seats available")
	ErrPaymentDeclined   = errors.New("payment declined")
)

// BookingRepository is the slice of the store the submission path needs
type BookingRepository interface {
	GetBookingByIdempotencyKey(ctx context.Context, key string) (*models.Booking, error)
	CreateBooking(ctx context.Context, booking *models.Booking) error
	CreatePayment(ctx context.Context, payment *models.Payment) error
	ReserveSeatsTx(ctx context.Context, eventID int64, quantity int) error
	ReleaseSeats(ctx context.Context, eventID int64, quantity int) error
}

// SeatCache reserves seats atomically on the fast path
type SeatCache interface {
	ReserveSeats(ctx context.Context, eventID int64, quantity int) (bool, error)
	ReleaseSeats(ctx context.Context, eventID int64, quantity int) error
}

// BookingPublisher announces persisted bookings
type BookingPublisher interface {
	PublishBookingCreated(ctx context.Context, event *models.BookingCreatedEvent) error
}

// Charger simulates the payment provider
type Charger interface {
	Charge(ctx context.Context, amount int64, method string) (string, error)
}

// BookingService performs the one external write of the checkout flow:
// at most one booking per checkout intent, keyed by the idempotency key
// minted at session start.
type BookingService struct {
	repo      BookingRepository
	seats     SeatCache
	charger   Charger
	publisher BookingPublisher
	cfg       config.BusinessConfig
	logger    *zap.Logger
}

// NewBookingService creates a new booking service
func NewBookingService(
	repo BookingRepository,
	seats SeatCache,
	charger Charger,
	publisher BookingPublisher,
	cfg config.BusinessConfig,
) *BookingService {
	return &BookingService{
		repo:      repo,
		seats:     seats,
		charger:   charger,
		publisher: publisher,
		cfg:       cfg,
		logger:    util.GetLogger(),
	}
}

// Submit creates the booking for a checkout session. Replays with the
// same idempotency key return the existing booking with created=false.
func (s *BookingService) Submit(ctx context.Context, session *models.CheckoutSession, quote PriceQuote) (*models.Booking, bool, error) {
	ctx, span := util.StartSpan(ctx, "BookingService.Submit")
	defer span.End()

	existing, err := s.repo.GetBookingByIdempotencyKey(ctx, session.IdempotencyKey)
	if err != nil {
		return nil, false, fmt.Errorf("failed to check idempotency: %w", err)
	}
	if existing != nil {
		util.BookingsDuplicateTotal.Inc()
		s.logger.Info("Duplicate submission answered from existing booking",
			zap.String("idempotency_key", session.IdempotencyKey),
			zap.Int64("booking_id", existing.ID))
		return existing, false, nil
	}

	if session.TicketCount < s.cfg.MinTickets || session.TicketCount > s.cfg.MaxTickets {
		util.BookingsFailedTotal.WithLabelValues("invalid_quantity").Inc()
		return nil, false, ErrInvalidTicketCount
	}

	seatsSyncedToDB, err := s.reserveSeats(ctx, session.EventID, session.TicketCount)
	if err != nil {
		return nil, false, err
	}

	total := quote.Total(session.TicketCount)

	txID, err := s.charger.Charge(ctx, total, session.PaymentMethod)
	if err != nil {
		s.releaseSeats(ctx, session.EventID, session.TicketCount, seatsSyncedToDB)
		util.BookingsFailedTotal.WithLabelValues("payment").Inc()
		return nil, false, fmt.Errorf("%w: %v", ErrPaymentDeclined, err)
	}

	booking := &models.Booking{
		EventID:        session.EventID,
		UserID:         session.UserID,
		Quantity:       session.TicketCount,
		Status:         models.BookingStatusConfirmed,
		Reference:      NewBookingReference(),
		IdempotencyKey: session.IdempotencyKey,
		TotalAmount:    total,
	}

	if err := s.repo.CreateBooking(ctx, booking); err != nil {
		// A concurrent submit with the same key may have won the race on
		// the unique idempotency column; answer from its booking.
		if winner, lookupErr := s.repo.GetBookingByIdempotencyKey(ctx, session.IdempotencyKey); lookupErr == nil && winner != nil {
			s.releaseSeats(ctx, session.EventID, session.TicketCount, seatsSyncedToDB)
			util.BookingsDuplicateTotal.Inc()
			return winner, false, nil
		}
		s.releaseSeats(ctx, session.EventID, session.TicketCount, seatsSyncedToDB)
		util.BookingsFailedTotal.WithLabelValues("db_error").Inc()
		return nil, false, fmt.Errorf("failed to create booking: %w", err)
	}

	util.BookingsCreatedTotal.Inc()
	s.logger.Info("Booking created",
		zap.Int64("booking_id", booking.ID),
		zap.String("reference", booking.Reference),
		zap.Int("quantity", booking.Quantity))

	payment := &models.Payment{
		BookingID:    booking.ID,
		EventID:      booking.EventID,
		UserID:       booking.UserID,
		Amount:       total,
		Status:       models.PaymentStatusSuccess,
		ProviderTxID: txID,
	}
	if err := s.repo.CreatePayment(ctx, payment); err != nil {
		// The booking is persisted; a missing payment row is bookkeeping.
		s.logger.Error("Failed to record payment",
			zap.Int64("booking_id", booking.ID),
			zap.Error(err))
	}

	if s.publisher != nil {
		event := &models.BookingCreatedEvent{
			BaseEvent: models.BaseEvent{
				EventID:   uuid.New().String(),
				EventType: models.EventTypeBookingCreated,
				Timestamp: time.Now(),
			},
			BookingID:       booking.ID,
			EventRefID:      booking.EventID,
			UserID:          booking.UserID,
			Quantity:        booking.Quantity,
			Reference:       booking.Reference,
			TotalAmount:     total,
			SeatsSyncedToDB: seatsSyncedToDB,
		}
		if err := s.publisher.PublishBookingCreated(ctx, event); err != nil {
			s.logger.Error("Failed to publish BookingCreated event", zap.Error(err))
		}
	}

	return booking, true, nil
}

// reserveSeats takes the Redis fast path and falls back to the locked
// database decrement when the counter is unavailable. The returned flag
// is true when the database count was already decremented here.
func (s *BookingService) reserveSeats(ctx context.Context, eventID int64, quantity int) (bool, error) {
	start := time.Now()
	defer func() {
		util.SeatReserveLatency.Observe(time.Since(start).Seconds())
	}()

	reserved, err := s.seats.ReserveSeats(ctx, eventID, quantity)
	if err == nil {
		if !reserved {
			util.SeatReservationsFailed.WithLabelValues("insufficient_seats").Inc()
			return false, ErrInsufficientSeats
		}
		return false, nil
	}

	if !errors.Is(err, redisclient.ErrSeatsUnknown) {
		s.logger.Warn("Redis seat reservation failed, falling back to DB",
			zap.Int64("event_id", eventID),
			zap.Error(err))
	}

	if err := s.repo.ReserveSeatsTx(ctx, eventID, quantity); err != nil {
		if errors.Is(err, store.ErrNoSeats) {
			util.SeatReservationsFailed.WithLabelValues("insufficient_seats").Inc()
			return false, ErrInsufficientSeats
		}
		util.SeatReservationsFailed.WithLabelValues("error").Inc()
		return false, fmt.Errorf("failed to reserve seats: %w", err)
	}
	return true, nil
}

// releaseSeats compensates a reservation after a downstream failure
func (s *BookingService) releaseSeats(ctx context.Context, eventID int64, quantity int, syncedToDB bool) {
	if syncedToDB {
		if err := s.repo.ReleaseSeats(ctx, eventID, quantity); err != nil {
			s.logger.Error("Failed to release seats in DB",
				zap.Int64("event_id", eventID),
				zap.Error(err))
		}
		return
	}
	if err := s.seats.ReleaseSeats(ctx, eventID, quantity); err != nil {
		s.logger.Error("Failed to release seats in Redis",
			zap.Int64("event_id", eventID),
			zap.Error(err))
	}
}

const referenceAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// NewBookingReference generates a short reference of the form
// BK-xxxxxxxx over lowercase base36
func NewBookingReference() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand failing is effectively unreachable; fall back to
		// a uuid-derived suffix rather than returning an empty code.
		return "BK-" + uuid.New().String()[:8]
	}
	for i := range b {
		b[i] = referenceAlphabet[int(b[i])%len(referenceAlphabet)]
	}
	return "BK-" + string(b)
}
