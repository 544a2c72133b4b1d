package service

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"smarteventscape/config"
	"smarteventscape/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBookingRepo struct {
	byKey      map[string]*models.Booking
	bookings   []*models.Booking
	payments   []*models.Payment
	dbReserved int
	dbReleased int
	createErr  error
	reserveErr error
	nextID     int64
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{byKey: make(map[string]*models.Booking), nextID: 1}
}

func (r *fakeBookingRepo) GetBookingByIdempotencyKey(_ context.Context, key string) (*models.Booking, error) {
	return r.byKey[key], nil
}

func (r *fakeBookingRepo) CreateBooking(_ context.Context, booking *models.Booking) error {
	if r.createErr != nil {
		return r.createErr
	}
	if _, exists := r.byKey[booking.IdempotencyKey]; exists {
		return errors.New("duplicate key value violates unique constraint")
	}
	booking.ID = r.nextID
	r.nextID++
	r.byKey[booking.IdempotencyKey] = booking
	r.bookings = append(r.bookings, booking)
	return nil
}

func (r *fakeBookingRepo) CreatePayment(_ context.Context, payment *models.Payment) error {
	r.payments = append(r.payments, payment)
	return nil
}

func (r *fakeBookingRepo) ReserveSeatsTx(_ context.Context, _ int64, quantity int) error {
	if r.reserveErr != nil {
		return r.reserveErr
	}
	r.dbReserved += quantity
	return nil
}

func (r *fakeBookingRepo) ReleaseSeats(_ context.Context, _ int64, quantity int) error {
	r.dbReleased += quantity
	return nil
}

type fakeSeatCache struct {
	available int
	released  int
	err       error
}

func (c *fakeSeatCache) ReserveSeats(_ context.Context, _ int64, quantity int) (bool, error) {
	if c.err != nil {
		return false, c.err
	}
	if quantity > c.available {
		return false, nil
	}
	c.available -= quantity
	return true, nil
}

func (c *fakeSeatCache) ReleaseSeats(_ context.Context, _ int64, quantity int) error {
	c.released += quantity
	c.available += quantity
	return nil
}

type fakeCharger struct {
	err     error
	charged []int64
}

func (c *fakeCharger) Charge(_ context.Context, amount int64, _ string) (string, error) {
	if c.err != nil {
		return "", c.err
	}
	c.charged = append(c.charged, amount)
	return "TXN-test", nil
}

type fakePublisher struct {
	events []*models.BookingCreatedEvent
}

func (p *fakePublisher) PublishBookingCreated(_ context.Context, event *models.BookingCreatedEvent) error {
	p.events = append(p.events, event)
	return nil
}

func testBusinessConfig() config.BusinessConfig {
	return config.BusinessConfig{
		ConversionRate:    75,
		ServiceFeePct:     5,
		MinTickets:        1,
		MaxTickets:        10,
		SessionTTLMinutes: 30,
	}
}

func testSession(count int) *models.CheckoutSession {
	return &models.CheckoutSession{
		ID:             "sess-1",
		EventID:        42,
		Step:           models.StepPayment,
		TicketCount:    count,
		PaymentMethod:  models.PaymentMethodCard,
		IdempotencyKey: "key-1",
	}
}

func TestSubmitCreatesBooking(t *testing.T) {
	repo := newFakeBookingRepo()
	seats := &fakeSeatCache{available: 10}
	charger := &fakeCharger{}
	publisher := &fakePublisher{}

	bs := NewBookingService(repo, seats, charger, publisher, testBusinessConfig())

	quote := NewPriceQuote(100, 75, 5)
	booking, created, err := bs.Submit(context.Background(), testSession(2), quote)
	require.NoError(t, err)

	assert.True(t, created)
	assert.Equal(t, models.BookingStatusConfirmed, booking.Status)
	assert.Equal(t, int64(15375), booking.TotalAmount)
	assert.Regexp(t, regexp.MustCompile(`^BK-[a-z0-9]{8}$`), booking.Reference)
	assert.Equal(t, 8, seats.available)

	require.Len(t, charger.charged, 1)
	assert.Equal(t, int64(15375), charger.charged[0])

	require.Len(t, repo.payments, 1)
	assert.Equal(t, models.PaymentStatusSuccess, repo.payments[0].Status)
	assert.Equal(t, booking.ID, repo.payments[0].BookingID)

	require.Len(t, publisher.events, 1)
	assert.Equal(t, booking.Reference, publisher.events[0].Reference)
	assert.False(t, publisher.events[0].SeatsSyncedToDB)
}

func TestSubmitIdempotentReplay(t *testing.T) {
	repo := newFakeBookingRepo()
	seats := &fakeSeatCache{available: 10}
	charger := &fakeCharger{}
	publisher := &fakePublisher{}

	bs := NewBookingService(repo, seats, charger, publisher, testBusinessConfig())
	quote := NewPriceQuote(100, 75, 5)

	first, created, err := bs.Submit(context.Background(), testSession(2), quote)
	require.NoError(t, err)
	require.True(t, created)

	second, created, err := bs.Submit(context.Background(), testSession(2), quote)
	require.NoError(t, err)

	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.Reference, second.Reference)

	// No second charge, no second seat hold, no second event.
	assert.Len(t, charger.charged, 1)
	assert.Equal(t, 8, seats.available)
	assert.Len(t, publisher.events, 1)
}

func TestSubmitInsufficientSeats(t *testing.T) {
	repo := newFakeBookingRepo()
	seats := &fakeSeatCache{available: 1}
	charger := &fakeCharger{}

	bs := NewBookingService(repo, seats, charger, &fakePublisher{}, testBusinessConfig())

	_, _, err := bs.Submit(context.Background(), testSession(2), NewPriceQuote(100, 75, 5))
	assert.ErrorIs(t, err, ErrInsufficientSeats)
	assert.Empty(t, charger.charged)
	assert.Empty(t, repo.bookings)
}

func TestSubmitPaymentDeclinedReleasesSeats(t *testing.T) {
	repo := newFakeBookingRepo()
	seats := &fakeSeatCache{available: 10}
	charger := &fakeCharger{err: errors.New("card declined")}

	bs := NewBookingService(repo, seats, charger, &fakePublisher{}, testBusinessConfig())

	_, _, err := bs.Submit(context.Background(), testSession(3), NewPriceQuote(100, 75, 5))
	assert.ErrorIs(t, err, ErrPaymentDeclined)
	assert.Equal(t, 3, seats.released)
	assert.Equal(t, 10, seats.available)
	assert.Empty(t, repo.bookings)
}

func TestSubmitQuantityOutOfRange(t *testing.T) {
	repo := newFakeBookingRepo()
	seats := &fakeSeatCache{available: 100}

	bs := NewBookingService(repo, seats, &fakeCharger{}, &fakePublisher{}, testBusinessConfig())
	quote := NewPriceQuote(100, 75, 5)

	_, _, err := bs.Submit(context.Background(), testSession(0), quote)
	assert.ErrorIs(t, err, ErrInvalidTicketCount)

	_, _, err = bs.Submit(context.Background(), testSession(11), quote)
	assert.ErrorIs(t, err, ErrInvalidTicketCount)

	assert.Equal(t, 100, seats.available)
}

func TestSubmitInsertRaceAnswersFromWinner(t *testing.T) {
	winner := &models.Booking{ID: 99, Reference: "BK-winner00", IdempotencyKey: "key-1"}
	raceRepo := &racingRepo{fakeBookingRepo: newFakeBookingRepo(), winner: winner}

	seats := &fakeSeatCache{available: 10}
	bs := NewBookingService(raceRepo, seats, &fakeCharger{}, &fakePublisher{}, testBusinessConfig())

	booking, created, err := bs.Submit(context.Background(), testSession(2), NewPriceQuote(100, 75, 5))
	require.NoError(t, err)

	assert.False(t, created)
	assert.Equal(t, int64(99), booking.ID)
	// The loser's hold is returned.
	assert.Equal(t, 2, seats.released)
}

// racingRepo misses the first idempotency lookup and hits afterwards,
// simulating a concurrent submit that won the unique-column race.
type racingRepo struct {
	*fakeBookingRepo
	winner  *models.Booking
	lookups int
}

func (r *racingRepo) GetBookingByIdempotencyKey(_ context.Context, _ string) (*models.Booking, error) {
	r.lookups++
	if r.lookups == 1 {
		return nil, nil
	}
	return r.winner, nil
}

func (r *racingRepo) CreateBooking(_ context.Context, _ *models.Booking) error {
	return errors.New("duplicate key value violates unique constraint")
}

func TestSubmitDBFallbackMarksSynced(t *testing.T) {
	repo := newFakeBookingRepo()
	seats := &fakeSeatCache{err: errors.New("redis down")}
	publisher := &fakePublisher{}

	bs := NewBookingService(repo, seats, &fakeCharger{}, publisher, testBusinessConfig())

	_, created, err := bs.Submit(context.Background(), testSession(2), NewPriceQuote(100, 75, 5))
	require.NoError(t, err)
	require.True(t, created)

	assert.Equal(t, 2, repo.dbReserved)
	require.Len(t, publisher.events, 1)
	assert.True(t, publisher.events[0].SeatsSyncedToDB)
}

func TestNewBookingReference(t *testing.T) {
	pattern := regexp.MustCompile(`^BK-[a-z0-9]{8}$`)

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		ref := NewBookingReference()
		assert.Regexp(t, pattern, ref)
		seen[ref] = true
	}
	// 100 draws over 36^8 values colliding would point at a broken
	// generator, not bad luck.
	assert.Len(t, seen, 100)
}
