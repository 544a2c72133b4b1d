package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"smarteventscape/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEventService() *EventService {
	return NewEventService(nil, nil, testBusinessConfig())
}

type fakeEventRepo struct {
	events map[int64]*models.Event
	images map[int64][]models.EventImage
	err    error
}

func (r *fakeEventRepo) GetEventByID(_ context.Context, id int64) (*models.Event, error) {
	if r.err != nil {
		return nil, r.err
	}
	event, ok := r.events[id]
	if !ok {
		return nil, errors.New("event not found")
	}
	return event, nil
}

func (r *fakeEventRepo) GetEventImages(_ context.Context, id int64) ([]models.EventImage, error) {
	return r.images[id], nil
}

func (r *fakeEventRepo) ListEvents(_ context.Context, _, _ string) ([]models.Event, error) {
	var events []models.Event
	for _, e := range r.events {
		events = append(events, *e)
	}
	return events, nil
}

func (r *fakeEventRepo) CreateEvent(_ context.Context, _ *models.Event, _ []models.EventImage) error {
	return nil
}

func (r *fakeEventRepo) UpdateEvent(_ context.Context, _ *models.Event) error { return nil }

func (r *fakeEventRepo) DeleteEvent(_ context.Context, _ int64) error { return nil }

func TestGetDisplayEventNotFound(t *testing.T) {
	repo := &fakeEventRepo{events: map[int64]*models.Event{}}
	es := NewEventService(repo, nil, testBusinessConfig())

	_, err := es.GetDisplayEvent(context.Background(), 404)
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestGetDisplayEventDemoFallback(t *testing.T) {
	cfg := testBusinessConfig()
	cfg.DemoFallback = true
	repo := &fakeEventRepo{events: map[int64]*models.Event{}}
	es := NewEventService(repo, nil, cfg)

	d, err := es.GetDisplayEvent(context.Background(), 404)
	require.NoError(t, err)

	// The substitute is always marked so it can never pass for real
	// data.
	assert.True(t, d.Placeholder)
	assert.Equal(t, "Tech Innovation Summit", d.Title)
	assert.Equal(t, int64(404), d.ID)
}

func TestGetDisplayEventLoadsImages(t *testing.T) {
	repo := &fakeEventRepo{
		events: map[int64]*models.Event{
			1: {ID: 1, Name: "Go Conference", Price: 100, SeatsAvailable: 50},
		},
		images: map[int64][]models.EventImage{
			1: {{ImageURL: "https://cdn.example.com/hero.jpg", IsPrimary: true}},
		},
	}
	es := NewEventService(repo, nil, testBusinessConfig())

	d, err := es.GetDisplayEvent(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/hero.jpg", d.ImageURL)
	assert.False(t, d.Placeholder)
}

func TestDisplayEventConvertsPrice(t *testing.T) {
	es := testEventService()

	event := &models.Event{
		ID:             1,
		Name:           "Go Conference",
		Price:          100,
		Date:           time.Date(2026, 11, 15, 0, 0, 0, 0, time.UTC),
		SeatsAvailable: 50,
	}

	d := es.DisplayEvent(event, nil)

	assert.Equal(t, int64(7500), d.Price)
	assert.Equal(t, int64(375), d.ServiceFee)
	assert.Equal(t, "Nov 15, 2026", d.Date)
	assert.Equal(t, 50, d.TicketsAvailable)
	assert.False(t, d.Placeholder)
}

func TestDisplayEventDefaults(t *testing.T) {
	es := testEventService()

	d := es.DisplayEvent(&models.Event{ID: 1, Name: "Bare Event"}, nil)

	assert.Equal(t, "9:00 AM - 5:00 PM", d.Time)
	assert.Equal(t, "Venue Name", d.Venue)
	assert.Equal(t, "Venue City", d.Location)
	assert.Equal(t, "Event", d.Category)
	assert.Equal(t, "Event Organizer", d.Organizer)
	assert.Equal(t, defaultEventImage, d.ImageURL)
	assert.Equal(t, 100, d.TicketsAvailable)
	assert.NotEmpty(t, d.Date)
}

func TestDisplayEventSeatFallbackChain(t *testing.T) {
	es := testEventService()

	d := es.DisplayEvent(&models.Event{MaxAttendees: 300}, nil)
	assert.Equal(t, 300, d.TicketsAvailable)

	d = es.DisplayEvent(&models.Event{SeatsAvailable: 5, MaxAttendees: 300}, nil)
	assert.Equal(t, 5, d.TicketsAvailable)
}

func TestDisplayEventPrimaryImageWins(t *testing.T) {
	es := testEventService()

	images := []models.EventImage{
		{ImageURL: "https://cdn.example.com/a.jpg"},
		{ImageURL: "https://cdn.example.com/b.jpg", IsPrimary: true},
		{ImageURL: "https://cdn.example.com/c.jpg"},
	}

	d := es.DisplayEvent(&models.Event{Name: "With Images"}, images)
	assert.Equal(t, "https://cdn.example.com/b.jpg", d.ImageURL)
}

func TestLocationCity(t *testing.T) {
	assert.Equal(t, "Venue City", locationCity(nil))
	assert.Equal(t, "Venue City", locationCity(json.RawMessage(`not json`)))
	assert.Equal(t, "Venue City", locationCity(json.RawMessage(`{"country":"US"}`)))
	assert.Equal(t, "Austin", locationCity(json.RawMessage(`{"city":"Austin","state":"TX"}`)))
}

func TestPlaceholderEvent(t *testing.T) {
	d := PlaceholderEvent(7)

	assert.Equal(t, int64(7), d.ID)
	assert.Equal(t, "Tech Innovation Summit", d.Title)
	assert.Equal(t, int64(22425), d.Price)
	assert.Equal(t, int64(1121), d.ServiceFee)
	assert.Equal(t, 325, d.TicketsAvailable)
	assert.True(t, d.Placeholder)
}

func TestEventFromRequestParsesDate(t *testing.T) {
	event, err := eventFromRequest(&CreateEventRequest{
		Name:           "Launch Party",
		Date:           "2026-12-01",
		Price:          200,
		SeatsAvailable: 80,
	})
	assert.NoError(t, err)
	assert.Equal(t, time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC), event.Date)
	assert.Equal(t, 80, event.SeatsAvailable)
	assert.Equal(t, models.EventStatusActive, event.Status)
}

func TestEventFromRequestRejectsBadDate(t *testing.T) {
	_, err := eventFromRequest(&CreateEventRequest{Name: "Bad", Date: "12/01/2026"})
	assert.Error(t, err)
}

func TestEventFromRequestSeatsDefaultToCapacity(t *testing.T) {
	event, err := eventFromRequest(&CreateEventRequest{
		Name:         "Capacity Only",
		Date:         "2026-12-01",
		MaxAttendees: 150,
	})
	assert.NoError(t, err)
	assert.Equal(t, 150, event.SeatsAvailable)
}
