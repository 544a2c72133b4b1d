package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"smarteventscape/config"
	"smarteventscape/internal/broker"
	"smarteventscape/internal/models"
	"smarteventscape/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrEventNotFound reports an event that could not be loaded.
var ErrEventNotFound = errors.New("event not found")

const defaultEventImage = "https://images.unsplash.com/photo-1540575467063-178a50c2df87?auto=format&fit=crop&q=80&w=2940&ixlib=rb-4.0.3"

// EventRepository is the slice of the store the event operations need
type EventRepository interface {
	GetEventByID(ctx context.Context, id int64) (*models.Event, error)
	GetEventImages(ctx context.Context, eventID int64) ([]models.EventImage, error)
	ListEvents(ctx context.Context, category, search string) ([]models.Event, error)
	CreateEvent(ctx context.Context, event *models.Event, images []models.EventImage) error
	UpdateEvent(ctx context.Context, event *models.Event) error
	DeleteEvent(ctx context.Context, id int64) error
}

// EventService loads events and normalizes them into display models,
// and carries the administrator CRUD operations.
type EventService struct {
	store     EventRepository
	publisher *broker.EventPublisher
	cfg       config.BusinessConfig
	logger    *zap.Logger
}

// NewEventService creates a new event service
func NewEventService(store EventRepository, publisher *broker.EventPublisher, cfg config.BusinessConfig) *EventService {
	return &EventService{
		store:     store,
		publisher: publisher,
		cfg:       cfg,
		logger:    util.GetLogger(),
	}
}

// GetDisplayEvent fetches an event with its images and normalizes it.
// A failed load returns ErrEventNotFound unless demo fallback is
// enabled, in which case the fixed placeholder event is substituted and
// marked as such so it can never pass for real data. The placeholder
// only stands in for rendering; a submission still needs the real
// event row for its seat count and foreign key.
func (s *EventService) GetDisplayEvent(ctx context.Context, id int64) (*models.EventDisplay, error) {
	ctx, span := util.StartSpan(ctx, "EventService.GetDisplayEvent")
	defer span.End()

	event, err := s.store.GetEventByID(ctx, id)
	if err != nil {
		s.logger.Warn("Event load failed",
			zap.Int64("event_id", id),
			zap.Error(err))
		if s.cfg.DemoFallback {
			util.EventLoadFallbacksTotal.Inc()
			return PlaceholderEvent(id), nil
		}
		return nil, ErrEventNotFound
	}

	images, err := s.store.GetEventImages(ctx, id)
	if err != nil {
		s.logger.Warn("Event images load failed",
			zap.Int64("event_id", id),
			zap.Error(err))
		images = nil
	}

	return s.DisplayEvent(event, images), nil
}

// DisplayEvent maps a stored event into the view-friendly shape:
// currency converted, date formatted, missing values defaulted so the
// consumer never renders an empty field.
func (s *EventService) DisplayEvent(event *models.Event, images []models.EventImage) *models.EventDisplay {
	quote := NewPriceQuote(event.Price, s.cfg.ConversionRate, s.cfg.ServiceFeePct)

	imageURL := event.ImageURL
	for _, img := range images {
		if imageURL == "" || img.IsPrimary {
			imageURL = img.ImageURL
		}
		if img.IsPrimary {
			break
		}
	}
	if imageURL == "" {
		imageURL = defaultEventImage
	}

	date := event.Date
	if date.IsZero() {
		date = time.Now()
	}

	seats := event.SeatsAvailable
	if seats == 0 {
		seats = event.MaxAttendees
	}
	if seats == 0 {
		seats = 100
	}

	return &models.EventDisplay{
		ID:               event.ID,
		Title:            event.Name,
		ImageURL:         imageURL,
		Description:      event.Description,
		Date:             date.Format("Jan 2, 2006"),
		Time:             defaultString(event.Time, "9:00 AM - 5:00 PM"),
		Location:         locationCity(event.LocationDetails),
		Venue:            defaultString(event.Venue, "Venue Name"),
		Category:         defaultString(event.Category, "Event"),
		Organizer:        defaultString(event.Organizer, "Event Organizer"),
		Price:            quote.UnitPrice,
		ServiceFee:       quote.ServiceFee,
		TicketsAvailable: seats,
	}
}

// PlaceholderEvent is the fixed demo event substituted on load failure
// when demo fallback is enabled
func PlaceholderEvent(id int64) *models.EventDisplay {
	return &models.EventDisplay{
		ID:               id,
		Title:            "Tech Innovation Summit",
		ImageURL:         defaultEventImage,
		Date:             "Nov 15, 2023",
		Time:             "9:00 AM - 5:00 PM",
		Location:         "San Francisco, CA",
		Venue:            "Digital Conference Center",
		Category:         "Event",
		Organizer:        "Event Organizer",
		Price:            22425,
		ServiceFee:       1121,
		TicketsAvailable: 325,
		Placeholder:      true,
	}
}

// ListEvents returns display models for browse/search
func (s *EventService) ListEvents(ctx context.Context, category, search string) ([]models.EventDisplay, error) {
	events, err := s.store.ListEvents(ctx, category, search)
	if err != nil {
		return nil, err
	}

	displays := make([]models.EventDisplay, 0, len(events))
	for i := range events {
		displays = append(displays, *s.DisplayEvent(&events[i], nil))
	}
	return displays, nil
}

// EventImageRequest is one image attached at event creation
type EventImageRequest struct {
	URL       string `json:"url" binding:"required"`
	IsPrimary bool   `json:"is_primary"`
}

// CreateEventRequest represents an administrator's event creation form
type CreateEventRequest struct {
	Name            string              `json:"name" binding:"required"`
	Description     string              `json:"description"`
	Date            string              `json:"date" binding:"required"`
	Time            string              `json:"time"`
	Venue           string              `json:"venue"`
	Category        string              `json:"category"`
	Organizer       string              `json:"organizer"`
	Price           int64               `json:"price" binding:"min=0"`
	SeatsAvailable  int                 `json:"seats_available" binding:"min=0"`
	MaxAttendees    int                 `json:"max_attendees" binding:"min=0"`
	ImageURL        string              `json:"image_url"`
	LocationDetails json.RawMessage     `json:"location_details"`
	Status          string              `json:"status"`
	ContactInfo     string              `json:"contact_info"`
	Images          []EventImageRequest `json:"images"`
}

// CreateEvent inserts an event and its images, then announces it so the
// seat counter gets seeded
func (s *EventService) CreateEvent(ctx context.Context, req *CreateEventRequest) (*models.Event, error) {
	ctx, span := util.StartSpan(ctx, "EventService.CreateEvent")
	defer span.End()

	event, err := eventFromRequest(req)
	if err != nil {
		return nil, err
	}

	images := make([]models.EventImage, 0, len(req.Images))
	for _, img := range req.Images {
		images = append(images, models.EventImage{
			ImageURL:  img.URL,
			IsPrimary: img.IsPrimary,
		})
	}

	if err := s.store.CreateEvent(ctx, event, images); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	s.logger.Info("Event created",
		zap.Int64("event_id", event.ID),
		zap.String("name", event.Name))

	if s.publisher != nil {
		created := &models.EventCreatedEvent{
			BaseEvent: models.BaseEvent{
				EventID:   uuid.New().String(),
				EventType: models.EventTypeEventCreated,
				Timestamp: time.Now(),
			},
			EventRefID:     event.ID,
			SeatsAvailable: event.SeatsAvailable,
		}
		if err := s.publisher.PublishEventCreated(ctx, created); err != nil {
			s.logger.Error("Failed to publish EventCreated event", zap.Error(err))
		}
	}

	return event, nil
}

// UpdateEvent replaces the mutable fields of an existing event
func (s *EventService) UpdateEvent(ctx context.Context, id int64, req *CreateEventRequest) (*models.Event, error) {
	event, err := eventFromRequest(req)
	if err != nil {
		return nil, err
	}
	event.ID = id

	if err := s.store.UpdateEvent(ctx, event); err != nil {
		return nil, err
	}
	return s.store.GetEventByID(ctx, id)
}

// DeleteEvent removes an event and announces the deletion so caches
// drop their counters
func (s *EventService) DeleteEvent(ctx context.Context, id int64) error {
	if err := s.store.DeleteEvent(ctx, id); err != nil {
		return err
	}

	if s.publisher != nil {
		deleted := &models.EventDeletedEvent{
			BaseEvent: models.BaseEvent{
				EventID:   uuid.New().String(),
				EventType: models.EventTypeEventDeleted,
				Timestamp: time.Now(),
			},
			EventRefID: id,
		}
		if err := s.publisher.PublishEventDeleted(ctx, deleted); err != nil {
			s.logger.Error("Failed to publish EventDeleted event", zap.Error(err))
		}
	}

	return nil
}

// ListEventsRaw returns stored rows for the admin listing
func (s *EventService) ListEventsRaw(ctx context.Context, category, search string) ([]models.Event, error) {
	return s.store.ListEvents(ctx, category, search)
}

func eventFromRequest(req *CreateEventRequest) (*models.Event, error) {
	if req.Price < 0 || req.SeatsAvailable < 0 {
		return nil, fmt.Errorf("price and seat counts must be non-negative")
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", req.Date, err)
	}

	seats := req.SeatsAvailable
	if seats == 0 {
		seats = req.MaxAttendees
	}

	return &models.Event{
		Name:            req.Name,
		Description:     req.Description,
		Date:            date,
		Time:            req.Time,
		Venue:           req.Venue,
		Category:        req.Category,
		Organizer:       req.Organizer,
		Price:           req.Price,
		SeatsAvailable:  seats,
		MaxAttendees:    req.MaxAttendees,
		ImageURL:        req.ImageURL,
		LocationDetails: req.LocationDetails,
		Status:          defaultString(req.Status, models.EventStatusActive),
		ContactInfo:     req.ContactInfo,
	}, nil
}

func defaultString(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

// locationCity pulls the city out of the location details blob,
// defaulting when the blob is absent or malformed
func locationCity(details json.RawMessage) string {
	if len(details) == 0 {
		return "Venue City"
	}
	var loc struct {
		City string `json:"city"`
	}
	if err := json.Unmarshal(details, &loc); err != nil || loc.City == "" {
		return "Venue City"
	}
	return loc.City
}
