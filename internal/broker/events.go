package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"smarteventscape/internal/models"

	"github.com/segmentio/kafka-go"
)

// EventPublisher handles publishing domain events
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// PublishBookingCreated publishes a BookingCreated event
func (ep *EventPublisher) PublishBookingCreated(ctx context.Context, event *models.BookingCreatedEvent) error {
	key := fmt.Sprintf("booking-%d", event.BookingID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishEventCreated publishes an EventCreated event
func (ep *EventPublisher) PublishEventCreated(ctx context.Context, event *models.EventCreatedEvent) error {
	key := fmt.Sprintf("event-%d", event.EventRefID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishEventDeleted publishes an EventDeleted event
func (ep *EventPublisher) PublishEventDeleted(ctx context.Context, event *models.EventDeletedEvent) error {
	key := fmt.Sprintf("event-%d", event.EventRefID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// EventHandler routes incoming domain events to registered callbacks
type EventHandler struct {
	onBookingCreated func(context.Context, *models.BookingCreatedEvent) error
	onEventCreated   func(context.Context, *models.EventCreatedEvent) error
	onEventDeleted   func(context.Context, *models.EventDeletedEvent) error
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{}
}

// OnBookingCreated registers a handler for BookingCreated events
func (eh *EventHandler) OnBookingCreated(handler func(context.Context, *models.BookingCreatedEvent) error) {
	eh.onBookingCreated = handler
}

// OnEventCreated registers a handler for EventCreated events
func (eh *EventHandler) OnEventCreated(handler func(context.Context, *models.EventCreatedEvent) error) {
	eh.onEventCreated = handler
}

// OnEventDeleted registers a handler for EventDeleted events
func (eh *EventHandler) OnEventDeleted(handler func(context.Context, *models.EventDeletedEvent) error) {
	eh.onEventDeleted = handler
}

// HandleMessage routes messages to the appropriate handler
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	log.Printf("Handling event: type=%s, id=%s", baseEvent.EventType, baseEvent.EventID)

	switch baseEvent.EventType {
	case models.EventTypeBookingCreated:
		if eh.onBookingCreated != nil {
			var event models.BookingCreatedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal BookingCreated event: %w", err)
			}
			return eh.onBookingCreated(ctx, &event)
		}

	case models.EventTypeEventCreated:
		if eh.onEventCreated != nil {
			var event models.EventCreatedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal EventCreated event: %w", err)
			}
			return eh.onEventCreated(ctx, &event)
		}

	case models.EventTypeEventDeleted:
		if eh.onEventDeleted != nil {
			var event models.EventDeletedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal EventDeleted event: %w", err)
			}
			return eh.onEventDeleted(ctx, &event)
		}
	}

	return nil
}
