package models

import "time"

// Event types
const (
	EventTypeBookingCreated = "BOOKING_CREATED"
	EventTypeEventCreated   = "EVENT_CREATED"
	EventTypeEventDeleted   = "EVENT_DELETED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// BookingCreatedEvent published when a booking is persisted.
// SeatsSyncedToDB is true when the submit path already decremented the
// seat count in the database (Redis fallback), so the worker must not
// decrement again.
type BookingCreatedEvent struct {
	BaseEvent
	BookingID       int64  `json:"booking_id"`
	EventRefID      int64  `json:"event_ref_id"`
	UserID          *int64 `json:"user_id,omitempty"`
	Quantity        int    `json:"quantity"`
	Reference       string `json:"booking_reference"`
	TotalAmount     int64  `json:"total_amount"`
	SeatsSyncedToDB bool   `json:"seats_synced_to_db"`
}

// EventCreatedEvent published when an administrator creates an event
type EventCreatedEvent struct {
	BaseEvent
	EventRefID     int64 `json:"event_ref_id"`
	SeatsAvailable int   `json:"seats_available"`
}

// EventDeletedEvent published when an administrator deletes an event
type EventDeletedEvent struct {
	BaseEvent
	EventRefID int64 `json:"event_ref_id"`
}
