package models

import (
	"encoding/json"
	"time"
)

// Event represents an event listing as stored by the catalog
type Event struct {
	ID              int64           `db:"id" json:"id"`
	Name            string          `db:"name" json:"name"`
	Description     string          `db:"description" json:"description"`
	Date            time.Time       `db:"date" json:"date"`
	Time            string          `db:"time" json:"time"`
	Venue           string          `db:"venue" json:"venue"`
	Category        string          `db:"category" json:"category"`
	Organizer       string          `db:"organizer" json:"organizer"`
	Price           int64           `db:"price" json:"price"`
	SeatsAvailable  int             `db:"seats_available" json:"seats_available"`
	MaxAttendees    int             `db:"max_attendees" json:"max_attendees"`
	ImageURL        string          `db:"image_url" json:"image_url,omitempty"`
	LocationDetails json.RawMessage `db:"location_details" json:"location_details,omitempty"`
	Status          string          `db:"status" json:"status"`
	ContactInfo     string          `db:"contact_info" json:"contact_info,omitempty"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
}

// EventImage represents an image attached to an event
type EventImage struct {
	ID        int64     `db:"id" json:"id"`
	EventID   int64     `db:"event_id" json:"event_id"`
	ImageURL  string    `db:"image_url" json:"image_url"`
	IsPrimary bool      `db:"is_primary" json:"is_primary"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// EventDisplay is the view-friendly shape of an event: price converted
// into display currency, date formatted, missing fields defaulted.
// Placeholder marks the fixed demo event substituted on load failure.
type EventDisplay struct {
	ID               int64  `json:"id"`
	Title            string `json:"title"`
	ImageURL         string `json:"image"`
	Description      string `json:"description,omitempty"`
	Date             string `json:"date"`
	Time             string `json:"time"`
	Location         string `json:"location"`
	Venue            string `json:"venue"`
	Category         string `json:"category"`
	Organizer        string `json:"organizer"`
	Price            int64  `json:"price"`
	ServiceFee       int64  `json:"tickets_fee"`
	TicketsAvailable int    `json:"tickets_available"`
	Placeholder      bool   `json:"placeholder,omitempty"`
}

// Booking represents a confirmed ticket purchase
type Booking struct {
	ID             int64     `db:"id" json:"id"`
	EventID        int64     `db:"event_id" json:"event_id"`
	UserID         *int64    `db:"user_id" json:"user_id,omitempty"`
	Quantity       int       `db:"quantity" json:"quantity"`
	Status         string    `db:"status" json:"status"`
	Reference      string    `db:"booking_reference" json:"booking_reference"`
	QRCode         string    `db:"qr_code" json:"qr_code,omitempty"`
	IdempotencyKey string    `db:"idempotency_key" json:"idempotency_key,omitempty"`
	TotalAmount    int64     `db:"total_amount" json:"total_amount"`
	BookingDate    time.Time `db:"booking_date" json:"booking_date"`
}

// Payment represents a payment transaction for a booking
type Payment struct {
	ID           int64     `db:"id" json:"id"`
	BookingID    int64     `db:"booking_id" json:"booking_id"`
	EventID      int64     `db:"event_id" json:"event_id"`
	UserID       *int64    `db:"user_id" json:"user_id,omitempty"`
	Amount       int64     `db:"amount" json:"amount"`
	Status       string    `db:"status" json:"status"`
	ProviderTxID string    `db:"provider_tx_id" json:"provider_tx_id,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// User represents a registered account
type User struct {
	ID           int64     `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	FirstName    string    `db:"first_name" json:"first_name"`
	LastName     string    `db:"last_name" json:"last_name"`
	Role         string    `db:"role" json:"role"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// AttendeeInfo holds the checkout attendee form values
type AttendeeInfo struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

// CardDetails holds the checkout card form values. Validation is
// presence-only: no Luhn or expiry-date format checks.
type CardDetails struct {
	Name       string `json:"name"`
	Number     string `json:"number"`
	Expiry     string `json:"expiry"`
	CVC        string `json:"cvc"`
	BillingZip string `json:"billing_zip,omitempty"`
}

// CheckoutSession is the server-side state of one checkout attempt.
// It lives in Redis under a TTL; expiry is the abandonment path.
type CheckoutSession struct {
	ID             string       `json:"id"`
	EventID        int64        `json:"event_id"`
	UserID         *int64       `json:"user_id,omitempty"`
	Step           int          `json:"step"`
	TicketCount    int          `json:"ticket_count"`
	PaymentMethod  string       `json:"payment_method"`
	Attendee       AttendeeInfo `json:"attendee"`
	Card           CardDetails  `json:"card"`
	IdempotencyKey string       `json:"idempotency_key"`
	Completed      bool         `json:"completed"`
	Reference      string       `json:"booking_reference,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// Checkout steps
const (
	StepTicketSelection = 1
	StepAttendeeInfo    = 2
	StepPayment         = 3
)

// Payment methods accepted at the payment step
const (
	PaymentMethodCard   = "card"
	PaymentMethodPaypal = "paypal"
	PaymentMethodBank   = "bank"
)

// Booking statuses
const (
	BookingStatusConfirmed = "confirmed"
	BookingStatusCancelled = "cancelled"
)

// Payment statuses
const (
	PaymentStatusPending = "PENDING"
	PaymentStatusSuccess = "SUCCESS"
	PaymentStatusFailed  = "FAILED"
)

// User roles
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Event statuses
const (
	EventStatusActive   = "active"
	EventStatusDraft    = "draft"
	EventStatusArchived = "archived"
)
