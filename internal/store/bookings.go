package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"smarteventscape/internal/models"
)

// CreateBooking creates a new booking
func (s *Store) CreateBooking(ctx context.Context, booking *models.Booking) error {
	query := `
		INSERT INTO bookings (event_id, user_id, quantity, status, booking_reference,
			qr_code, idempotency_key, total_amount)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, booking_date`

	return s.db.GetContext(ctx, booking, query,
		booking.EventID, booking.UserID, booking.Quantity, booking.Status,
		booking.Reference, booking.QRCode, booking.IdempotencyKey, booking.TotalAmount)
}

// GetBookingByID retrieves a booking by ID
func (s *Store) GetBookingByID(ctx context.Context, id int64) (*models.Booking, error) {
	var booking models.Booking
	err := s.db.GetContext(ctx, &booking, "SELECT * FROM bookings WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("booking not found: %d", id)
	}
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// GetBookingByReference retrieves a booking by its reference code
func (s *Store) GetBookingByReference(ctx context.Context, reference string) (*models.Booking, error) {
	var booking models.Booking
	err := s.db.GetContext(ctx, &booking,
		"SELECT * FROM bookings WHERE booking_reference = $1", reference)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("booking not found: %s", reference)
	}
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// GetBookingByIdempotencyKey retrieves a booking by idempotency key.
// A nil booking with nil error means no booking holds the key yet.
func (s *Store) GetBookingByIdempotencyKey(ctx context.Context, key string) (*models.Booking, error) {
	var booking models.Booking
	err := s.db.GetContext(ctx, &booking,
		"SELECT * FROM bookings WHERE idempotency_key = $1", key)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// GetBookingsByUserID retrieves bookings for a user, newest first
func (s *Store) GetBookingsByUserID(ctx context.Context, userID int64) ([]models.Booking, error) {
	var bookings []models.Booking
	err := s.db.SelectContext(ctx, &bookings,
		"SELECT * FROM bookings WHERE user_id = $1 ORDER BY booking_date DESC", userID)
	return bookings, err
}

// SetBookingQRCode stores the rendered QR data URI on the booking row
func (s *Store) SetBookingQRCode(ctx context.Context, bookingID int64, qrCode string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE bookings SET qr_code = $1 WHERE id = $2", qrCode, bookingID)
	return err
}

// CreatePayment creates a new payment record
func (s *Store) CreatePayment(ctx context.Context, payment *models.Payment) error {
	query := `
		INSERT INTO payments (booking_id, event_id, user_id, amount, status, provider_tx_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	return s.db.GetContext(ctx, payment, query,
		payment.BookingID, payment.EventID, payment.UserID, payment.Amount,
		payment.Status, payment.ProviderTxID)
}

// GetPaymentByBookingID retrieves the latest payment for a booking
func (s *Store) GetPaymentByBookingID(ctx context.Context, bookingID int64) (*models.Payment, error) {
	var payment models.Payment
	err := s.db.GetContext(ctx, &payment,
		"SELECT * FROM payments WHERE booking_id = $1 ORDER BY created_at DESC LIMIT 1", bookingID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("payment not found for booking: %d", bookingID)
	}
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// IsEventProcessed checks if a domain event has been processed
func (s *Store) IsEventProcessed(ctx context.Context, eventID string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		"SELECT EXISTS(SELECT 1 FROM processed_events WHERE event_id = $1)", eventID)
	return exists, err
}

// MarkEventProcessed marks a domain event as processed
func (s *Store) MarkEventProcessed(ctx context.Context, eventID, eventType string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO processed_events (event_id, event_type) VALUES ($1, $2) ON CONFLICT (event_id) DO NOTHING",
		eventID, eventType)
	return err
}

// CommitSeatsProcessed marks a domain event processed and deducts the
// Redis-reserved seats from the database count in the same transaction,
// so a redelivery after a partial failure can never deduct twice.
// Quantity zero marks without touching seats. Returns false when the
// event was already processed.
func (s *Store) CommitSeatsProcessed(ctx context.Context, domainEventID, eventType string, eventRefID int64, quantity int) (bool, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"INSERT INTO processed_events (event_id, event_type) VALUES ($1, $2) ON CONFLICT (event_id) DO NOTHING",
		domainEventID, eventType)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, nil
	}

	if quantity > 0 {
		_, err = tx.ExecContext(ctx,
			"UPDATE events SET seats_available = GREATEST(seats_available - $1, 0), updated_at = NOW() WHERE id = $2",
			quantity, eventRefID)
		if err != nil {
			return false, err
		}
	}

	return true, tx.Commit()
}

// DailyBookingStat is one day of booking volume
type DailyBookingStat struct {
	Day      time.Time `db:"day" json:"day"`
	Bookings int       `db:"bookings" json:"bookings"`
	Tickets  int       `db:"tickets" json:"tickets"`
	Revenue  int64     `db:"revenue" json:"revenue"`
}

// CategoryRevenueStat aggregates revenue per event category
type CategoryRevenueStat struct {
	Category string `db:"category" json:"category"`
	Bookings int    `db:"bookings" json:"bookings"`
	Revenue  int64  `db:"revenue" json:"revenue"`
}

// EventSalesStat aggregates sales per event
type EventSalesStat struct {
	EventID int64  `db:"event_id" json:"event_id"`
	Name    string `db:"name" json:"name"`
	Tickets int    `db:"tickets" json:"tickets"`
	Revenue int64  `db:"revenue" json:"revenue"`
}

// AnalyticsSummary holds the dashboard headline counters
type AnalyticsSummary struct {
	TotalEvents   int   `db:"total_events" json:"total_events"`
	TotalBookings int   `db:"total_bookings" json:"total_bookings"`
	TotalTickets  int   `db:"total_tickets" json:"total_tickets"`
	TotalRevenue  int64 `db:"total_revenue" json:"total_revenue"`
}

// GetBookingsPerDay aggregates confirmed bookings over the last N days
func (s *Store) GetBookingsPerDay(ctx context.Context, days int) ([]DailyBookingStat, error) {
	var stats []DailyBookingStat
	err := s.db.SelectContext(ctx, &stats, `
		SELECT date_trunc('day', booking_date) AS day,
			COUNT(*) AS bookings,
			COALESCE(SUM(quantity), 0) AS tickets,
			COALESCE(SUM(total_amount), 0) AS revenue
		FROM bookings
		WHERE status = $1 AND booking_date >= NOW() - ($2 * INTERVAL '1 day')
		GROUP BY 1 ORDER BY 1`,
		models.BookingStatusConfirmed, days)
	return stats, err
}

// GetRevenueByCategory aggregates confirmed booking revenue per category
func (s *Store) GetRevenueByCategory(ctx context.Context) ([]CategoryRevenueStat, error) {
	var stats []CategoryRevenueStat
	err := s.db.SelectContext(ctx, &stats, `
		SELECT e.category AS category,
			COUNT(b.id) AS bookings,
			COALESCE(SUM(b.total_amount), 0) AS revenue
		FROM bookings b JOIN events e ON e.id = b.event_id
		WHERE b.status = $1
		GROUP BY e.category ORDER BY revenue DESC`,
		models.BookingStatusConfirmed)
	return stats, err
}

// GetTopEvents returns the best-selling events by ticket volume
func (s *Store) GetTopEvents(ctx context.Context, limit int) ([]EventSalesStat, error) {
	var stats []EventSalesStat
	err := s.db.SelectContext(ctx, &stats, `
		SELECT e.id AS event_id, e.name AS name,
			COALESCE(SUM(b.quantity), 0) AS tickets,
			COALESCE(SUM(b.total_amount), 0) AS revenue
		FROM events e LEFT JOIN bookings b ON b.event_id = e.id AND b.status = $1
		GROUP BY e.id, e.name ORDER BY tickets DESC, e.id LIMIT $2`,
		models.BookingStatusConfirmed, limit)
	return stats, err
}

// GetAnalyticsSummary returns the headline counters for the dashboard
func (s *Store) GetAnalyticsSummary(ctx context.Context) (*AnalyticsSummary, error) {
	var summary AnalyticsSummary
	err := s.db.GetContext(ctx, &summary, `
		SELECT (SELECT COUNT(*) FROM events) AS total_events,
			COUNT(b.id) AS total_bookings,
			COALESCE(SUM(b.quantity), 0) AS total_tickets,
			COALESCE(SUM(b.total_amount), 0) AS total_revenue
		FROM bookings b WHERE b.status = $1`,
		models.BookingStatusConfirmed)
	if err != nil {
		return nil, err
	}
	return &summary, nil
}
