package store

import (
	"context"
	"database/sql"
	"fmt"

	"smarteventscape/internal/models"
)

// ErrNoSeats reports a reservation that exceeds the remaining seats.
var ErrNoSeats = fmt.Errorf("insufficient seats")

// GetEventByID retrieves an event by ID
func (s *Store) GetEventByID(ctx context.Context, id int64) (*models.Event, error) {
	var event models.Event
	err := s.db.GetContext(ctx, &event, "SELECT * FROM events WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("event not found: %d", id)
	}
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// ListEvents retrieves events, optionally filtered by category and a
// case-insensitive name search
func (s *Store) ListEvents(ctx context.Context, category, search string) ([]models.Event, error) {
	query := "SELECT * FROM events WHERE status != $1"
	args := []interface{}{models.EventStatusArchived}

	if category != "" {
		args = append(args, category)
		query += fmt.Sprintf(" AND category = $%d", len(args))
	}
	if search != "" {
		args = append(args, "%"+search+"%")
		query += fmt.Sprintf(" AND name ILIKE $%d", len(args))
	}
	query += " ORDER BY date, id"

	var events []models.Event
	err := s.db.SelectContext(ctx, &events, query, args...)
	return events, err
}

// CreateEvent inserts an event and its image rows in one transaction
func (s *Store) CreateEvent(ctx context.Context, event *models.Event, images []models.EventImage) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO events (name, description, date, time, venue, category, organizer,
			price, seats_available, max_attendees, image_url, location_details, status, contact_info)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id, created_at, updated_at`

	err = tx.GetContext(ctx, event, query,
		event.Name, event.Description, event.Date, event.Time, event.Venue,
		event.Category, event.Organizer, event.Price, event.SeatsAvailable,
		event.MaxAttendees, event.ImageURL, event.LocationDetails, event.Status,
		event.ContactInfo)
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}

	for i := range images {
		images[i].EventID = event.ID
		err = tx.GetContext(ctx, &images[i].ID,
			`INSERT INTO event_images (event_id, image_url, is_primary)
			 VALUES ($1, $2, $3) RETURNING id`,
			images[i].EventID, images[i].ImageURL, images[i].IsPrimary)
		if err != nil {
			return fmt.Errorf("failed to insert event image: %w", err)
		}
	}

	return tx.Commit()
}

// UpdateEvent updates the mutable fields of an event
func (s *Store) UpdateEvent(ctx context.Context, event *models.Event) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE events SET name = $1, description = $2, date = $3, time = $4,
			venue = $5, category = $6, organizer = $7, price = $8,
			seats_available = $9, max_attendees = $10, image_url = $11,
			location_details = $12, status = $13, contact_info = $14,
			updated_at = NOW()
		WHERE id = $15`,
		event.Name, event.Description, event.Date, event.Time, event.Venue,
		event.Category, event.Organizer, event.Price, event.SeatsAvailable,
		event.MaxAttendees, event.ImageURL, event.LocationDetails, event.Status,
		event.ContactInfo, event.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("event not found: %d", event.ID)
	}
	return nil
}

// DeleteEvent removes an event and its images
func (s *Store) DeleteEvent(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM event_images WHERE event_id = $1", id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM events WHERE id = $1", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("event not found: %d", id)
	}
	return tx.Commit()
}

// GetEventImages retrieves images for an event, primary first
func (s *Store) GetEventImages(ctx context.Context, eventID int64) ([]models.EventImage, error) {
	var images []models.EventImage
	err := s.db.SelectContext(ctx, &images,
		"SELECT * FROM event_images WHERE event_id = $1 ORDER BY is_primary DESC, id", eventID)
	return images, err
}

// ReserveSeatsTx decrements the seat count within a transaction
// (FOR UPDATE lock). Used as the fallback when Redis is unavailable.
func (s *Store) ReserveSeatsTx(ctx context.Context, eventID int64, quantity int) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var available int
	err = tx.GetContext(ctx, &available,
		"SELECT seats_available FROM events WHERE id = $1 FOR UPDATE", eventID)
	if err != nil {
		return fmt.Errorf("failed to lock event seats: %w", err)
	}

	if available < quantity {
		return ErrNoSeats
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE events SET seats_available = seats_available - $1, updated_at = NOW() WHERE id = $2",
		quantity, eventID)
	if err != nil {
		return fmt.Errorf("failed to reserve seats: %w", err)
	}

	return tx.Commit()
}

// ReleaseSeats returns seats to the pool (compensation)
func (s *Store) ReleaseSeats(ctx context.Context, eventID int64, quantity int) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE events SET seats_available = seats_available + $1, updated_at = NOW() WHERE id = $2",
		quantity, eventID)
	return err
}
