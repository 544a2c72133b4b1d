package store

import (
	"context"
	"database/sql"
	"fmt"

	"smarteventscape/internal/models"
)

// CreateUser creates a new user account
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (email, password_hash, first_name, last_name, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	return s.db.GetContext(ctx, user, query,
		user.Email, user.PasswordHash, user.FirstName, user.LastName, user.Role)
}

// GetUserByEmail retrieves a user by email. A nil user with nil error
// means the email is not registered.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.GetContext(ctx, &user, "SELECT * FROM users WHERE email = $1", email)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByID retrieves a user by ID
func (s *Store) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	err := s.db.GetContext(ctx, &user, "SELECT * FROM users WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user not found: %d", id)
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ListEventIDsWithSeats returns every event id with its current seat
// count, used to seed the Redis counters at startup
func (s *Store) ListEventIDsWithSeats(ctx context.Context) (map[int64]int, error) {
	rows, err := s.db.QueryxContext(ctx, "SELECT id, seats_available FROM events")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	seats := make(map[int64]int)
	for rows.Next() {
		var id int64
		var available int
		if err := rows.Scan(&id, &available); err != nil {
			return nil, err
		}
		seats[id] = available
	}
	return seats, rows.Err()
}
