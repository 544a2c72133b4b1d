package redisclient

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"smarteventscape/internal/models"
)

//go:embed scripts/reserve_seats.lua
var reserveSeatsScript string

//go:embed scripts/release_seats.lua
var releaseSeatsScript string

// ErrSessionNotFound reports a checkout session that is absent or expired.
var ErrSessionNotFound = errors.New("checkout session not found")

// ErrSeatsUnknown reports a seat counter that has not been initialized;
// callers fall back to the database reservation path.
var ErrSeatsUnknown = errors.New("seat counter not initialized")

type Client struct {
	rdb           *redis.Client
	reserveScript *redis.Script
	releaseScript *redis.Script
}

// NewClient creates a new Redis client with Lua scripts loaded
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{
		rdb:           rdb,
		reserveScript: redis.NewScript(reserveSeatsScript),
		releaseScript: redis.NewScript(releaseSeatsScript),
	}, nil
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

func seatKey(eventID int64) string {
	return fmt.Sprintf("seats:%d", eventID)
}

func sessionKey(id string) string {
	return fmt.Sprintf("checkout:%s", id)
}

// ReserveSeats atomically reserves seats for an event using a Lua script.
// Returns false when the remaining seats are insufficient, and
// ErrSeatsUnknown when the counter was never initialized.
func (c *Client) ReserveSeats(ctx context.Context, eventID int64, quantity int) (bool, error) {
	result, err := c.reserveScript.Run(ctx, c.rdb, []string{seatKey(eventID)}, quantity).Result()
	if err != nil {
		return false, fmt.Errorf("reserve seats script failed: %w", err)
	}

	status, ok := result.(int64)
	if !ok {
		return false, fmt.Errorf("unexpected script result type")
	}

	switch status {
	case 1:
		return true, nil
	case 0:
		return false, nil
	default:
		return false, ErrSeatsUnknown
	}
}

// ReleaseSeats atomically returns reserved seats (compensation)
func (c *Client) ReleaseSeats(ctx context.Context, eventID int64, quantity int) error {
	_, err := c.releaseScript.Run(ctx, c.rdb, []string{seatKey(eventID)}, quantity).Result()
	if err != nil {
		return fmt.Errorf("release seats script failed: %w", err)
	}
	return nil
}

// InitSeats sets the seat counter for an event
func (c *Client) InitSeats(ctx context.Context, eventID int64, available int) error {
	return c.rdb.Set(ctx, seatKey(eventID), available, 0).Err()
}

// GetSeats retrieves the current seat counter for an event
func (c *Client) GetSeats(ctx context.Context, eventID int64) (int, error) {
	available, err := c.rdb.Get(ctx, seatKey(eventID)).Int()
	if err == redis.Nil {
		return 0, ErrSeatsUnknown
	}
	return available, err
}

// DeleteSeats removes the counter for a deleted event
func (c *Client) DeleteSeats(ctx context.Context, eventID int64) error {
	return c.rdb.Del(ctx, seatKey(eventID)).Err()
}

// SaveCheckoutSession stores a checkout session as JSON under a TTL.
// Every save refreshes the TTL so an active checkout does not expire
// mid-flow.
func (c *Client) SaveCheckoutSession(ctx context.Context, session *models.CheckoutSession, ttl time.Duration) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal checkout session: %w", err)
	}
	return c.rdb.Set(ctx, sessionKey(session.ID), data, ttl).Err()
}

// GetCheckoutSession retrieves a checkout session by ID
func (c *Client) GetCheckoutSession(ctx context.Context, id string) (*models.CheckoutSession, error) {
	data, err := c.rdb.Get(ctx, sessionKey(id)).Bytes()
	if err == redis.Nil {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}

	var session models.CheckoutSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal checkout session: %w", err)
	}
	return &session, nil
}

// DeleteCheckoutSession removes a checkout session
func (c *Client) DeleteCheckoutSession(ctx context.Context, id string) error {
	return c.rdb.Del(ctx, sessionKey(id)).Err()
}

// AcquireLock acquires a distributed lock
func (c *Client) AcquireLock(ctx context.Context, lockKey string, ttl time.Duration) (bool, error) {
	return c.rdb.SetNX(ctx, fmt.Sprintf("lock:%s", lockKey), "1", ttl).Result()
}

// ReleaseLock releases a distributed lock
func (c *Client) ReleaseLock(ctx context.Context, lockKey string) error {
	return c.rdb.Del(ctx, fmt.Sprintf("lock:%s", lockKey)).Err()
}
