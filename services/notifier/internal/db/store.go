package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stoik/launchwatch/services/notifier/internal/models"
	"github.com/stoik/launchwatch/services/notifier/internal/subscription"
)

// SubscriberStore is a subscription.Store persisted in Postgres.
type SubscriberStore struct {
	pool *pgxpool.Pool
}

func NewSubscriberStore(pool *pgxpool.Pool) *SubscriberStore {
	return &SubscriberStore{pool: pool}
}

func (s *SubscriberStore) Add(ctx context.Context, address string) error {
	addr, err := subscription.Normalize(address)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO subscribers (address)
		VALUES ($1)
		ON CONFLICT (address)
		DO NOTHING
	`
	if _, err := s.pool.Exec(ctx, query, addr); err != nil {
		return fmt.Errorf("failed to add subscriber: %w", err)
	}
	return nil
}

func (s *SubscriberStore) Remove(ctx context.Context, address string) error {
	addr, err := subscription.Normalize(address)
	if err != nil {
		return err
	}

	if _, err := s.pool.Exec(ctx, "DELETE FROM subscribers WHERE address = $1", addr); err != nil {
		return fmt.Errorf("failed to remove subscriber: %w", err)
	}
	return nil
}

func (s *SubscriberStore) List(ctx context.Context) ([]string, error) {
	subs, err := s.Subscribers(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(subs))
	for _, sub := range subs {
		out = append(out, sub.Address)
	}
	return out, nil
}

// Subscribers returns every subscriber row ordered by address.
func (s *SubscriberStore) Subscribers(ctx context.Context) ([]models.Subscriber, error) {
	rows, err := s.pool.Query(ctx, `SELECT address, subscribed_at FROM subscribers ORDER BY address`)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscribers: %w", err)
	}
	defer rows.Close()

	var subs []models.Subscriber
	for rows.Next() {
		var sub models.Subscriber
		if err := rows.Scan(&sub.Address, &sub.SubscribedAt); err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}

	return subs, rows.Err()
}

// Seeded reports whether the configured receivers were seeded before.
func (s *SubscriberStore) Seeded(ctx context.Context) (bool, error) {
	var seeded bool
	if err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM subscriber_seed)`).Scan(&seeded); err != nil {
		return false, fmt.Errorf("failed to read seed marker: %w", err)
	}
	return seeded, nil
}

func (s *SubscriberStore) MarkSeeded(ctx context.Context) error {
	query := `
		INSERT INTO subscriber_seed (singleton)
		VALUES (TRUE)
		ON CONFLICT (singleton)
		DO NOTHING
	`
	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to write seed marker: %w", err)
	}
	return nil
}

// CursorStore is a subscription.Cursor persisted in Postgres, keyed by mailbox,
// so a restart does not reprocess the newest command.
type CursorStore struct {
	pool    *pgxpool.Pool
	mailbox string
}

func NewCursorStore(pool *pgxpool.Pool, mailbox string) *CursorStore {
	return &CursorStore{pool: pool, mailbox: mailbox}
}

func (c *CursorStore) Load(ctx context.Context) (time.Time, error) {
	var last time.Time
	err := c.pool.QueryRow(ctx,
		"SELECT last_received_at FROM inbox_cursor WHERE mailbox = $1", c.mailbox,
	).Scan(&last)
	if errors.Is(err, pgx.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to load cursor: %w", err)
	}
	return last, nil
}

func (c *CursorStore) Save(ctx context.Context, receivedAt time.Time) error {
	_, err := c.pool.Exec(ctx, `
		INSERT INTO inbox_cursor (mailbox, last_received_at)
		VALUES ($1, $2)
		ON CONFLICT (mailbox)
		DO UPDATE SET last_received_at = EXCLUDED.last_received_at
	`, c.mailbox, receivedAt)
	if err != nil {
		return fmt.Errorf("failed to save cursor: %w", err)
	}
	return nil
}
