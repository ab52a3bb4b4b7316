package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const migrationSQL = `
	-- Recipient addresses (set semantics)
	CREATE TABLE IF NOT EXISTS subscribers (
	    address VARCHAR(320) PRIMARY KEY,
	    subscribed_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now()
	);

	-- Single row written once the configured receivers have been seeded
	CREATE TABLE IF NOT EXISTS subscriber_seed (
	    singleton BOOLEAN PRIMARY KEY DEFAULT TRUE CHECK (singleton),
	    seeded_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now()
	);

	-- Databases that already hold subscribers count as seeded
	INSERT INTO subscriber_seed (singleton)
	SELECT TRUE WHERE EXISTS (SELECT 1 FROM subscribers)
	ON CONFLICT (singleton) DO NOTHING;

	-- Last processed inbound message, one row per mailbox
	CREATE TABLE IF NOT EXISTS inbox_cursor (
	    mailbox VARCHAR(320) PRIMARY KEY,
	    last_received_at TIMESTAMP WITH TIME ZONE NOT NULL
	);
`

// Migrate creates the tables used by the subscriber store and the inbox cursor.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, migrationSQL); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}
