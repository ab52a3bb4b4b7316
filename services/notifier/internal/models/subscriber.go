package models

import (
	"time"
)

// Subscriber model for database (not shared with the mailbox API)
type Subscriber struct {
	Address      string    `db:"address"`
	SubscribedAt time.Time `db:"subscribed_at"`
}
