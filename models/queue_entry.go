package models

import (
	"time"
)

// QueueEntry represents a user waiting to be paired.
// A row exists only while the user is searching and has no active match.
type QueueEntry struct {
	UserID    int64     `db:"user_id"`
	JoinedAt  time.Time `db:"joined_at"`
	UpdatedAt time.Time `db:"updated_at"`
}
