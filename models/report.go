package models

import (
	"time"
)

// Report represents a user-filed report against another user. Rows are
// append-only audit input for moderation actions.
type Report struct {
	ID         int64     `db:"id" json:"id"`
	ReporterID int64     `db:"reporter_id" json:"reporterId"`
	TargetID   int64     `db:"target_id" json:"targetId"`
	Context    string    `db:"context" json:"context"`
	Reason     string    `db:"reason" json:"reason"`
	Details    *string   `db:"details" json:"details,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}
