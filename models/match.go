package models

import (
	"time"
)

// Match represents a pairing of two users into a video session
type Match struct {
	ID        int64      `db:"id"`
	UserA     int64      `db:"user_a"`
	UserB     int64      `db:"user_b"`
	CreatedAt time.Time  `db:"created_at"`
	EndedAt   *time.Time `db:"ended_at"`
}

// IsActive returns true while the match has not been ended
func (m *Match) IsActive() bool {
	return m.EndedAt == nil
}

// PartnerOf returns the other participant's ID, or 0 if userID is not a participant
func (m *Match) PartnerOf(userID int64) int64 {
	switch userID {
	case m.UserA:
		return m.UserB
	case m.UserB:
		return m.UserA
	default:
		return 0
	}
}

// HasParticipant reports whether userID is one of the two matched users
func (m *Match) HasParticipant(userID int64) bool {
	return m.UserA == userID || m.UserB == userID
}

// MatchResult is what a successful pairing returns to the caller.
// Created distinguishes a fresh pairing from an idempotent reconnect
// handing back an existing match.
type MatchResult struct {
	MatchID   int64 `json:"matchId"`
	PartnerID int64 `json:"partnerId"`
	Created   bool  `json:"created"`
}
