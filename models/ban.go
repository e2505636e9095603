package models

import (
	"time"
)

// BanScope identifies what a ban matches against
type BanScope string

const (
	BanScopeUser BanScope = "user"
	BanScopeIP   BanScope = "ip"
	BanScopeHWID BanScope = "hwid"
)

// Valid reports whether the scope is one of the known values
func (s BanScope) Valid() bool {
	switch s {
	case BanScopeUser, BanScopeIP, BanScopeHWID:
		return true
	}
	return false
}

// Ban represents a moderation ban. User-scope bans carry TargetUserID;
// ip/hwid bans carry TargetValue compared by literal equality.
// Effectiveness is always computed from the timestamps, never stored.
type Ban struct {
	ID           int64      `db:"id"`
	Scope        BanScope   `db:"scope"`
	TargetUserID *int64     `db:"target_user_id"`
	TargetValue  *string    `db:"target_value"`
	Reason       string     `db:"reason"`
	CreatedAt    time.Time  `db:"created_at"`
	ExpiresAt    *time.Time `db:"expires_at"`
	RevokedAt    *time.Time `db:"revoked_at"`
}

// IsEffective reports whether the ban is enforceable at the given instant:
// not revoked, and not past its expiry if one is set.
func (b *Ban) IsEffective(now time.Time) bool {
	if b.RevokedAt != nil {
		return false
	}
	if b.ExpiresAt != nil && !b.ExpiresAt.After(now) {
		return false
	}
	return true
}
