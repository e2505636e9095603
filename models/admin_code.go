package models

import (
	"time"
)

// AdminCode represents an opaque invite code bound to a role with a use cap.
// Redemption happens in the identity provider; this side only issues codes.
type AdminCode struct {
	Code      string    `db:"code"`
	Role      string    `db:"role"`
	MaxUses   int       `db:"max_uses"`
	Uses      int       `db:"uses"`
	Note      string    `db:"note"`
	CreatedAt time.Time `db:"created_at"`
}
