package models

import (
	"time"
)

// Room represents a group video room
type Room struct {
	ID         int64     `db:"id" json:"id"`
	Name       string    `db:"name" json:"name"`
	HostID     int64     `db:"host_id" json:"hostId"`
	Private    bool      `db:"private" json:"private"`
	MaxMembers int       `db:"max_members" json:"maxMembers"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}

// RoomParticipant represents a user's membership in a room.
// LastSeen is monotonically non-decreasing per row; whether the member
// counts as active is derived from it at read time, never stored.
type RoomParticipant struct {
	RoomID   int64     `db:"room_id"`
	UserID   int64     `db:"user_id"`
	JoinedAt time.Time `db:"joined_at"`
	LastSeen time.Time `db:"last_seen"`
}

// RoomSummary is the read model returned by room listing: the room row plus
// counts derived from the trailing activity window.
type RoomSummary struct {
	Room         Room    `json:"room"`
	ActiveCount  int     `json:"activeCount"`
	MemberCount  int     `json:"memberCount"`
	ActiveSample []int64 `json:"activeSample"`
}
