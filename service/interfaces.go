package service

import (
	"context"
	"time"

	"pairline/auth"
	"pairline/events"
	"pairline/models"
)

// QueueRepository defines the interface for matchmaking queue data access
type QueueRepository interface {
	// Upsert inserts the user into the queue or refreshes updated_at
	Upsert(ctx context.Context, userID int64) error

	// Remove deletes the user's queue entry, reporting whether one existed
	Remove(ctx context.Context, userID int64) (bool, error)

	// PruneStale deletes entries whose updated_at is older than the cutoff
	PruneStale(ctx context.Context, cutoff time.Time) (int64, error)

	// ClaimOldest locks and returns the oldest queue entry not belonging to
	// excludeUserID, skipping rows already claimed by concurrent
	// transactions. Returns nil when no claimable entry exists.
	ClaimOldest(ctx context.Context, excludeUserID int64) (*models.QueueEntry, error)
}

// MatchRepository defines the interface for match data access
type MatchRepository interface {
	// Create inserts a new active match between two users
	Create(ctx context.Context, userA, userB int64) (*models.Match, error)

	// GetByID retrieves a match by its ID
	GetByID(ctx context.Context, id int64) (*models.Match, error)

	// GetActiveByUser returns the user's active match, or nil
	GetActiveByUser(ctx context.Context, userID int64) (*models.Match, error)

	// End sets ended_at on the match if unset, reporting whether this call
	// performed the transition
	End(ctx context.Context, matchID int64) (bool, error)

	// EndActiveByUser ends the user's active match if one exists and
	// returns it, or nil when the user has none
	EndActiveByUser(ctx context.Context, userID int64) (*models.Match, error)
}

// RoomRepository defines the interface for room and presence data access
type RoomRepository interface {
	// Create inserts a new room and fills in its generated fields
	Create(ctx context.Context, room *models.Room) error

	// GetByID retrieves a room by its ID, or nil
	GetByID(ctx context.Context, id int64) (*models.Room, error)

	// UpsertParticipant adds the user to the room or refreshes last_seen
	UpsertParticipant(ctx context.Context, roomID, userID int64) error

	// TouchParticipant refreshes last_seen for an existing member,
	// reporting whether a membership row was updated
	TouchParticipant(ctx context.Context, roomID, userID int64) (bool, error)

	// RemoveParticipant deletes the membership row, reporting whether one existed
	RemoveParticipant(ctx context.Context, roomID, userID int64) (bool, error)

	// CountActive counts members whose last_seen is at or after the cutoff
	CountActive(ctx context.Context, roomID int64, cutoff time.Time) (int, error)

	// ListSummaries returns every room with counts derived from the cutoff
	// and a sample of up to sampleSize most-recently-seen active members,
	// ordered by active count descending then creation time descending
	ListSummaries(ctx context.Context, cutoff time.Time, sampleSize int) ([]*models.RoomSummary, error)
}

// BanRepository defines the interface for ban data access
type BanRepository interface {
	// Create inserts a new ban and fills in its generated fields
	Create(ctx context.Context, ban *models.Ban) error

	// RevokeUserBans sets revoked_at on all effective user-scope bans for
	// the target, returning how many were revoked
	RevokeUserBans(ctx context.Context, targetUserID int64) (int64, error)

	// HasEffective reports whether an effective ban exists for the target.
	// User-scope bans match on targetUserID, ip/hwid bans on targetValue.
	HasEffective(ctx context.Context, scope models.BanScope, targetUserID int64, targetValue string) (bool, error)
}

// ReportRepository defines the interface for the append-only report log
type ReportRepository interface {
	// Create appends a new report
	Create(ctx context.Context, report *models.Report) error

	// GetByTarget returns the most recent reports against a user
	GetByTarget(ctx context.Context, targetID int64, limit int) ([]*models.Report, error)
}

// AdminCodeRepository defines the interface for invite code data access
type AdminCodeRepository interface {
	// CreateBatch inserts a batch of freshly generated codes
	CreateBatch(ctx context.Context, codes []*models.AdminCode) error
}

// EventPublisher publishes events that are held until the transaction commits
type EventPublisher interface {
	Publish(event events.Event)
}

// UnitOfWork represents a single transaction across all repositories
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction and flushes pending events
	Commit() error

	// Rollback rolls back the transaction; a no-op after Commit
	Rollback() error

	QueueRepository() QueueRepository
	MatchRepository() MatchRepository
	RoomRepository() RoomRepository
	BanRepository() BanRepository
	ReportRepository() ReportRepository
	AdminCodeRepository() AdminCodeRepository

	// EventBus returns the transactional event publisher for this unit of work
	EventBus() EventPublisher
}

// UnitOfWorkFactory creates units of work
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// MatchmakerService pairs users from the wait queue and owns match lifecycle
type MatchmakerService interface {
	// FindMatch returns the caller's active match, pairs the caller with
	// the oldest waiting user, or enqueues the caller. A nil result with a
	// nil error means the caller is now waiting.
	FindMatch(ctx context.Context, caller auth.Caller) (*models.MatchResult, error)

	// StopSearch removes the caller from the queue; a no-op if absent
	StopSearch(ctx context.Context, caller auth.Caller) error

	// EndMatch ends a match the caller participates in; ending an
	// already-ended match is a successful no-op
	EndMatch(ctx context.Context, caller auth.Caller, matchID int64) error
}

// PresenceService tracks room membership and window-derived liveness
type PresenceService interface {
	// CreateRoom creates a room hosted by the caller; the host joins it
	CreateRoom(ctx context.Context, caller auth.Caller, name string, private bool, maxMembers int) (*models.Room, error)

	// JoinRoom adds the caller to the room
	JoinRoom(ctx context.Context, caller auth.Caller, roomID int64) error

	// TouchPresence refreshes the caller's heartbeat; silently no-ops when
	// the caller is not a member
	TouchPresence(ctx context.Context, caller auth.Caller, roomID int64) error

	// LeaveRoom removes the caller from the room; a no-op if absent
	LeaveRoom(ctx context.Context, caller auth.Caller, roomID int64) error

	// ListRooms returns all rooms with counts derived from the active window
	ListRooms(ctx context.Context) ([]*models.RoomSummary, error)
}

// ModerationService issues and revokes bans, force-ends matches, records
// reports, and mints invite codes
type ModerationService interface {
	// Ban records a ban against the target. durationSeconds <= 0 makes the
	// ban permanent. Requires an elevated caller.
	Ban(ctx context.Context, caller auth.Caller, scope models.BanScope, targetUserID int64, targetValue, reason string, durationSeconds int64) error

	// Unban revokes all effective user-scope bans for the target; not an
	// error when none exist. Requires an elevated caller.
	Unban(ctx context.Context, caller auth.Caller, targetUserID int64) error

	// IsBanned reports whether an effective ban exists for the target
	IsBanned(ctx context.Context, scope models.BanScope, targetUserID int64, targetValue string) (bool, error)

	// EndMatchForUser force-ends the target's active match, returning
	// whether one existed. Requires an elevated caller.
	EndMatchForUser(ctx context.Context, caller auth.Caller, targetUserID int64) (bool, error)

	// GenerateCodes mints count opaque invite codes bound to a role.
	// Requires an elevated caller.
	GenerateCodes(ctx context.Context, caller auth.Caller, count int, role string, maxUses int, note string) ([]string, error)

	// Report appends a report filed by the caller against the target
	Report(ctx context.Context, caller auth.Caller, targetID int64, reportContext, reason string, details *string) error

	// RecentReports returns the newest reports filed against the target,
	// feeding ban decisions. Requires an elevated caller.
	RecentReports(ctx context.Context, caller auth.Caller, targetID int64, limit int) ([]*models.Report, error)
}
