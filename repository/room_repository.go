package repository

import (
	"context"
	"fmt"
	"time"

	"pairline/database"
	"pairline/models"

	"github.com/jackc/pgx/v5"
)

// RoomRepository implements the RoomRepository interface
type RoomRepository struct {
	q queryable
}

// NewRoomRepository creates a new room repository
func NewRoomRepository(db *database.DB) *RoomRepository {
	return &RoomRepository{q: db.Pool}
}

// newRoomRepositoryWithTx creates a new room repository with a transaction
func newRoomRepositoryWithTx(tx queryable) *RoomRepository {
	return &RoomRepository{q: tx}
}

// Create inserts a new room and fills in its generated fields
func (r *RoomRepository) Create(ctx context.Context, room *models.Room) error {
	query := `
		INSERT INTO rooms (name, host_id, private, max_members)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query, room.Name, room.HostID, room.Private, room.MaxMembers).Scan(
		&room.ID,
		&room.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create room %q: %w", room.Name, err)
	}

	return nil
}

// GetByID retrieves a room by its ID, or nil
func (r *RoomRepository) GetByID(ctx context.Context, id int64) (*models.Room, error) {
	query := `
		SELECT id, name, host_id, private, max_members, created_at
		FROM rooms
		WHERE id = $1
	`

	var room models.Room
	err := r.q.QueryRow(ctx, query, id).Scan(
		&room.ID,
		&room.Name,
		&room.HostID,
		&room.Private,
		&room.MaxMembers,
		&room.CreatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get room %d: %w", id, err)
	}

	return &room, nil
}

// UpsertParticipant adds the user to the room or refreshes last_seen.
// GREATEST keeps last_seen monotonically non-decreasing even if a delayed
// write carries an older clock reading.
func (r *RoomRepository) UpsertParticipant(ctx context.Context, roomID, userID int64) error {
	query := `
		INSERT INTO room_participants (room_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (room_id, user_id) DO UPDATE SET
			last_seen = GREATEST(room_participants.last_seen, now())
	`

	if _, err := r.q.Exec(ctx, query, roomID, userID); err != nil {
		return fmt.Errorf("failed to upsert participant %d in room %d: %w", userID, roomID, err)
	}

	return nil
}

// TouchParticipant refreshes last_seen for an existing member, reporting
// whether a membership row was updated
func (r *RoomRepository) TouchParticipant(ctx context.Context, roomID, userID int64) (bool, error) {
	query := `
		UPDATE room_participants
		SET last_seen = GREATEST(last_seen, now())
		WHERE room_id = $1 AND user_id = $2
	`

	result, err := r.q.Exec(ctx, query, roomID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to touch participant %d in room %d: %w", userID, roomID, err)
	}

	return result.RowsAffected() > 0, nil
}

// RemoveParticipant deletes the membership row, reporting whether one existed
func (r *RoomRepository) RemoveParticipant(ctx context.Context, roomID, userID int64) (bool, error) {
	query := `
		DELETE FROM room_participants
		WHERE room_id = $1 AND user_id = $2
	`

	result, err := r.q.Exec(ctx, query, roomID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to remove participant %d from room %d: %w", userID, roomID, err)
	}

	return result.RowsAffected() > 0, nil
}

// CountActive counts members whose last_seen is at or after the cutoff
func (r *RoomRepository) CountActive(ctx context.Context, roomID int64, cutoff time.Time) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM room_participants
		WHERE room_id = $1 AND last_seen >= $2
	`

	var count int
	if err := r.q.QueryRow(ctx, query, roomID, cutoff).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count active members of room %d: %w", roomID, err)
	}

	return count, nil
}

// ListSummaries returns every room with counts derived from the cutoff and
// a sample of the most-recently-seen active members. Members who stopped
// refreshing simply fall out of active_count; their rows stay for
// member_count.
func (r *RoomRepository) ListSummaries(ctx context.Context, cutoff time.Time, sampleSize int) ([]*models.RoomSummary, error) {
	query := `
		SELECT
			r.id, r.name, r.host_id, r.private, r.max_members, r.created_at,
			COALESCE(a.active_count, 0) AS active_count,
			COALESCE(m.member_count, 0) AS member_count,
			COALESCE(s.sample, '{}') AS sample
		FROM rooms r
		LEFT JOIN LATERAL (
			SELECT COUNT(*) AS active_count
			FROM room_participants p
			WHERE p.room_id = r.id AND p.last_seen >= $1
		) a ON TRUE
		LEFT JOIN LATERAL (
			SELECT COUNT(*) AS member_count
			FROM room_participants p
			WHERE p.room_id = r.id
		) m ON TRUE
		LEFT JOIN LATERAL (
			SELECT ARRAY(
				SELECT p.user_id
				FROM room_participants p
				WHERE p.room_id = r.id AND p.last_seen >= $1
				ORDER BY p.last_seen DESC
				LIMIT $2
			) AS sample
		) s ON TRUE
		ORDER BY COALESCE(a.active_count, 0) DESC, r.created_at DESC
	`

	rows, err := r.q.Query(ctx, query, cutoff, sampleSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list room summaries: %w", err)
	}
	defer rows.Close()

	var summaries []*models.RoomSummary
	for rows.Next() {
		var s models.RoomSummary
		err := rows.Scan(
			&s.Room.ID,
			&s.Room.Name,
			&s.Room.HostID,
			&s.Room.Private,
			&s.Room.MaxMembers,
			&s.Room.CreatedAt,
			&s.ActiveCount,
			&s.MemberCount,
			&s.ActiveSample,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan room summary: %w", err)
		}
		summaries = append(summaries, &s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate room summaries: %w", err)
	}

	return summaries, nil
}
