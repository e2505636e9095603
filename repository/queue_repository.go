package repository

import (
	"context"
	"fmt"
	"time"

	"pairline/database"
	"pairline/models"

	"github.com/jackc/pgx/v5"
)

// QueueRepository implements the QueueRepository interface
type QueueRepository struct {
	q queryable
}

// NewQueueRepository creates a new queue repository
func NewQueueRepository(db *database.DB) *QueueRepository {
	return &QueueRepository{q: db.Pool}
}

// newQueueRepositoryWithTx creates a new queue repository with a transaction
func newQueueRepositoryWithTx(tx queryable) *QueueRepository {
	return &QueueRepository{q: tx}
}

// Upsert inserts the user into the queue or refreshes updated_at.
// joined_at is preserved on conflict so FIFO position survives refreshes.
func (r *QueueRepository) Upsert(ctx context.Context, userID int64) error {
	query := `
		INSERT INTO queue_entries (user_id)
		VALUES ($1)
		ON CONFLICT (user_id) DO UPDATE SET updated_at = now()
	`

	if _, err := r.q.Exec(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to upsert queue entry for user %d: %w", userID, err)
	}

	return nil
}

// Remove deletes the user's queue entry, reporting whether one existed
func (r *QueueRepository) Remove(ctx context.Context, userID int64) (bool, error) {
	result, err := r.q.Exec(ctx, `DELETE FROM queue_entries WHERE user_id = $1`, userID)
	if err != nil {
		return false, fmt.Errorf("failed to remove queue entry for user %d: %w", userID, err)
	}

	return result.RowsAffected() > 0, nil
}

// PruneStale deletes entries whose updated_at is older than the cutoff
func (r *QueueRepository) PruneStale(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.q.Exec(ctx, `DELETE FROM queue_entries WHERE updated_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune stale queue entries: %w", err)
	}

	return result.RowsAffected(), nil
}

// ClaimOldest locks and returns the oldest queue entry not belonging to
// excludeUserID. SKIP LOCKED makes a concurrent claimer pass over a row
// that is already being claimed instead of blocking on it, so two finders
// can never pair with the same partner and no circular wait can form.
// Returns nil when no claimable entry exists.
func (r *QueueRepository) ClaimOldest(ctx context.Context, excludeUserID int64) (*models.QueueEntry, error) {
	query := `
		SELECT user_id, joined_at, updated_at
		FROM queue_entries
		WHERE user_id <> $1
		ORDER BY joined_at ASC
		LIMIT 1
		FOR UPDATE SKIP LOCKED
	`

	var entry models.QueueEntry
	err := r.q.QueryRow(ctx, query, excludeUserID).Scan(
		&entry.UserID,
		&entry.JoinedAt,
		&entry.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to claim queue entry: %w", err)
	}

	return &entry, nil
}

// GetByUser retrieves the user's queue entry, or nil
func (r *QueueRepository) GetByUser(ctx context.Context, userID int64) (*models.QueueEntry, error) {
	query := `
		SELECT user_id, joined_at, updated_at
		FROM queue_entries
		WHERE user_id = $1
	`

	var entry models.QueueEntry
	err := r.q.QueryRow(ctx, query, userID).Scan(
		&entry.UserID,
		&entry.JoinedAt,
		&entry.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get queue entry for user %d: %w", userID, err)
	}

	return &entry, nil
}
