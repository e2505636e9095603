package repository

import (
	"context"
	"fmt"

	"pairline/database"
	"pairline/models"
)

// BanRepository implements the BanRepository interface
type BanRepository struct {
	q queryable
}

// NewBanRepository creates a new ban repository
func NewBanRepository(db *database.DB) *BanRepository {
	return &BanRepository{q: db.Pool}
}

// newBanRepositoryWithTx creates a new ban repository with a transaction
func newBanRepositoryWithTx(tx queryable) *BanRepository {
	return &BanRepository{q: tx}
}

// Create inserts a new ban and fills in its generated fields
func (r *BanRepository) Create(ctx context.Context, ban *models.Ban) error {
	query := `
		INSERT INTO bans (scope, target_user_id, target_value, reason, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query, ban.Scope, ban.TargetUserID, ban.TargetValue, ban.Reason, ban.ExpiresAt).Scan(
		&ban.ID,
		&ban.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create %s-scope ban: %w", ban.Scope, err)
	}

	return nil
}

// RevokeUserBans sets revoked_at on all effective user-scope bans for the
// target, returning how many were revoked. Already-revoked and expired
// bans are left untouched so the audit trail shows how each ban ended.
func (r *BanRepository) RevokeUserBans(ctx context.Context, targetUserID int64) (int64, error) {
	query := `
		UPDATE bans
		SET revoked_at = now()
		WHERE scope = 'user'
		  AND target_user_id = $1
		  AND revoked_at IS NULL
		  AND (expires_at IS NULL OR expires_at > now())
	`

	result, err := r.q.Exec(ctx, query, targetUserID)
	if err != nil {
		return 0, fmt.Errorf("failed to revoke bans for user %d: %w", targetUserID, err)
	}

	return result.RowsAffected(), nil
}

// HasEffective reports whether an effective ban exists for the target.
// Effectiveness is purely the stored timestamps: not revoked, and not past
// expiry if one is set. User-scope bans match on targetUserID; ip/hwid
// bans match targetValue by literal equality.
func (r *BanRepository) HasEffective(ctx context.Context, scope models.BanScope, targetUserID int64, targetValue string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM bans
			WHERE scope = $1
			  AND (
				($1 = 'user' AND target_user_id = $2)
				OR ($1 <> 'user' AND target_value = $3)
			  )
			  AND revoked_at IS NULL
			  AND (expires_at IS NULL OR expires_at > now())
		)
	`

	var exists bool
	if err := r.q.QueryRow(ctx, query, scope, targetUserID, targetValue).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check %s-scope ban: %w", scope, err)
	}

	return exists, nil
}

// GetByTargetUser returns all bans ever issued against a user, newest first
func (r *BanRepository) GetByTargetUser(ctx context.Context, targetUserID int64) ([]*models.Ban, error) {
	query := `
		SELECT id, scope, target_user_id, target_value, reason, created_at, expires_at, revoked_at
		FROM bans
		WHERE scope = 'user' AND target_user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.q.Query(ctx, query, targetUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get bans for user %d: %w", targetUserID, err)
	}
	defer rows.Close()

	var bans []*models.Ban
	for rows.Next() {
		var ban models.Ban
		err := rows.Scan(
			&ban.ID,
			&ban.Scope,
			&ban.TargetUserID,
			&ban.TargetValue,
			&ban.Reason,
			&ban.CreatedAt,
			&ban.ExpiresAt,
			&ban.RevokedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ban: %w", err)
		}
		bans = append(bans, &ban)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bans: %w", err)
	}

	return bans, nil
}
