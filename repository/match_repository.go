package repository

import (
	"context"
	"fmt"

	"pairline/database"
	"pairline/models"

	"github.com/jackc/pgx/v5"
)

// MatchRepository implements the MatchRepository interface
type MatchRepository struct {
	q queryable
}

// NewMatchRepository creates a new match repository
func NewMatchRepository(db *database.DB) *MatchRepository {
	return &MatchRepository{q: db.Pool}
}

// newMatchRepositoryWithTx creates a new match repository with a transaction
func newMatchRepositoryWithTx(tx queryable) *MatchRepository {
	return &MatchRepository{q: tx}
}

// Create inserts a new active match between two users
func (r *MatchRepository) Create(ctx context.Context, userA, userB int64) (*models.Match, error) {
	query := `
		INSERT INTO matches (user_a, user_b)
		VALUES ($1, $2)
		RETURNING id, user_a, user_b, created_at, ended_at
	`

	var match models.Match
	err := r.q.QueryRow(ctx, query, userA, userB).Scan(
		&match.ID,
		&match.UserA,
		&match.UserB,
		&match.CreatedAt,
		&match.EndedAt,
	)

	if err != nil {
		return nil, fmt.Errorf("failed to create match for users %d and %d: %w", userA, userB, err)
	}

	return &match, nil
}

// GetByID retrieves a match by its ID, or nil
func (r *MatchRepository) GetByID(ctx context.Context, id int64) (*models.Match, error) {
	query := `
		SELECT id, user_a, user_b, created_at, ended_at
		FROM matches
		WHERE id = $1
	`

	var match models.Match
	err := r.q.QueryRow(ctx, query, id).Scan(
		&match.ID,
		&match.UserA,
		&match.UserB,
		&match.CreatedAt,
		&match.EndedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get match %d: %w", id, err)
	}

	return &match, nil
}

// GetActiveByUser returns the user's active match, or nil
func (r *MatchRepository) GetActiveByUser(ctx context.Context, userID int64) (*models.Match, error) {
	query := `
		SELECT id, user_a, user_b, created_at, ended_at
		FROM matches
		WHERE (user_a = $1 OR user_b = $1) AND ended_at IS NULL
	`

	var match models.Match
	err := r.q.QueryRow(ctx, query, userID).Scan(
		&match.ID,
		&match.UserA,
		&match.UserB,
		&match.CreatedAt,
		&match.EndedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active match for user %d: %w", userID, err)
	}

	return &match, nil
}

// End sets ended_at on the match if it is still unset. The guard in the
// WHERE clause makes concurrent enders race safely: exactly one of them
// performs the transition.
func (r *MatchRepository) End(ctx context.Context, matchID int64) (bool, error) {
	query := `
		UPDATE matches
		SET ended_at = now()
		WHERE id = $1 AND ended_at IS NULL
	`

	result, err := r.q.Exec(ctx, query, matchID)
	if err != nil {
		return false, fmt.Errorf("failed to end match %d: %w", matchID, err)
	}

	return result.RowsAffected() > 0, nil
}

// EndActiveByUser ends the user's active match if one exists and returns
// it, or nil when the user has none
func (r *MatchRepository) EndActiveByUser(ctx context.Context, userID int64) (*models.Match, error) {
	query := `
		UPDATE matches
		SET ended_at = now()
		WHERE (user_a = $1 OR user_b = $1) AND ended_at IS NULL
		RETURNING id, user_a, user_b, created_at, ended_at
	`

	var match models.Match
	err := r.q.QueryRow(ctx, query, userID).Scan(
		&match.ID,
		&match.UserA,
		&match.UserB,
		&match.CreatedAt,
		&match.EndedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to end active match for user %d: %w", userID, err)
	}

	return &match, nil
}
