package repository

import (
	"context"
	"fmt"

	"pairline/database"
	"pairline/models"
)

// AdminCodeRepository implements the AdminCodeRepository interface
type AdminCodeRepository struct {
	q queryable
}

// NewAdminCodeRepository creates a new admin code repository
func NewAdminCodeRepository(db *database.DB) *AdminCodeRepository {
	return &AdminCodeRepository{q: db.Pool}
}

// newAdminCodeRepositoryWithTx creates a new admin code repository with a transaction
func newAdminCodeRepositoryWithTx(tx queryable) *AdminCodeRepository {
	return &AdminCodeRepository{q: tx}
}

// CreateBatch inserts a batch of freshly generated codes
func (r *AdminCodeRepository) CreateBatch(ctx context.Context, codes []*models.AdminCode) error {
	query := `
		INSERT INTO admin_codes (code, role, max_uses, note)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`

	for _, code := range codes {
		err := r.q.QueryRow(ctx, query, code.Code, code.Role, code.MaxUses, code.Note).Scan(&code.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to create admin code: %w", err)
		}
	}

	return nil
}
