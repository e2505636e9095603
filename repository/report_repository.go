package repository

import (
	"context"
	"fmt"

	"pairline/database"
	"pairline/models"
)

// ReportRepository implements the ReportRepository interface
type ReportRepository struct {
	q queryable
}

// NewReportRepository creates a new report repository
func NewReportRepository(db *database.DB) *ReportRepository {
	return &ReportRepository{q: db.Pool}
}

// newReportRepositoryWithTx creates a new report repository with a transaction
func newReportRepositoryWithTx(tx queryable) *ReportRepository {
	return &ReportRepository{q: tx}
}

// Create appends a new report
func (r *ReportRepository) Create(ctx context.Context, report *models.Report) error {
	query := `
		INSERT INTO reports (reporter_id, target_id, context, reason, details)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query, report.ReporterID, report.TargetID, report.Context, report.Reason, report.Details).Scan(
		&report.ID,
		&report.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create report against user %d: %w", report.TargetID, err)
	}

	return nil
}

// GetByTarget returns the most recent reports against a user
func (r *ReportRepository) GetByTarget(ctx context.Context, targetID int64, limit int) ([]*models.Report, error) {
	query := `
		SELECT id, reporter_id, target_id, context, reason, details, created_at
		FROM reports
		WHERE target_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, targetID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get reports for user %d: %w", targetID, err)
	}
	defer rows.Close()

	var reports []*models.Report
	for rows.Next() {
		var report models.Report
		err := rows.Scan(
			&report.ID,
			&report.ReporterID,
			&report.TargetID,
			&report.Context,
			&report.Reason,
			&report.Details,
			&report.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		reports = append(reports, &report)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reports: %w", err)
	}

	return reports, nil
}
