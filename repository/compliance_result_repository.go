package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/hafidzyami/CivilConstructionApp-sub000/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when no row matches a key
var ErrNotFound = errors.New("record not found")

// ComplianceResultRepository handles database operations for compliance results
type ComplianceResultRepository struct {
	db *pgxpool.Pool
}

// NewComplianceResultRepository creates a new compliance result repository
func NewComplianceResultRepository(db *pgxpool.Pool) *ComplianceResultRepository {
	return &ComplianceResultRepository{db: db}
}

// Upsert stores result, replacing any prior result for the same project.
// The first evaluation's id and created_at are kept.
func (r *ComplianceResultRepository) Upsert(ctx context.Context, result *models.ComplianceResult) error {
	if result.ID == uuid.Nil {
		result.ID = uuid.New()
	}
	recommendations := result.Recommendations
	if recommendations == nil {
		recommendations = []string{}
	}

	query := `
		INSERT INTO compliance_results (
			id, project_id, checks, score, status, summary,
			cited_regulations, recommendations
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (project_id) DO UPDATE SET
			checks = EXCLUDED.checks,
			score = EXCLUDED.score,
			status = EXCLUDED.status,
			summary = EXCLUDED.summary,
			cited_regulations = EXCLUDED.cited_regulations,
			recommendations = EXCLUDED.recommendations,
			updated_at = NOW()
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(
		ctx, query,
		result.ID,
		result.ProjectID,
		result.Checks,
		result.Score,
		result.Status,
		result.Summary,
		result.CitedRegulations,
		recommendations,
	).Scan(&result.ID, &result.CreatedAt, &result.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert compliance result: %w", err)
	}
	return nil
}

// GetByProjectID retrieves the current result for a project
func (r *ComplianceResultRepository) GetByProjectID(ctx context.Context, projectID string) (*models.ComplianceResult, error) {
	result := &models.ComplianceResult{}
	query := `
		SELECT id, project_id, checks, score, status, summary,
			cited_regulations, recommendations, created_at, updated_at
		FROM compliance_results
		WHERE project_id = $1`

	err := r.db.QueryRow(ctx, query, projectID).Scan(
		&result.ID,
		&result.ProjectID,
		&result.Checks,
		&result.Score,
		&result.Status,
		&result.Summary,
		&result.CitedRegulations,
		&result.Recommendations,
		&result.CreatedAt,
		&result.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get compliance result: %w", err)
	}

	if result.Checks == nil {
		result.Checks = make(models.ComplianceChecks, 0)
	}
	if result.Recommendations == nil {
		result.Recommendations = []string{}
	}
	return result, nil
}

// Delete removes the result for a project
func (r *ComplianceResultRepository) Delete(ctx context.Context, projectID string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM compliance_results WHERE project_id = $1`, projectID)
	if err != nil {
		return fmt.Errorf("failed to delete compliance result: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
