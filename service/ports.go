package service

import (
	"context"

	"github.com/hafidzyami/CivilConstructionApp-sub000/models"
)

// KnowledgeStore is the read side of the regulation graph.
// *repository.KnowledgeRepository implements it.
type KnowledgeStore interface {
	LookupArticle(ctx context.Context, ref string) ([]models.ArticleRecord, error)
	FullTextSearch(ctx context.Context, terms string, limit int) ([]models.ArticleRecord, error)
	VectorSearch(ctx context.Context, embedding []float32, topK int) ([]models.ArticleRecord, error)
	ExecuteQuery(ctx context.Context, query string) ([]models.ArticleRecord, error)
	ListRegulations(ctx context.Context) ([]models.Regulation, error)
}

// ComplianceResultStore persists one result per project.
// GetByProjectID returns repository.ErrNotFound when nothing is stored.
type ComplianceResultStore interface {
	Upsert(ctx context.Context, result *models.ComplianceResult) error
	GetByProjectID(ctx context.Context, projectID string) (*models.ComplianceResult, error)
}

// ProjectMetricsSource supplies extracted project features.
// GetByProjectID returns repository.ErrNotFound for an unknown project.
type ProjectMetricsSource interface {
	GetByProjectID(ctx context.Context, projectID string) (*models.ProjectMetrics, error)
}
