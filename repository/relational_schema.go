package repository

import (
	"context"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
)

// RelationalSchemaSQL creates the tables owned by the compliance engine
const RelationalSchemaSQL = `
CREATE TABLE IF NOT EXISTS compliance_results (
    id UUID PRIMARY KEY,
    project_id VARCHAR(255) NOT NULL UNIQUE,
    checks JSONB NOT NULL DEFAULT '[]'::jsonb,
    score INTEGER NOT NULL CHECK (score BETWEEN 0 AND 100),
    status VARCHAR(32) NOT NULL CHECK (status IN ('accepted', 'rejected', 'review_required')),
    summary TEXT NOT NULL DEFAULT '',
    cited_regulations JSONB NOT NULL DEFAULT '[]'::jsonb,
    recommendations TEXT[] NOT NULL DEFAULT '{}',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS project_metrics (
    project_id VARCHAR(255) PRIMARY KEY,
    site_area DOUBLE PRECISION,
    building_area DOUBLE PRECISION,
    total_floor_area DOUBLE PRECISION,
    building_coverage_ratio DOUBLE PRECISION,
    floor_area_ratio DOUBLE PRECISION,
    floors INTEGER,
    zone VARCHAR(100),
    latitude DOUBLE PRECISION,
    longitude DOUBLE PRECISION,
    address TEXT,
    nearby_roads JSONB,
    materials TEXT[],
    document_text TEXT,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_compliance_results_status ON compliance_results(status);
`

// CreateRelationalSchema creates the compliance tables if missing
func CreateRelationalSchema(ctx context.Context, db *pgxpool.Pool) error {
	if _, err := db.Exec(ctx, RelationalSchemaSQL); err != nil {
		return fmt.Errorf("failed to create relational schema: %w", err)
	}
	log.Println("✓ compliance_results and project_metrics tables ready")
	return nil
}
