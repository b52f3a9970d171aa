package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/hafidzyami/CivilConstructionApp-sub000/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ProjectMetricsRepository handles database operations for extracted project metrics
type ProjectMetricsRepository struct {
	db *pgxpool.Pool
}

// NewProjectMetricsRepository creates a new project metrics repository
func NewProjectMetricsRepository(db *pgxpool.Pool) *ProjectMetricsRepository {
	return &ProjectMetricsRepository{db: db}
}

// Save inserts or replaces the metrics of a project
func (r *ProjectMetricsRepository) Save(ctx context.Context, m *models.ProjectMetrics) error {
	var lat, lng *float64
	var address *string
	if m.Location != nil {
		lat, lng = &m.Location.Latitude, &m.Location.Longitude
		if m.Location.Address != "" {
			address = &m.Location.Address
		}
	}

	query := `
		INSERT INTO project_metrics (
			project_id, site_area, building_area, total_floor_area,
			building_coverage_ratio, floor_area_ratio, floors, zone,
			latitude, longitude, address, nearby_roads, materials, document_text
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (project_id) DO UPDATE SET
			site_area = EXCLUDED.site_area,
			building_area = EXCLUDED.building_area,
			total_floor_area = EXCLUDED.total_floor_area,
			building_coverage_ratio = EXCLUDED.building_coverage_ratio,
			floor_area_ratio = EXCLUDED.floor_area_ratio,
			floors = EXCLUDED.floors,
			zone = EXCLUDED.zone,
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			address = EXCLUDED.address,
			nearby_roads = EXCLUDED.nearby_roads,
			materials = EXCLUDED.materials,
			document_text = EXCLUDED.document_text,
			updated_at = NOW()
		RETURNING updated_at`

	err := r.db.QueryRow(
		ctx, query,
		m.ProjectID,
		m.SiteArea,
		m.BuildingArea,
		m.TotalFloorArea,
		m.BuildingCoverageRatio,
		m.FloorAreaRatio,
		m.Floors,
		m.Zone,
		lat,
		lng,
		address,
		m.NearbyRoads,
		m.Materials,
		m.DocumentText,
	).Scan(&m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save project metrics: %w", err)
	}
	return nil
}

// GetByProjectID retrieves the metrics of a project
func (r *ProjectMetricsRepository) GetByProjectID(ctx context.Context, projectID string) (*models.ProjectMetrics, error) {
	m := &models.ProjectMetrics{}
	var lat, lng *float64
	var address, zone, documentText *string

	query := `
		SELECT project_id, site_area, building_area, total_floor_area,
			building_coverage_ratio, floor_area_ratio, floors, zone,
			latitude, longitude, address, nearby_roads, materials, document_text, updated_at
		FROM project_metrics
		WHERE project_id = $1`

	err := r.db.QueryRow(ctx, query, projectID).Scan(
		&m.ProjectID,
		&m.SiteArea,
		&m.BuildingArea,
		&m.TotalFloorArea,
		&m.BuildingCoverageRatio,
		&m.FloorAreaRatio,
		&m.Floors,
		&zone,
		&lat,
		&lng,
		&address,
		&m.NearbyRoads,
		&m.Materials,
		&documentText,
		&m.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project metrics: %w", err)
	}

	if zone != nil {
		m.Zone = *zone
	}
	if documentText != nil {
		m.DocumentText = *documentText
	}
	if lat != nil && lng != nil {
		m.Location = &models.Location{Latitude: *lat, Longitude: *lng}
		if address != nil {
			m.Location.Address = *address
		}
	}
	return m, nil
}
