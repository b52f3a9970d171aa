package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// Location represents the geographic position of a project site
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"address,omitempty"`
}

// Road summarises a road near the project site
type Road struct {
	Name           string   `json:"name,omitempty"`
	Type           string   `json:"type,omitempty"` // OSM highway tag, e.g. "residential", "primary"
	DistanceMeters float64  `json:"distance_meters"`
	WidthMeters    *float64 `json:"width_meters,omitempty"`
}

// NearbyRoads represents the road summary for a site
type NearbyRoads []Road

// Value implements driver.Valuer for JSONB
func (n NearbyRoads) Value() (driver.Value, error) {
	if n == nil {
		return nil, nil
	}
	return json.Marshal(n)
}

// Scan implements sql.Scanner for JSONB
func (n *NearbyRoads) Scan(value interface{}) error {
	bytes, ok := jsonBytes(value)
	if !ok {
		*n = nil
		return nil
	}
	return json.Unmarshal(bytes, n)
}

// ProjectMetrics holds the extracted features of a construction project.
// Every field is optional; rules skip themselves when their inputs are absent.
type ProjectMetrics struct {
	ProjectID             string      `json:"project_id"`
	SiteArea              *float64    `json:"site_area,omitempty"`               // m²
	BuildingArea          *float64    `json:"building_area,omitempty"`           // m², footprint
	TotalFloorArea        *float64    `json:"total_floor_area,omitempty"`        // m², all floors
	BuildingCoverageRatio *float64    `json:"building_coverage_ratio,omitempty"` // percent
	FloorAreaRatio        *float64    `json:"floor_area_ratio,omitempty"`        // percent
	Floors                *int        `json:"floors,omitempty"`
	Zone                  string      `json:"zone,omitempty"`
	Location              *Location   `json:"location,omitempty"`
	NearbyRoads           NearbyRoads `json:"nearby_roads,omitempty"`
	Materials             []string    `json:"materials,omitempty"`
	DocumentText          string      `json:"document_text,omitempty"`
	UpdatedAt             time.Time   `json:"updated_at"`
}

// HasAnyMetric reports whether at least one evaluable field is present
func (m *ProjectMetrics) HasAnyMetric() bool {
	if m == nil {
		return false
	}
	return m.SiteArea != nil || m.BuildingArea != nil || m.TotalFloorArea != nil ||
		m.BuildingCoverageRatio != nil || m.FloorAreaRatio != nil ||
		m.Location != nil || len(m.NearbyRoads) > 0 || m.DocumentText != ""
}
