package service

import (
	"fmt"

	"github.com/hafidzyami/CivilConstructionApp-sub000/models"
)

// Fixed thresholds. They are not looked up per zone.
const (
	MaxBuildingCoverageRatio = 60.0  // percent
	MaxFloorAreaRatio        = 200.0 // percent
	MinSiteArea              = 60.0  // m²
	PermitFloorAreaThreshold = 100.0 // m²
	MaxRoadDistanceMeters    = 50.0
)

const (
	buildingActName       = "Building Act"
	enforcementDecreeName = "Enforcement Decree of the Building Act"
)

// ComplianceRule evaluates one project attribute. Evaluate returns nil when
// the rule's inputs are absent.
type ComplianceRule interface {
	Name() string
	Evaluate(m *models.ProjectMetrics) *models.ComplianceCheck
}

type ruleFunc struct {
	name string
	fn   func(m *models.ProjectMetrics) *models.ComplianceCheck
}

func (r ruleFunc) Name() string { return r.name }

func (r ruleFunc) Evaluate(m *models.ProjectMetrics) *models.ComplianceCheck { return r.fn(m) }

// DefaultRules returns the built-in rules in display order
func DefaultRules() []ComplianceRule {
	return []ComplianceRule{
		ruleFunc{name: "Building Coverage Ratio", fn: buildingCoverageRule},
		ruleFunc{name: "Floor Area Ratio", fn: floorAreaRatioRule},
		ruleFunc{name: "Minimum Site Area", fn: siteAreaRule},
		ruleFunc{name: "Building Permit", fn: permitRule},
		ruleFunc{name: "Road Access", fn: roadAccessRule},
	}
}

// RuleEngine runs independent rules in order
type RuleEngine struct {
	rules []ComplianceRule
}

// NewRuleEngine creates an engine; no rules means DefaultRules
func NewRuleEngine(rules ...ComplianceRule) *RuleEngine {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &RuleEngine{rules: rules}
}

// Evaluate returns one check per applicable rule, in rule order
func (e *RuleEngine) Evaluate(m *models.ProjectMetrics) []models.ComplianceCheck {
	checks := make([]models.ComplianceCheck, 0, len(e.rules))
	if m == nil {
		return checks
	}
	for _, r := range e.rules {
		if c := r.Evaluate(m); c != nil {
			if c.Name == "" {
				c.Name = r.Name()
			}
			c.Source = "rule"
			checks = append(checks, *c)
		}
	}
	return checks
}

func strPtr(s string) *string { return &s }

func percent(v float64) string { return fmt.Sprintf("%.1f%%", v) }

func squareMeters(v float64) string { return fmt.Sprintf("%.1f m²", v) }

func citation(regulation string, article int, title string) *models.Citation {
	return &models.Citation{
		Regulation: regulation,
		ArticleID:  models.ArticleIDFromNumber(fmt.Sprint(article)),
		Title:      title,
	}
}

// coverageRatio prefers the reported ratio, else derives it from the areas
func coverageRatio(m *models.ProjectMetrics) (float64, bool) {
	if m.BuildingCoverageRatio != nil {
		return *m.BuildingCoverageRatio, true
	}
	if m.BuildingArea != nil && m.SiteArea != nil && *m.SiteArea > 0 {
		return *m.BuildingArea / *m.SiteArea * 100, true
	}
	return 0, false
}

func floorAreaRatio(m *models.ProjectMetrics) (float64, bool) {
	if m.FloorAreaRatio != nil {
		return *m.FloorAreaRatio, true
	}
	if m.TotalFloorArea != nil && m.SiteArea != nil && *m.SiteArea > 0 {
		return *m.TotalFloorArea / *m.SiteArea * 100, true
	}
	return 0, false
}

func buildingCoverageRule(m *models.ProjectMetrics) *models.ComplianceCheck {
	ratio, ok := coverageRatio(m)
	if !ok {
		return nil
	}
	c := &models.ComplianceCheck{
		Actual:   strPtr(percent(ratio)),
		Required: strPtr("≤ " + percent(MaxBuildingCoverageRatio)),
		Citation: citation(buildingActName, 55, "Building Coverage Ratio"),
	}
	if ratio <= MaxBuildingCoverageRatio {
		c.Status = models.CheckPass
		c.Message = fmt.Sprintf("Building coverage ratio %s is within the %s limit.", percent(ratio), percent(MaxBuildingCoverageRatio))
	} else {
		c.Status = models.CheckFail
		c.Message = fmt.Sprintf("Building coverage ratio %s exceeds the %s limit.", percent(ratio), percent(MaxBuildingCoverageRatio))
	}
	return c
}

func floorAreaRatioRule(m *models.ProjectMetrics) *models.ComplianceCheck {
	ratio, ok := floorAreaRatio(m)
	if !ok {
		return nil
	}
	c := &models.ComplianceCheck{
		Actual:   strPtr(percent(ratio)),
		Required: strPtr("≤ " + percent(MaxFloorAreaRatio)),
		Citation: citation(buildingActName, 56, "Floor Area Ratio"),
	}
	if ratio <= MaxFloorAreaRatio {
		c.Status = models.CheckPass
		c.Message = fmt.Sprintf("Floor area ratio %s is within the %s limit.", percent(ratio), percent(MaxFloorAreaRatio))
	} else {
		c.Status = models.CheckFail
		c.Message = fmt.Sprintf("Floor area ratio %s exceeds the %s limit.", percent(ratio), percent(MaxFloorAreaRatio))
	}
	return c
}

func siteAreaRule(m *models.ProjectMetrics) *models.ComplianceCheck {
	if m.SiteArea == nil {
		return nil
	}
	area := *m.SiteArea
	c := &models.ComplianceCheck{
		Actual:   strPtr(squareMeters(area)),
		Required: strPtr("≥ " + squareMeters(MinSiteArea)),
		Citation: citation(enforcementDecreeName, 80, "Minimum Site Area"),
	}
	if area >= MinSiteArea {
		c.Status = models.CheckPass
		c.Message = fmt.Sprintf("Site area %s meets the %s minimum.", squareMeters(area), squareMeters(MinSiteArea))
	} else {
		c.Status = models.CheckFail
		c.Message = fmt.Sprintf("Site area %s is below the %s minimum.", squareMeters(area), squareMeters(MinSiteArea))
	}
	return c
}

func permitRule(m *models.ProjectMetrics) *models.ComplianceCheck {
	var area float64
	switch {
	case m.TotalFloorArea != nil:
		area = *m.TotalFloorArea
	case m.BuildingArea != nil:
		area = *m.BuildingArea
	default:
		return nil
	}
	c := &models.ComplianceCheck{
		Actual:   strPtr(squareMeters(area)),
		Required: strPtr("permit required above " + squareMeters(PermitFloorAreaThreshold)),
		Citation: citation(buildingActName, 11, "Building Permits"),
	}
	if area > PermitFloorAreaThreshold {
		c.Status = models.CheckWarning
		c.Message = fmt.Sprintf("Floor area %s exceeds %s; a building permit is required before construction.",
			squareMeters(area), squareMeters(PermitFloorAreaThreshold))
	} else {
		c.Status = models.CheckPass
		c.Message = fmt.Sprintf("Floor area %s does not exceed %s; a report may suffice instead of a permit.",
			squareMeters(area), squareMeters(PermitFloorAreaThreshold))
	}
	return c
}

// roadAccessRule needs both a location and a road summary; an empty summary means no road was found
func roadAccessRule(m *models.ProjectMetrics) *models.ComplianceCheck {
	if m.Location == nil || m.NearbyRoads == nil {
		return nil
	}
	c := &models.ComplianceCheck{
		Required: strPtr(fmt.Sprintf("road within %.0f m", MaxRoadDistanceMeters)),
		Citation: citation(buildingActName, 44, "Relation between Sites and Roads"),
	}

	nearest := -1.0
	nearestName := ""
	for _, r := range m.NearbyRoads {
		if nearest < 0 || r.DistanceMeters < nearest {
			nearest = r.DistanceMeters
			nearestName = r.Name
		}
	}

	if nearest < 0 {
		c.Status = models.CheckFail
		c.Actual = strPtr("no road found")
		c.Message = "No road was found near the site; the site must adjoin a road."
		return c
	}

	c.Actual = strPtr(fmt.Sprintf("%.0f m", nearest))
	label := "the nearest road"
	if nearestName != "" {
		label = nearestName
	}
	if nearest <= MaxRoadDistanceMeters {
		c.Status = models.CheckPass
		c.Message = fmt.Sprintf("The site has road access via %s at %.0f m.", label, nearest)
	} else {
		c.Status = models.CheckFail
		c.Message = fmt.Sprintf("%s is %.0f m away, beyond the %.0f m access limit.", label, nearest, MaxRoadDistanceMeters)
	}
	return c
}
