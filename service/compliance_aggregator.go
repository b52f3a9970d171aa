package service

import (
	"math"

	"github.com/hafidzyami/CivilConstructionApp-sub000/models"
)

const (
	DefaultMaxCitedRegulations = 10

	acceptScore = 80
	rejectScore = 50
	maxFailures = 2
)

// ComplianceAggregator merges rule and model checks into one scored result
type ComplianceAggregator struct {
	maxCitations int
}

// NewComplianceAggregator creates an aggregator; maxCitations <= 0 uses the default
func NewComplianceAggregator(maxCitations int) *ComplianceAggregator {
	if maxCitations <= 0 {
		maxCitations = DefaultMaxCitedRegulations
	}
	return &ComplianceAggregator{maxCitations: maxCitations}
}

// Aggregate appends model checks after rule checks, scores them and picks a status
func (a *ComplianceAggregator) Aggregate(projectID string, ruleChecks []models.ComplianceCheck, aug Augmentation) *models.ComplianceResult {
	checks := make(models.ComplianceChecks, 0, len(ruleChecks)+len(aug.Checks))
	checks = append(checks, ruleChecks...)
	checks = append(checks, aug.Checks...)

	score := ComputeScore(checks)
	recommendations := aug.Recommendations
	if recommendations == nil {
		recommendations = []string{}
	}

	return &models.ComplianceResult{
		ProjectID:        projectID,
		Checks:           checks,
		Score:            score,
		Status:           DetermineStatus(checks, score),
		Summary:          aug.Summary,
		CitedRegulations: a.citations(checks),
		Recommendations:  recommendations,
	}
}

// ComputeScore returns round(100 × pass / total), or 0 for no checks
func ComputeScore(checks []models.ComplianceCheck) int {
	if len(checks) == 0 {
		return 0
	}
	pass, _, _ := models.CountChecks(checks)
	return int(math.Round(100 * float64(pass) / float64(len(checks))))
}

// DetermineStatus applies the three-bucket policy
func DetermineStatus(checks []models.ComplianceCheck, score int) models.ComplianceStatus {
	_, fail, _ := models.CountChecks(checks)
	switch {
	case fail == 0 && score >= acceptScore:
		return models.StatusAccepted
	case fail > maxFailures || score < rejectScore:
		return models.StatusRejected
	default:
		return models.StatusReviewRequired
	}
}

// citations collects distinct check citations in check order
func (a *ComplianceAggregator) citations(checks []models.ComplianceCheck) models.Citations {
	seen := make(map[string]bool)
	out := make(models.Citations, 0, a.maxCitations)
	for _, c := range checks {
		if c.Citation == nil || len(out) == a.maxCitations {
			continue
		}
		key := c.Citation.Regulation + "|" + c.Citation.ArticleID
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, *c.Citation)
	}
	return out
}
