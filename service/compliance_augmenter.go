package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hafidzyami/CivilConstructionApp-sub000/llm"
	"github.com/hafidzyami/CivilConstructionApp-sub000/models"
)

const (
	MaxAugmenterExcerpts = 20
	minRecommendations   = 3
	maxRecommendations   = 5
)

// Augmentation is the model's contribution to a compliance result
type Augmentation struct {
	Checks          []models.ComplianceCheck
	Summary         string
	Recommendations []string
	// Fallback is true when summary and recommendations came from the deterministic generators
	Fallback bool
}

// ComplianceAugmenter asks the model for supplementary checks, a summary and recommendations
type ComplianceAugmenter struct {
	llm llm.Provider
}

// NewComplianceAugmenter creates an augmenter; a nil provider always falls back
func NewComplianceAugmenter(provider llm.Provider) *ComplianceAugmenter {
	return &ComplianceAugmenter{llm: provider}
}

type augmentPayload struct {
	AdditionalChecks []struct {
		Name       string `json:"name"`
		Status     string `json:"status"`
		Actual     string `json:"actual"`
		Required   string `json:"required"`
		Regulation string `json:"regulation"`
		ArticleID  string `json:"article_id"`
		Message    string `json:"message"`
	} `json:"additional_checks"`
	Summary         string   `json:"summary"`
	Recommendations []string `json:"recommendations"`
}

// Augment never fails the evaluation: on any model or parse error it returns
// the deterministic fallback together with the error for logging.
func (a *ComplianceAugmenter) Augment(
	ctx context.Context,
	metrics *models.ProjectMetrics,
	ruleChecks []models.ComplianceCheck,
	excerpts []models.ArticleRecord,
) (Augmentation, error) {
	fallback := Augmentation{
		Checks:          []models.ComplianceCheck{},
		Summary:         FallbackSummary(ruleChecks),
		Recommendations: FallbackRecommendations(ruleChecks),
		Fallback:        true,
	}

	if a.llm == nil {
		return fallback, ErrLLMUnavailable
	}

	if len(excerpts) > MaxAugmenterExcerpts {
		excerpts = excerpts[:MaxAugmenterExcerpts]
	}

	raw, err := a.llm.Generate(ctx, buildAugmentPrompt(metrics, ruleChecks, excerpts),
		llm.GenerateOptions{Temperature: 0.2, MaxTokens: 2000})
	if err != nil {
		return fallback, fmt.Errorf("%w: %w", ErrLLMUnavailable, err)
	}

	var payload augmentPayload
	if err := json.Unmarshal([]byte(llm.ExtractJSON(raw)), &payload); err != nil {
		return fallback, fmt.Errorf("%w: augmentation: %w", ErrMalformedOutput, err)
	}

	// a model check repeating a rule check would count twice in the score
	covered := make(map[string]bool, len(ruleChecks)+len(payload.AdditionalChecks))
	for _, c := range ruleChecks {
		covered[checkKey(c.Name)] = true
	}

	out := Augmentation{Checks: make([]models.ComplianceCheck, 0, len(payload.AdditionalChecks))}
	for _, pc := range payload.AdditionalChecks {
		status := models.CheckStatus(strings.ToLower(strings.TrimSpace(pc.Status)))
		key := checkKey(pc.Name)
		if !status.Valid() || key == "" || covered[key] {
			continue
		}
		covered[key] = true
		check := models.ComplianceCheck{
			Name:    strings.TrimSpace(pc.Name),
			Status:  status,
			Message: strings.TrimSpace(pc.Message),
			Source:  "llm",
		}
		if pc.Actual != "" {
			check.Actual = strPtr(pc.Actual)
		}
		if pc.Required != "" {
			check.Required = strPtr(pc.Required)
		}
		if pc.Regulation != "" || pc.ArticleID != "" {
			check.Citation = &models.Citation{Regulation: pc.Regulation, ArticleID: pc.ArticleID}
		}
		out.Checks = append(out.Checks, check)
	}

	out.Summary = strings.TrimSpace(payload.Summary)
	if out.Summary == "" {
		out.Summary = fallback.Summary
		out.Fallback = true
	}

	for _, r := range payload.Recommendations {
		if r = strings.TrimSpace(r); r != "" && len(out.Recommendations) < maxRecommendations {
			out.Recommendations = append(out.Recommendations, r)
		}
	}
	// top up from the deterministic list so there are always at least three
	for _, r := range fallback.Recommendations {
		if len(out.Recommendations) >= minRecommendations {
			break
		}
		out.Recommendations = append(out.Recommendations, r)
	}
	return out, nil
}

func checkKey(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

func buildAugmentPrompt(metrics *models.ProjectMetrics, ruleChecks []models.ComplianceCheck, excerpts []models.ArticleRecord) string {
	var b strings.Builder
	b.WriteString(`You review construction projects against Korean building regulations.
Automated rules already produced the checks below. Using the project data and the regulation
excerpts, add checks the rules do not cover (for example zoning use, height, setbacks, parking, materials).
Only add a check when the excerpts or project data support it.

Reply with one JSON object and nothing else:
{"additional_checks": [{"name": "", "status": "pass|fail|warning|not_applicable", "actual": "", "required": "", "regulation": "", "article_id": "", "message": ""}],
 "summary": "<2-3 sentences>",
 "recommendations": ["<3 to 5 items>"]}

Project data:
`)
	if data, err := json.MarshalIndent(metrics, "", "  "); err == nil {
		b.Write(data)
	}

	b.WriteString("\n\nRule checks:\n")
	for _, c := range ruleChecks {
		fmt.Fprintf(&b, "- %s: %s. %s\n", c.Name, c.Status, c.Message)
	}

	if len(excerpts) > 0 {
		b.WriteString("\nRegulation excerpts:\n")
		for _, e := range excerpts {
			fmt.Fprintf(&b, "[%s] %s (%s): %s\n", e.Regulation, e.Name, e.ArticleID, llm.Truncate(e.Text, 600))
		}
	}
	return b.String()
}

// FallbackSummary describes the rule outcome from its counts alone
func FallbackSummary(checks []models.ComplianceCheck) string {
	pass, fail, warning := models.CountChecks(checks)
	total := len(checks)
	if total == 0 {
		return "No compliance checks could be performed because the project has no evaluable metrics."
	}

	summary := fmt.Sprintf("%d of %d checks passed", pass, total)
	switch {
	case fail == 0 && warning == 0:
		return summary + ". The project meets all evaluated requirements."
	case fail == 0:
		return fmt.Sprintf("%s with %d warning(s). No requirement is violated, but the warnings need attention before approval.", summary, warning)
	default:
		return fmt.Sprintf("%s; %d failed and %d raised warnings. The failed requirements must be resolved before the project can be accepted.", summary, fail, warning)
	}
}

// FallbackRecommendations derives recommendations from failed and warning checks
func FallbackRecommendations(checks []models.ComplianceCheck) []string {
	var recs []string
	for _, c := range checks {
		if len(recs) == maxRecommendations {
			break
		}
		switch c.Status {
		case models.CheckFail:
			rec := "Revise the design to satisfy the " + strings.ToLower(c.Name) + " requirement"
			if c.Required != nil {
				rec += " (" + *c.Required + ")"
			}
			recs = append(recs, rec+".")
		case models.CheckWarning:
			recs = append(recs, "Review the "+strings.ToLower(c.Name)+" item: "+c.Message)
		}
	}

	generic := []string{
		"Confirm the zoning district and any regional ordinance that may tighten national limits.",
		"Consult a licensed architect to verify the measurements used in this evaluation.",
		"Keep the site survey and drawings up to date before submitting for approval.",
	}
	for _, g := range generic {
		if len(recs) >= minRecommendations {
			break
		}
		recs = append(recs, g)
	}
	return recs
}
