package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/hafidzyami/CivilConstructionApp-sub000/models"
	"github.com/hafidzyami/CivilConstructionApp-sub000/repository"
)

// complianceSearchTerms seeds the excerpt search when checks carry no citation
const complianceSearchTerms = "building coverage ratio floor area ratio site area road permit"

// ProjectMetricsWriter stores metrics submitted with a check request
type ProjectMetricsWriter interface {
	Save(ctx context.Context, m *models.ProjectMetrics) error
}

// ComplianceService evaluates projects and persists the verdict
type ComplianceService struct {
	rules         *RuleEngine
	augmenter     *ComplianceAugmenter
	aggregator    *ComplianceAggregator
	results       ComplianceResultStore
	metrics       ProjectMetricsSource
	metricsWriter ProjectMetricsWriter
	knowledge     KnowledgeStore
}

// ComplianceServiceOption is a functional option for ComplianceService
type ComplianceServiceOption func(*ComplianceService)

// ComplianceWithRuleEngine sets the rule engine
func ComplianceWithRuleEngine(e *RuleEngine) ComplianceServiceOption {
	return func(s *ComplianceService) {
		s.rules = e
	}
}

// ComplianceWithAugmenter sets the model augmenter
func ComplianceWithAugmenter(a *ComplianceAugmenter) ComplianceServiceOption {
	return func(s *ComplianceService) {
		s.augmenter = a
	}
}

// ComplianceWithAggregator sets the aggregator
func ComplianceWithAggregator(a *ComplianceAggregator) ComplianceServiceOption {
	return func(s *ComplianceService) {
		s.aggregator = a
	}
}

// ComplianceWithResultStore sets where results are persisted
func ComplianceWithResultStore(store ComplianceResultStore) ComplianceServiceOption {
	return func(s *ComplianceService) {
		s.results = store
	}
}

// ComplianceWithMetricsSource sets the project metrics provider
func ComplianceWithMetricsSource(src ProjectMetricsSource) ComplianceServiceOption {
	return func(s *ComplianceService) {
		s.metrics = src
	}
}

// ComplianceWithMetricsWriter stores metrics passed directly to EvaluateMetrics
func ComplianceWithMetricsWriter(w ProjectMetricsWriter) ComplianceServiceOption {
	return func(s *ComplianceService) {
		s.metricsWriter = w
	}
}

// ComplianceWithKnowledgeStore sets the store used for regulation excerpts
func ComplianceWithKnowledgeStore(store KnowledgeStore) ComplianceServiceOption {
	return func(s *ComplianceService) {
		s.knowledge = store
	}
}

// NewComplianceService creates a new compliance service
func NewComplianceService(opts ...ComplianceServiceOption) *ComplianceService {
	s := &ComplianceService{}
	for _, opt := range opts {
		opt(s)
	}
	if s.rules == nil {
		s.rules = NewRuleEngine()
	}
	if s.augmenter == nil {
		s.augmenter = NewComplianceAugmenter(nil)
	}
	if s.aggregator == nil {
		s.aggregator = NewComplianceAggregator(DefaultMaxCitedRegulations)
	}
	return s
}

func validateProjectID(projectID string) error {
	if strings.TrimSpace(projectID) == "" {
		return fmt.Errorf("%w: project id is required", ErrInvalidInput)
	}
	if len(projectID) > 255 {
		return fmt.Errorf("%w: project id too long", ErrInvalidInput)
	}
	return nil
}

// CheckCompliance loads the project's metrics, evaluates them and upserts the result
func (s *ComplianceService) CheckCompliance(ctx context.Context, projectID string) (*models.ComplianceResult, error) {
	if err := validateProjectID(projectID); err != nil {
		return nil, err
	}
	if s.metrics == nil {
		return nil, fmt.Errorf("%w: no metrics source configured", ErrProjectNotFound)
	}

	metrics, err := s.metrics.GetByProjectID(ctx, projectID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrProjectNotFound, projectID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load project metrics: %w", err)
	}
	metrics.ProjectID = projectID

	return s.evaluate(ctx, metrics)
}

// EvaluateMetrics evaluates metrics supplied by the caller, storing them first when a writer is configured
func (s *ComplianceService) EvaluateMetrics(ctx context.Context, metrics *models.ProjectMetrics) (*models.ComplianceResult, error) {
	if metrics == nil {
		return nil, fmt.Errorf("%w: metrics are required", ErrMissingMetrics)
	}
	if err := validateProjectID(metrics.ProjectID); err != nil {
		return nil, err
	}

	if s.metricsWriter != nil && metrics.HasAnyMetric() {
		if err := s.metricsWriter.Save(ctx, metrics); err != nil {
			log.Printf("Warning: failed to store metrics for project %s: %v", metrics.ProjectID, err)
		}
	}
	return s.evaluate(ctx, metrics)
}

func (s *ComplianceService) evaluate(ctx context.Context, metrics *models.ProjectMetrics) (*models.ComplianceResult, error) {
	if !metrics.HasAnyMetric() {
		return nil, fmt.Errorf("%w: project %s", ErrMissingMetrics, metrics.ProjectID)
	}

	ruleChecks := s.rules.Evaluate(metrics)
	excerpts := s.collectExcerpts(ctx, ruleChecks, metrics)

	aug, err := s.augmenter.Augment(ctx, metrics, ruleChecks, excerpts)
	if err != nil {
		log.Printf("Warning: compliance augmentation fell back for project %s: %v", metrics.ProjectID, err)
	}

	result := s.aggregator.Aggregate(metrics.ProjectID, ruleChecks, aug)

	if s.results != nil {
		if err := s.results.Upsert(ctx, result); err != nil {
			return nil, fmt.Errorf("failed to store compliance result: %w", err)
		}
	}
	return result, nil
}

// collectExcerpts gathers up to MaxAugmenterExcerpts provisions: the cited
// articles first, then full-text matches. Store errors only shrink the list.
func (s *ComplianceService) collectExcerpts(ctx context.Context, checks []models.ComplianceCheck, metrics *models.ProjectMetrics) []models.ArticleRecord {
	if s.knowledge == nil {
		return nil
	}

	seen := make(map[string]bool)
	var excerpts []models.ArticleRecord
	add := func(records []models.ArticleRecord) {
		for _, r := range records {
			if len(excerpts) == MaxAugmenterExcerpts {
				return
			}
			if !seen[r.ArticleID] {
				seen[r.ArticleID] = true
				excerpts = append(excerpts, r)
			}
		}
	}

	for _, c := range checks {
		if c.Citation == nil || seen[c.Citation.ArticleID] {
			continue
		}
		records, err := s.knowledge.LookupArticle(ctx, c.Citation.ArticleID)
		if err != nil {
			log.Printf("Warning: excerpt lookup for %s failed: %v", c.Citation.ArticleID, err)
			continue
		}
		if len(records) > 0 {
			add(records[:1])
		}
	}

	terms := complianceSearchTerms
	if metrics.Zone != "" {
		terms = metrics.Zone + " " + terms
	}
	records, err := s.knowledge.FullTextSearch(ctx, terms, MaxAugmenterExcerpts)
	if err != nil {
		log.Printf("Warning: excerpt search failed for project %s: %v", metrics.ProjectID, err)
	} else {
		add(records)
	}
	return excerpts
}

// GetComplianceResult returns the stored result, or ErrComplianceResultNotFound
func (s *ComplianceService) GetComplianceResult(ctx context.Context, projectID string) (*models.ComplianceResult, error) {
	if err := validateProjectID(projectID); err != nil {
		return nil, err
	}
	if s.results == nil {
		return nil, ErrComplianceResultNotFound
	}

	result, err := s.results.GetByProjectID(ctx, projectID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrComplianceResultNotFound, projectID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load compliance result: %w", err)
	}
	return result, nil
}
