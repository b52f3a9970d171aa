package service

import (
	"context"
	"sync"

	"github.com/hafidzyami/CivilConstructionApp-sub000/models"
	"github.com/hafidzyami/CivilConstructionApp-sub000/repository"
)

// fakeKnowledgeStore is a scriptable KnowledgeStore
type fakeKnowledgeStore struct {
	mu    sync.Mutex
	calls []string

	lookup      func(ref string) ([]models.ArticleRecord, error)
	fullText    func(terms string) ([]models.ArticleRecord, error)
	vector      func(embedding []float32) ([]models.ArticleRecord, error)
	execute     func(query string) ([]models.ArticleRecord, error)
	regulations []models.Regulation
}

func (f *fakeKnowledgeStore) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeKnowledgeStore) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeKnowledgeStore) LookupArticle(_ context.Context, ref string) ([]models.ArticleRecord, error) {
	f.record("lookup")
	if f.lookup == nil {
		return nil, nil
	}
	return f.lookup(ref)
}

func (f *fakeKnowledgeStore) FullTextSearch(_ context.Context, terms string, _ int) ([]models.ArticleRecord, error) {
	f.record("fulltext")
	if f.fullText == nil {
		return nil, nil
	}
	return f.fullText(terms)
}

func (f *fakeKnowledgeStore) VectorSearch(_ context.Context, embedding []float32, _ int) ([]models.ArticleRecord, error) {
	f.record("vector")
	if f.vector == nil {
		return nil, nil
	}
	return f.vector(embedding)
}

func (f *fakeKnowledgeStore) ExecuteQuery(_ context.Context, query string) ([]models.ArticleRecord, error) {
	f.record("execute")
	if f.execute == nil {
		return nil, nil
	}
	return f.execute(query)
}

func (f *fakeKnowledgeStore) ListRegulations(context.Context) ([]models.Regulation, error) {
	f.record("list")
	return f.regulations, nil
}

// memoryResultStore is an in-memory ComplianceResultStore
type memoryResultStore struct {
	mu      sync.Mutex
	results map[string]models.ComplianceResult
}

func newMemoryResultStore() *memoryResultStore {
	return &memoryResultStore{results: make(map[string]models.ComplianceResult)}
}

func (m *memoryResultStore) Upsert(_ context.Context, r *models.ComplianceResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results[r.ProjectID] = *r
	return nil
}

func (m *memoryResultStore) GetByProjectID(_ context.Context, projectID string) (*models.ComplianceResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.results[projectID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &r, nil
}

// memoryMetricsSource is an in-memory ProjectMetricsSource and ProjectMetricsWriter
type memoryMetricsSource struct {
	mu      sync.Mutex
	metrics map[string]models.ProjectMetrics
}

func newMemoryMetricsSource(ms ...models.ProjectMetrics) *memoryMetricsSource {
	src := &memoryMetricsSource{metrics: make(map[string]models.ProjectMetrics)}
	for _, m := range ms {
		src.metrics[m.ProjectID] = m
	}
	return src
}

func (m *memoryMetricsSource) GetByProjectID(_ context.Context, projectID string) (*models.ProjectMetrics, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pm, ok := m.metrics[projectID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &pm, nil
}

func (m *memoryMetricsSource) Save(_ context.Context, pm *models.ProjectMetrics) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.metrics[pm.ProjectID] = *pm
	return nil
}

func f64(v float64) *float64 { return &v }

func article(id, name, text string) models.ArticleRecord {
	return models.ArticleRecord{
		ArticleID:  id,
		Name:       name,
		Text:       text,
		Regulation: "Building Act",
		NodeType:   models.NodeArticle,
		Score:      1,
	}
}
