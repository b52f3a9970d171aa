package service

import (
	"context"
	"errors"
	"testing"

	"github.com/hafidzyami/CivilConstructionApp-sub000/llm"
	"github.com/hafidzyami/CivilConstructionApp-sub000/models"
	"github.com/hafidzyami/CivilConstructionApp-sub000/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingStrategy struct {
	method  models.SearchMethod
	records []models.ArticleRecord
	err     error
	calls   int
}

func (s *countingStrategy) Method() models.SearchMethod { return s.method }

func (s *countingStrategy) Search(context.Context, RetrievalQuery) ([]models.ArticleRecord, error) {
	s.calls++
	return s.records, s.err
}

func hits(n int) []models.ArticleRecord {
	out := make([]models.ArticleRecord, n)
	for i := range out {
		out[i] = article("article_1", "Article 1", "text")
	}
	return out
}

func TestRetrieve_StopsAtFirstHit(t *testing.T) {
	for hitAt := 0; hitAt < 4; hitAt++ {
		strategies := []*countingStrategy{
			{method: models.MethodDirectLookup},
			{method: models.MethodSimilarity},
			{method: models.MethodSynthesizedQuery},
			{method: models.MethodFullText},
		}
		strategies[hitAt].records = hits(2)

		o := NewRetrievalOrchestrator(
			RetrievalWithSimilarity(strategies[1]),
			RetrievalWithSynthesizedQuery(strategies[2]),
			RetrievalWithFullText(strategies[3]),
		)
		q := RetrievalQuery{Terms: "coverage"}
		if hitAt == 0 {
			o = NewRetrievalOrchestrator(
				RetrievalWithDirectLookup(strategies[0]),
				RetrievalWithSimilarity(strategies[1]),
				RetrievalWithSynthesizedQuery(strategies[2]),
				RetrievalWithFullText(strategies[3]),
			)
			q.ArticleNumber = "55"
		}

		res, err := o.Retrieve(context.Background(), models.SearchModeAuto, q)
		require.NoError(t, err)
		assert.Equal(t, strategies[hitAt].method, res.Method)
		assert.Len(t, res.Records, 2)
		for i := hitAt + 1; i < len(strategies); i++ {
			assert.Zero(t, strategies[i].calls, "strategy %s ran after a hit", strategies[i].method)
		}
	}
}

func TestRetrieve_ErrorsAreSwallowed(t *testing.T) {
	sim := &countingStrategy{method: models.MethodSimilarity, err: errors.New("embedding down")}
	syn := &countingStrategy{method: models.MethodSynthesizedQuery, err: ErrUnsafeQuery}
	ft := &countingStrategy{method: models.MethodFullText, records: hits(1)}

	o := NewRetrievalOrchestrator(
		RetrievalWithSimilarity(sim),
		RetrievalWithSynthesizedQuery(syn),
		RetrievalWithFullText(ft),
	)

	res, err := o.Retrieve(context.Background(), models.SearchModeAuto, RetrievalQuery{Terms: "setback"})
	require.NoError(t, err)
	assert.Equal(t, models.MethodFullText, res.Method)
	require.Len(t, res.Attempts, 3)
	assert.Error(t, res.Attempts[0].Err)
	assert.Error(t, res.Attempts[1].Err)
	assert.NoError(t, res.Attempts[2].Err)
}

func TestRetrieve_AllFailed(t *testing.T) {
	o := NewRetrievalOrchestrator(
		RetrievalWithSimilarity(&countingStrategy{method: models.MethodSimilarity, err: errors.New("a")}),
		RetrievalWithFullText(&countingStrategy{method: models.MethodFullText, err: errors.New("b")}),
	)

	res, err := o.Retrieve(context.Background(), models.SearchModeSimilarity, RetrievalQuery{Terms: "x"})
	assert.ErrorIs(t, err, ErrAllStrategiesFailed)
	assert.Equal(t, models.MethodNone, res.Method)
	assert.Empty(t, res.Records)
}

func TestRetrieve_EmptyIsNotFailure(t *testing.T) {
	o := NewRetrievalOrchestrator(
		RetrievalWithSimilarity(&countingStrategy{method: models.MethodSimilarity, err: errors.New("a")}),
		RetrievalWithFullText(&countingStrategy{method: models.MethodFullText}),
	)

	res, err := o.Retrieve(context.Background(), models.SearchModeAuto, RetrievalQuery{Terms: "x"})
	require.NoError(t, err)
	assert.Equal(t, models.MethodNone, res.Method)
	assert.False(t, res.ArticleMissing)
}

func TestRetrieve_MissingArticle(t *testing.T) {
	direct := &countingStrategy{method: models.MethodDirectLookup}
	sim := &countingStrategy{method: models.MethodSimilarity, records: hits(3)}
	o := NewRetrievalOrchestrator(
		RetrievalWithDirectLookup(direct),
		RetrievalWithSimilarity(sim),
	)

	res, err := o.Retrieve(context.Background(), models.SearchModeAuto, RetrievalQuery{Terms: "Article 999", ArticleNumber: "999"})
	require.NoError(t, err)
	assert.True(t, res.ArticleMissing)
	assert.Equal(t, "999", res.ArticleNumber)
	assert.Empty(t, res.Records)
	assert.Zero(t, sim.calls)
}

func TestStrategies_ModeSelection(t *testing.T) {
	o := NewRetrievalOrchestrator(
		RetrievalWithDirectLookup(&countingStrategy{method: models.MethodDirectLookup}),
		RetrievalWithSimilarity(&countingStrategy{method: models.MethodSimilarity}),
		RetrievalWithSynthesizedQuery(&countingStrategy{method: models.MethodSynthesizedQuery}),
		RetrievalWithFullText(&countingStrategy{method: models.MethodFullText}),
	)

	methods := func(chain []Strategy) []models.SearchMethod {
		var out []models.SearchMethod
		for _, s := range chain {
			out = append(out, s.Method())
		}
		return out
	}

	tests := []struct {
		name     string
		mode     models.SearchMode
		article  string
		expected []models.SearchMethod
	}{
		{"auto", models.SearchModeAuto, "", []models.SearchMethod{models.MethodSimilarity, models.MethodSynthesizedQuery, models.MethodFullText}},
		{"similarity", models.SearchModeSimilarity, "", []models.SearchMethod{models.MethodSimilarity, models.MethodFullText}},
		{"synthesized", models.SearchModeSynthesizedQuery, "", []models.SearchMethod{models.MethodSynthesizedQuery, models.MethodFullText}},
		{"auto with article", models.SearchModeAuto, "52", []models.SearchMethod{models.MethodDirectLookup, models.MethodSimilarity, models.MethodSynthesizedQuery, models.MethodFullText}},
		{"similarity with article", models.SearchModeSimilarity, "52-2", []models.SearchMethod{models.MethodDirectLookup, models.MethodSimilarity, models.MethodFullText}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chain := o.Strategies(tt.mode, RetrievalQuery{Terms: "t", ArticleNumber: tt.article})
			assert.Equal(t, tt.expected, methods(chain))
		})
	}
}

func TestRetrieve_CancelledContext(t *testing.T) {
	ft := &countingStrategy{method: models.MethodFullText, records: hits(1)}
	o := NewRetrievalOrchestrator(RetrievalWithFullText(ft))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := o.Retrieve(ctx, models.SearchModeAuto, RetrievalQuery{Terms: "x"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, ft.calls)
}

func TestKnowledgeRetrieval_Wiring(t *testing.T) {
	store := &fakeKnowledgeStore{
		vector: func([]float32) ([]models.ArticleRecord, error) { return nil, nil },
		execute: func(query string) ([]models.ArticleRecord, error) {
			return []models.ArticleRecord{article("article_44", "Article 44", "road")}, nil
		},
	}
	embedder := &llm.MockProvider{EmbedFunc: func(string) ([]float32, error) { return []float32{0.1, 0.2}, nil }}
	gen := &llm.MockProvider{GenerateFunc: func(string) (string, error) {
		return "MATCH (a:Article) WHERE a.text CONTAINS 'road' RETURN a.id AS articleId LIMIT 5", nil
	}}

	schema, err := repository.LoadGraphSchema()
	require.NoError(t, err)

	o := NewKnowledgeRetrieval(store,
		NewSimilaritySearcher(embedder, store, 0),
		NewQuerySynthesizer(gen, schema),
		10)

	res, err := o.Retrieve(context.Background(), models.SearchModeAuto, RetrievalQuery{Terms: "road access"})
	require.NoError(t, err)
	assert.Equal(t, models.MethodSynthesizedQuery, res.Method)
	assert.Equal(t, []string{"vector", "execute"}, store.Calls())
}

func TestKnowledgeRetrieval_UnsafeQueryFallsThrough(t *testing.T) {
	store := &fakeKnowledgeStore{
		fullText: func(string) ([]models.ArticleRecord, error) {
			return []models.ArticleRecord{article("article_11", "Article 11", "permit")}, nil
		},
	}
	gen := &llm.MockProvider{GenerateFunc: func(string) (string, error) {
		return "MATCH (a:Article) DETACH DELETE a", nil
	}}
	schema, err := repository.LoadGraphSchema()
	require.NoError(t, err)

	o := NewKnowledgeRetrieval(store, nil, NewQuerySynthesizer(gen, schema), 10)

	res, err := o.Retrieve(context.Background(), models.SearchModeSynthesizedQuery, RetrievalQuery{Terms: "permit"})
	require.NoError(t, err)
	assert.Equal(t, models.MethodFullText, res.Method)
	assert.Equal(t, []string{"fulltext"}, store.Calls())
	require.Len(t, res.Attempts, 2)
	assert.ErrorIs(t, res.Attempts[0].Err, ErrUnsafeQuery)
}
