package service

import (
	"context"
	"fmt"
	"log"

	"github.com/hafidzyami/CivilConstructionApp-sub000/models"
)

// RetrievalQuery is the resolved input of one retrieval
type RetrievalQuery struct {
	// Terms is what the intent classifier extracted
	Terms string
	// ArticleNumber is set when Terms names an explicit provision
	ArticleNumber string
	// SessionID is used for logging only
	SessionID string
}

// Strategy is one step of the fallback chain
type Strategy interface {
	Method() models.SearchMethod
	Search(ctx context.Context, q RetrievalQuery) ([]models.ArticleRecord, error)
}

// StrategyFunc adapts a function to Strategy
type StrategyFunc struct {
	method models.SearchMethod
	fn     func(ctx context.Context, q RetrievalQuery) ([]models.ArticleRecord, error)
}

// NewStrategy wraps fn as a Strategy reporting method
func NewStrategy(method models.SearchMethod, fn func(ctx context.Context, q RetrievalQuery) ([]models.ArticleRecord, error)) StrategyFunc {
	return StrategyFunc{method: method, fn: fn}
}

// Method returns the strategy's search method
func (s StrategyFunc) Method() models.SearchMethod { return s.method }

// Search runs the strategy
func (s StrategyFunc) Search(ctx context.Context, q RetrievalQuery) ([]models.ArticleRecord, error) {
	return s.fn(ctx, q)
}

// StrategyAttempt records the outcome of one strategy
type StrategyAttempt struct {
	Method models.SearchMethod
	Count  int
	Err    error
}

// RetrievalResult is the single result set of a retrieval
type RetrievalResult struct {
	Records []models.ArticleRecord
	Method  models.SearchMethod
	// ArticleMissing is true when an explicit article number was looked up and does not exist
	ArticleMissing bool
	ArticleNumber  string
	Attempts       []StrategyAttempt
}

// RetrievalOrchestrator folds over an ordered strategy list and returns the first non-empty result
type RetrievalOrchestrator struct {
	direct      Strategy
	similarity  Strategy
	synthesized Strategy
	fullText    Strategy
}

// RetrievalOption is a functional option for RetrievalOrchestrator
type RetrievalOption func(*RetrievalOrchestrator)

// RetrievalWithDirectLookup sets the exact article lookup strategy
func RetrievalWithDirectLookup(s Strategy) RetrievalOption {
	return func(o *RetrievalOrchestrator) { o.direct = s }
}

// RetrievalWithSimilarity sets the vector similarity strategy
func RetrievalWithSimilarity(s Strategy) RetrievalOption {
	return func(o *RetrievalOrchestrator) { o.similarity = s }
}

// RetrievalWithSynthesizedQuery sets the model-synthesized query strategy
func RetrievalWithSynthesizedQuery(s Strategy) RetrievalOption {
	return func(o *RetrievalOrchestrator) { o.synthesized = s }
}

// RetrievalWithFullText sets the full-text fallback strategy
func RetrievalWithFullText(s Strategy) RetrievalOption {
	return func(o *RetrievalOrchestrator) { o.fullText = s }
}

// NewRetrievalOrchestrator creates an orchestrator from explicit strategies
func NewRetrievalOrchestrator(opts ...RetrievalOption) *RetrievalOrchestrator {
	o := &RetrievalOrchestrator{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// NewKnowledgeRetrieval wires the standard strategies over a knowledge store
func NewKnowledgeRetrieval(store KnowledgeStore, similarity *SimilaritySearcher, synthesizer *QuerySynthesizer, fullTextLimit int) *RetrievalOrchestrator {
	opts := []RetrievalOption{
		RetrievalWithDirectLookup(NewStrategy(models.MethodDirectLookup,
			func(ctx context.Context, q RetrievalQuery) ([]models.ArticleRecord, error) {
				return store.LookupArticle(ctx, q.ArticleNumber)
			})),
		RetrievalWithFullText(NewStrategy(models.MethodFullText,
			func(ctx context.Context, q RetrievalQuery) ([]models.ArticleRecord, error) {
				return store.FullTextSearch(ctx, q.Terms, fullTextLimit)
			})),
	}
	if similarity != nil {
		opts = append(opts, RetrievalWithSimilarity(NewStrategy(models.MethodSimilarity,
			func(ctx context.Context, q RetrievalQuery) ([]models.ArticleRecord, error) {
				return similarity.Search(ctx, q.Terms)
			})))
	}
	if synthesizer != nil {
		opts = append(opts, RetrievalWithSynthesizedQuery(NewStrategy(models.MethodSynthesizedQuery,
			func(ctx context.Context, q RetrievalQuery) ([]models.ArticleRecord, error) {
				query, err := synthesizer.Synthesize(ctx, q.Terms)
				if err != nil {
					return nil, err
				}
				return store.ExecuteQuery(ctx, query)
			})))
	}
	return NewRetrievalOrchestrator(opts...)
}

// Strategies returns the ordered chain for mode and q
func (o *RetrievalOrchestrator) Strategies(mode models.SearchMode, q RetrievalQuery) []Strategy {
	var chain []Strategy
	if q.ArticleNumber != "" && o.direct != nil {
		chain = append(chain, o.direct)
	}
	if (mode == models.SearchModeSimilarity || mode == models.SearchModeAuto) && o.similarity != nil {
		chain = append(chain, o.similarity)
	}
	if (mode == models.SearchModeSynthesizedQuery || mode == models.SearchModeAuto) && o.synthesized != nil {
		chain = append(chain, o.synthesized)
	}
	if o.fullText != nil {
		chain = append(chain, o.fullText)
	}
	return chain
}

// Retrieve tries each strategy in order. The first non-empty result wins and
// later strategies are never called. A strategy error is logged and treated
// as "no results". An empty direct lookup ends the chain with ArticleMissing.
// ErrAllStrategiesFailed is returned only when every strategy errored.
func (o *RetrievalOrchestrator) Retrieve(ctx context.Context, mode models.SearchMode, q RetrievalQuery) (RetrievalResult, error) {
	chain := o.Strategies(mode, q)
	result := RetrievalResult{Method: models.MethodNone, ArticleNumber: q.ArticleNumber}
	if len(chain) == 0 {
		return result, fmt.Errorf("%w: no strategies configured", ErrAllStrategiesFailed)
	}

	failures := 0
	for _, s := range chain {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		records, err := s.Search(ctx, q)
		result.Attempts = append(result.Attempts, StrategyAttempt{Method: s.Method(), Count: len(records), Err: err})
		if err != nil {
			failures++
			log.Printf("Warning: %s search failed for session %s: %v", s.Method(), q.SessionID, err)
			continue
		}

		if len(records) > 0 {
			result.Records = records
			result.Method = s.Method()
			return result, nil
		}

		if s.Method() == models.MethodDirectLookup {
			result.ArticleMissing = true
			return result, nil
		}
	}

	if failures == len(chain) {
		return result, ErrAllStrategiesFailed
	}
	return result, nil
}
