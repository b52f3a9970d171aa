package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/hafidzyami/CivilConstructionApp-sub000/llm"
	"github.com/hafidzyami/CivilConstructionApp-sub000/models"
)

// DefaultSimilarityTopK is the number of nearest articles requested from the vector index
const DefaultSimilarityTopK = 10

// SimilaritySearcher embeds text and queries the vector index
type SimilaritySearcher struct {
	llm   llm.Provider
	store KnowledgeStore
	topK  int
}

// NewSimilaritySearcher creates a searcher; topK <= 0 uses DefaultSimilarityTopK
func NewSimilaritySearcher(provider llm.Provider, store KnowledgeStore, topK int) *SimilaritySearcher {
	if topK <= 0 {
		topK = DefaultSimilarityTopK
	}
	return &SimilaritySearcher{llm: provider, store: store, topK: topK}
}

// Search returns the nearest Article nodes by descending score.
// An embedding failure is returned as an error and carries no records.
func (s *SimilaritySearcher) Search(ctx context.Context, text string) ([]models.ArticleRecord, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	if s.llm == nil {
		return nil, fmt.Errorf("embedding: %w", ErrLLMUnavailable)
	}

	embedding, err := s.llm.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embedding: %w", err)
	}
	if len(embedding) == 0 {
		return nil, fmt.Errorf("embedding: %w", llm.ErrEmptyEmbedding)
	}

	return s.store.VectorSearch(ctx, embedding, s.topK)
}
