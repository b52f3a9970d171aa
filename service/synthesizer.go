package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/hafidzyami/CivilConstructionApp-sub000/llm"
	"github.com/hafidzyami/CivilConstructionApp-sub000/repository"
)

// QuerySynthesizer translates a natural-language question into one read-only Cypher query
type QuerySynthesizer struct {
	llm    llm.Provider
	schema *repository.GraphSchema
}

// NewQuerySynthesizer creates a synthesizer bound to a schema description
func NewQuerySynthesizer(provider llm.Provider, schema *repository.GraphSchema) *QuerySynthesizer {
	return &QuerySynthesizer{llm: provider, schema: schema}
}

// Synthesize asks the model for a query and validates it. The returned query
// has passed repository.ValidateReadOnlyQuery; execution still has to go
// through a read-only session.
func (s *QuerySynthesizer) Synthesize(ctx context.Context, question string) (string, error) {
	if s.llm == nil {
		return "", ErrLLMUnavailable
	}
	if s.schema == nil {
		return "", fmt.Errorf("%w: no graph schema loaded", ErrInvalidInput)
	}

	raw, err := s.llm.Generate(ctx, s.buildPrompt(question), llm.GenerateOptions{Temperature: 0, MaxTokens: 600})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrLLMUnavailable, err)
	}

	query := strings.TrimSpace(llm.StripCodeFences(raw))
	query = strings.TrimPrefix(query, "cypher\n")
	if query == "" {
		return "", fmt.Errorf("%w: empty query", ErrMalformedOutput)
	}

	if err := repository.ValidateReadOnlyQuery(query); err != nil {
		return "", err
	}
	return query, nil
}

func (s *QuerySynthesizer) buildPrompt(question string) string {
	var b strings.Builder
	b.WriteString("You write Cypher queries for a Neo4j database of building regulations.\n\n")
	b.WriteString(s.schema.PromptText())
	fmt.Fprintf(&b, "\nWrite one query that finds the provisions answering this question:\n%s\n", question)
	b.WriteString("\nReturn only the Cypher query, without explanation.\n")
	return b.String()
}
