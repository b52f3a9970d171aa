package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/hafidzyami/CivilConstructionApp-sub000/llm"
	"github.com/hafidzyami/CivilConstructionApp-sub000/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntentClassifier_ParsesFencedJSON(t *testing.T) {
	mock := &llm.MockProvider{GenerateFunc: func(string) (string, error) {
		return "```json\n{\"intent\": \"regulation_query\", \"search_terms\": \"parking lot width\"}\n```", nil
	}}
	c := NewIntentClassifier(mock)

	res, err := c.Classify(context.Background(), "how wide must a parking lot be?", nil)
	require.NoError(t, err)
	assert.Equal(t, models.IntentRegulationQuery, res.Intent)
	assert.Equal(t, "parking lot width", res.SearchTerms)
	assert.Empty(t, res.ArticleNumber)
	assert.False(t, res.Fallback)
}

func TestIntentClassifier_SmallTalkIntents(t *testing.T) {
	tests := []struct {
		raw      string
		expected models.Intent
	}{
		{raw: `{"intent": "greeting"}`, expected: models.IntentGreeting},
		{raw: `{"intent": "capability-question"}`, expected: models.IntentCapability},
		{raw: `{"intent": "list_regulations"}`, expected: models.IntentListRegulations},
	}

	for _, tt := range tests {
		t.Run(string(tt.expected), func(t *testing.T) {
			raw := tt.raw
			c := NewIntentClassifier(&llm.MockProvider{GenerateFunc: func(string) (string, error) { return raw, nil }})
			res, err := c.Classify(context.Background(), "hi", nil)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, res.Intent)
			assert.Empty(t, res.SearchTerms)
		})
	}
}

func TestIntentClassifier_PrefersArticleNumber(t *testing.T) {
	mock := &llm.MockProvider{GenerateFunc: func(string) (string, error) {
		return `{"intent": "regulation_query", "search_terms": "floor area ratio"}`, nil
	}}
	c := NewIntentClassifier(mock)

	res, err := c.Classify(context.Background(), "What does Article 56 say about floor area ratio?", nil)
	require.NoError(t, err)
	assert.Equal(t, "56", res.ArticleNumber)
}

func TestIntentClassifier_FallsBack(t *testing.T) {
	tests := []struct {
		name     string
		provider llm.Provider
		wantErr  error
	}{
		{name: "no provider", provider: nil, wantErr: ErrLLMUnavailable},
		{name: "model error", provider: &llm.MockProvider{GenerateFunc: func(string) (string, error) {
			return "", errors.New("quota exceeded")
		}}, wantErr: ErrLLMUnavailable},
		{name: "unparsable output", provider: &llm.MockProvider{GenerateFunc: func(string) (string, error) {
			return "I think this is a regulation question", nil
		}}, wantErr: ErrMalformedOutput},
		{name: "unknown intent", provider: &llm.MockProvider{GenerateFunc: func(string) (string, error) {
			return `{"intent": "weather"}`, nil
		}}, wantErr: ErrMalformedOutput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewIntentClassifier(tt.provider)
			res, err := c.Classify(context.Background(), "  제52조의2 내용  ", nil)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			assert.True(t, res.Fallback)
			assert.Equal(t, models.IntentRegulationQuery, res.Intent)
			assert.Equal(t, "제52조의2 내용", res.SearchTerms)
			assert.Equal(t, "52-2", res.ArticleNumber)
		})
	}
}

func TestIntentClassifier_PromptIncludesRecentHistory(t *testing.T) {
	mock := &llm.MockProvider{GenerateFunc: func(string) (string, error) { return `{"intent": "greeting"}`, nil }}
	c := NewIntentClassifier(mock)

	var history []models.ConversationMessage
	for i := 0; i < 10; i++ {
		role := models.RoleUser
		if i%2 == 1 {
			role = models.RoleAssistant
		}
		history = append(history, models.ConversationMessage{Role: role, Text: "msg" + string(rune('A'+i))})
	}

	_, err := c.Classify(context.Background(), "and the next one?", history)
	require.NoError(t, err)

	prompt := mock.Prompts()[0]
	assert.NotContains(t, prompt, "msgD")
	assert.Contains(t, prompt, "User: msgE")
	assert.Contains(t, prompt, "Assistant: msgJ")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(prompt), "Message: and the next one?"))
}
