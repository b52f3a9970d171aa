package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/hafidzyami/CivilConstructionApp-sub000/llm"
	"github.com/hafidzyami/CivilConstructionApp-sub000/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComposer_SourcesCapAndTruncate(t *testing.T) {
	var records []models.ArticleRecord
	for i := 0; i < 8; i++ {
		r := article(fmt.Sprintf("article_%d", i), fmt.Sprintf("Article %d", i), strings.Repeat("건", 900))
		if i == 0 {
			r.Title = "Building Coverage Ratio"
		}
		records = append(records, r)
	}

	sources := NewResponseComposer(nil).Sources(records)

	require.Len(t, sources, 5)
	assert.Equal(t, "Building Coverage Ratio", sources[0].Title)
	assert.Equal(t, "Article 1", sources[1].Title)
	for _, s := range sources {
		assert.Equal(t, 500, utf8.RuneCountInString(s.Excerpt))
	}
}

func TestComposer_SourcesEmpty(t *testing.T) {
	sources := NewResponseComposer(nil).Sources(nil)
	assert.NotNil(t, sources)
	assert.Empty(t, sources)
}

func TestComposer_SuggestQuestions(t *testing.T) {
	records := []models.ArticleRecord{article("article_55", "Article 55", "coverage")}

	tests := []struct {
		name     string
		provider llm.Provider
		expected []string
	}{
		{name: "no provider", provider: nil, expected: DefaultSuggestedQuestions},
		{name: "model error", provider: &llm.MockProvider{GenerateFunc: func(string) (string, error) {
			return "", errors.New("down")
		}}, expected: DefaultSuggestedQuestions},
		{name: "not json", provider: &llm.MockProvider{GenerateFunc: func(string) (string, error) {
			return "Here are some ideas", nil
		}}, expected: DefaultSuggestedQuestions},
		{name: "empty array", provider: &llm.MockProvider{GenerateFunc: func(string) (string, error) {
			return "[]", nil
		}}, expected: DefaultSuggestedQuestions},
		{name: "capped at three", provider: &llm.MockProvider{GenerateFunc: func(string) (string, error) {
			return "```json\n[\"a?\", \" \", \"b?\", \"c?\", \"d?\"]\n```", nil
		}}, expected: []string{"a?", "b?", "c?"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewResponseComposer(tt.provider).SuggestQuestions(context.Background(), "coverage?", records)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestComposer_DefaultSuggestionsAreCopies(t *testing.T) {
	got := defaultSuggestions()
	got[0] = "mutated"
	assert.NotEqual(t, "mutated", DefaultSuggestedQuestions[0])
}

func TestComposer_NotFound(t *testing.T) {
	c := NewResponseComposer(nil)

	missing := c.NotFound("Article 999", "999", true)
	assert.Contains(t, missing, "Article 999 was not found")

	generic := c.NotFound("  underwater parking  ", "", false)
	assert.Contains(t, generic, `"underwater parking"`)
}

func TestComposer_ListRegulationsIsVerbatim(t *testing.T) {
	mock := &llm.MockProvider{GenerateFunc: func(string) (string, error) { return "paraphrased", nil }}
	regs := []models.Regulation{
		{ID: "building_act", Name: "Building Act", Level: models.LevelNational, ArticleCount: 120},
		{ID: "seoul_ordinance", Name: "Seoul Building Ordinance", Level: models.LevelRegional},
	}

	reply := NewResponseComposer(mock).SmallTalk(context.Background(), models.IntentListRegulations, "what laws?", regs)

	assert.Contains(t, reply, "Building Act (national, 120 provisions)")
	assert.Contains(t, reply, "Seoul Building Ordinance (regional)")
	assert.Empty(t, mock.Prompts())
}

func TestComposer_GreetingFallsBackToTemplate(t *testing.T) {
	mock := &llm.MockProvider{GenerateFunc: func(string) (string, error) { return "", errors.New("down") }}
	reply := NewResponseComposer(mock).SmallTalk(context.Background(), models.IntentGreeting, "hello", nil)
	assert.Equal(t, greetingTemplate, reply)
}

func TestComposer_AnswerFallsBackToExtract(t *testing.T) {
	records := []models.ArticleRecord{
		article("article_55", "Article 55", "The building coverage ratio shall not exceed 60 percent."),
	}
	mock := &llm.MockProvider{GenerateFunc: func(string) (string, error) { return "", errors.New("down") }}

	reply := NewResponseComposer(mock).Answer(context.Background(), "coverage?", nil, records)

	assert.Contains(t, reply, "Article 55 (Building Act)")
	assert.Contains(t, reply, "60 percent")
}

func TestComposer_AnswerPromptCarriesRecords(t *testing.T) {
	records := []models.ArticleRecord{article("article_56", "Article 56", "Floor area ratio limits.")}
	mock := &llm.MockProvider{GenerateFunc: func(string) (string, error) { return " Per Article 56, ... ", nil }}

	reply := NewResponseComposer(mock).Answer(context.Background(), "FAR?", nil, records)

	assert.Equal(t, "Per Article 56, ...", reply)
	require.Len(t, mock.Prompts(), 1)
	assert.Contains(t, mock.Prompts()[0], "[Building Act] Article 56")
	assert.Contains(t, mock.Prompts()[0], "Question: FAR?")
}
