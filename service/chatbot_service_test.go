package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/hafidzyami/CivilConstructionApp-sub000/llm"
	"github.com/hafidzyami/CivilConstructionApp-sub000/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// intentReply returns a classifier whose model always answers raw
func intentReply(raw string) *IntentClassifier {
	return NewIntentClassifier(&llm.MockProvider{GenerateFunc: func(string) (string, error) { return raw, nil }})
}

func newTestChatbot(store *fakeKnowledgeStore, classifier *IntentClassifier) *ChatbotService {
	fixed := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	return NewChatbotService(
		ChatbotWithClassifier(classifier),
		ChatbotWithKnowledgeStore(store),
		ChatbotWithOrchestrator(NewKnowledgeRetrieval(store, nil, nil, 10)),
		ChatbotWithClock(func() time.Time { return fixed }),
	)
}

func TestValidateSessionID(t *testing.T) {
	valid := []string{"abc", "user-123", "a1b2.c3:d4_e5", strings.Repeat("x", 128)}
	invalid := []string{"", " ", "-leading", "has space", "semi;colon", strings.Repeat("x", 129)}

	for _, id := range valid {
		assert.NoError(t, ValidateSessionID(id), id)
	}
	for _, id := range invalid {
		assert.ErrorIs(t, ValidateSessionID(id), ErrInvalidSessionID, id)
	}
}

func TestProcessQuery_InvalidInput(t *testing.T) {
	svc := newTestChatbot(&fakeKnowledgeStore{}, intentReply(`{"intent": "greeting"}`))
	ctx := context.Background()

	_, err := svc.ProcessQuery(ctx, ProcessQueryRequest{Query: "hi", SessionID: ""})
	assert.ErrorIs(t, err, ErrInvalidSessionID)

	_, err = svc.ProcessQuery(ctx, ProcessQueryRequest{Query: "   ", SessionID: "s1"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.ProcessQuery(ctx, ProcessQueryRequest{Query: strings.Repeat("a", maxQueryLength+1), SessionID: "s1"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	bad := models.SearchMode("telepathy")
	_, err = svc.ProcessQuery(ctx, ProcessQueryRequest{Query: "hi", SessionID: "s1", Mode: &bad})
	assert.ErrorIs(t, err, ErrInvalidInput)

	history, err := svc.GetHistory("s1")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestProcessQuery_Greeting(t *testing.T) {
	store := &fakeKnowledgeStore{}
	svc := newTestChatbot(store, intentReply(`{"intent": "greeting"}`))

	resp, err := svc.ProcessQuery(context.Background(), ProcessQueryRequest{Query: "hello", SessionID: "s1"})
	require.NoError(t, err)
	assert.Equal(t, greetingTemplate, resp.Message)
	assert.Equal(t, models.MethodNone, resp.SearchMethod)
	assert.Empty(t, resp.Sources)
	assert.Equal(t, DefaultSuggestedQuestions, resp.SuggestedQuestions)
	assert.Empty(t, store.Calls())
}

func TestProcessQuery_ListRegulations(t *testing.T) {
	store := &fakeKnowledgeStore{regulations: []models.Regulation{
		{ID: "building_act", Name: "Building Act", Level: models.LevelNational},
	}}
	svc := newTestChatbot(store, intentReply(`{"intent": "list_regulations"}`))

	resp, err := svc.ProcessQuery(context.Background(), ProcessQueryRequest{Query: "which laws do you know?", SessionID: "s1"})
	require.NoError(t, err)
	assert.Contains(t, resp.Message, "Building Act (national)")
	assert.Equal(t, []string{"list"}, store.Calls())
}

func TestProcessQuery_AnswersAndRecordsHistory(t *testing.T) {
	store := &fakeKnowledgeStore{
		fullText: func(terms string) ([]models.ArticleRecord, error) {
			return []models.ArticleRecord{article("article_55", "Article 55", "Coverage shall not exceed 60 percent.")}, nil
		},
	}
	svc := newTestChatbot(store, intentReply(`{"intent": "regulation_query", "search_terms": "building coverage"}`))

	resp, err := svc.ProcessQuery(context.Background(), ProcessQueryRequest{Query: "What is the coverage limit?", SessionID: "s1"})
	require.NoError(t, err)
	assert.Equal(t, models.MethodFullText, resp.SearchMethod)
	require.Len(t, resp.Sources, 1)
	assert.Equal(t, "article_55", resp.Sources[0].ArticleID)
	assert.Contains(t, resp.Message, "60 percent")

	history, err := svc.GetHistory("s1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, models.RoleUser, history[0].Role)
	assert.Equal(t, "What is the coverage limit?", history[0].Text)
	assert.Equal(t, models.RoleAssistant, history[1].Role)
	assert.Equal(t, resp.Message, history[1].Text)
	assert.Equal(t, 2024, history[1].Timestamp.Year())
}

func TestProcessQuery_MissingArticle(t *testing.T) {
	store := &fakeKnowledgeStore{
		fullText: func(string) ([]models.ArticleRecord, error) {
			return []models.ArticleRecord{article("article_1", "Article 1", "unrelated")}, nil
		},
	}
	svc := newTestChatbot(store, intentReply(`{"intent": "regulation_query", "search_terms": "Article 999"}`))

	resp, err := svc.ProcessQuery(context.Background(), ProcessQueryRequest{Query: "What does Article 999 say?", SessionID: "s1"})
	require.NoError(t, err)
	assert.Contains(t, resp.Message, "Article 999 was not found")
	assert.Empty(t, resp.Sources)
	assert.Equal(t, []string{"lookup"}, store.Calls())
}

func TestProcessQuery_RetrievalFailureApologises(t *testing.T) {
	store := &fakeKnowledgeStore{
		fullText: func(string) ([]models.ArticleRecord, error) { return nil, errors.New("connection refused") },
	}
	svc := newTestChatbot(store, intentReply(`{"intent": "regulation_query", "search_terms": "setback"}`))

	resp, err := svc.ProcessQuery(context.Background(), ProcessQueryRequest{Query: "setback rules?", SessionID: "s1"})
	require.NoError(t, err)
	assert.Equal(t, ApologyMessage, resp.Message)
	assert.Equal(t, models.MethodNone, resp.SearchMethod)

	history, _ := svc.GetHistory("s1")
	assert.Len(t, history, 2)
}

func TestProcessQuery_ClassifierFallbackStillSearches(t *testing.T) {
	store := &fakeKnowledgeStore{
		fullText: func(terms string) ([]models.ArticleRecord, error) {
			return []models.ArticleRecord{article("article_44", "Article 44", "terms: "+terms)}, nil
		},
	}
	svc := newTestChatbot(store, NewIntentClassifier(nil))

	resp, err := svc.ProcessQuery(context.Background(), ProcessQueryRequest{Query: "road width for sites", SessionID: "s1"})
	require.NoError(t, err)
	assert.Equal(t, models.MethodFullText, resp.SearchMethod)
	assert.Contains(t, resp.Message, "terms: road width for sites")
}

func TestChatbot_ModeAndClear(t *testing.T) {
	svc := newTestChatbot(&fakeKnowledgeStore{}, intentReply(`{"intent": "greeting"}`))
	ctx := context.Background()

	mode, err := svc.GetSearchMode("s1")
	require.NoError(t, err)
	assert.Equal(t, models.SearchModeAuto, mode)

	require.NoError(t, svc.SetSearchMode("s1", "vector"))
	mode, _ = svc.GetSearchMode("s1")
	assert.Equal(t, models.SearchModeSimilarity, mode)

	cypher := models.SearchMode("cypher")
	_, err = svc.ProcessQuery(ctx, ProcessQueryRequest{Query: "hi", SessionID: "s1", Mode: &cypher})
	require.NoError(t, err)
	mode, _ = svc.GetSearchMode("s1")
	assert.Equal(t, models.SearchModeSynthesizedQuery, mode)

	require.NoError(t, svc.ClearHistory("s1"))
	history, err := svc.GetHistory("s1")
	require.NoError(t, err)
	assert.Empty(t, history)
	mode, _ = svc.GetSearchMode("s1")
	assert.Equal(t, models.SearchModeAuto, mode)

	assert.ErrorIs(t, svc.ClearHistory("bad id"), ErrInvalidSessionID)
}

func TestChatbot_LookupArticle(t *testing.T) {
	store := &fakeKnowledgeStore{
		lookup: func(ref string) ([]models.ArticleRecord, error) {
			switch ref {
			case "52":
				return []models.ArticleRecord{article("article_52", "Article 52", "text")}, nil
			case "60":
				return nil, errors.New("connection refused")
			}
			return nil, nil
		},
	}
	svc := newTestChatbot(store, nil)

	rec, err := svc.LookupArticle(context.Background(), "52")
	require.NoError(t, err)
	assert.Equal(t, "article_52", rec.ArticleID)

	_, err = svc.LookupArticle(context.Background(), "999")
	assert.ErrorIs(t, err, ErrArticleNotFound)

	_, err = svc.LookupArticle(context.Background(), "")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.LookupArticle(context.Background(), "60")
	assert.ErrorIs(t, err, ErrKnowledgeUnavailable)
	assert.ErrorContains(t, err, "connection refused")

	_, err = NewChatbotService().LookupArticle(context.Background(), "52")
	assert.ErrorIs(t, err, ErrKnowledgeUnavailable)
}
