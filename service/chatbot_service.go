package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/hafidzyami/CivilConstructionApp-sub000/models"
)

const maxQueryLength = 4000

var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.:-]{0,127}$`)

// ChatbotService answers regulation questions within a conversation session
type ChatbotService struct {
	classifier   *IntentClassifier
	orchestrator *RetrievalOrchestrator
	composer     *ResponseComposer
	sessions     *SessionStore
	store        KnowledgeStore
	now          func() time.Time
}

// ChatbotServiceOption is a functional option for ChatbotService
type ChatbotServiceOption func(*ChatbotService)

// ChatbotWithClassifier sets the intent classifier
func ChatbotWithClassifier(c *IntentClassifier) ChatbotServiceOption {
	return func(s *ChatbotService) {
		s.classifier = c
	}
}

// ChatbotWithOrchestrator sets the retrieval orchestrator
func ChatbotWithOrchestrator(o *RetrievalOrchestrator) ChatbotServiceOption {
	return func(s *ChatbotService) {
		s.orchestrator = o
	}
}

// ChatbotWithComposer sets the response composer
func ChatbotWithComposer(c *ResponseComposer) ChatbotServiceOption {
	return func(s *ChatbotService) {
		s.composer = c
	}
}

// ChatbotWithSessionStore sets the session store
func ChatbotWithSessionStore(store *SessionStore) ChatbotServiceOption {
	return func(s *ChatbotService) {
		s.sessions = store
	}
}

// ChatbotWithKnowledgeStore sets the knowledge store used for listings and lookups
func ChatbotWithKnowledgeStore(store KnowledgeStore) ChatbotServiceOption {
	return func(s *ChatbotService) {
		s.store = store
	}
}

// ChatbotWithClock overrides the timestamp source
func ChatbotWithClock(now func() time.Time) ChatbotServiceOption {
	return func(s *ChatbotService) {
		s.now = now
	}
}

// NewChatbotService creates a new chatbot service. Missing collaborators get
// model-less defaults so the service always answers.
func NewChatbotService(opts ...ChatbotServiceOption) *ChatbotService {
	s := &ChatbotService{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	if s.classifier == nil {
		s.classifier = NewIntentClassifier(nil)
	}
	if s.composer == nil {
		s.composer = NewResponseComposer(nil)
	}
	if s.sessions == nil {
		s.sessions = NewSessionStore(DefaultHistoryLimit, DefaultSessionTTL, DefaultSessionCleanup)
	}
	if s.orchestrator == nil {
		s.orchestrator = NewRetrievalOrchestrator()
	}
	return s
}

// ProcessQueryRequest is the input of ProcessQuery
type ProcessQueryRequest struct {
	Query     string
	SessionID string
	// Mode, when set, becomes the session's search mode
	Mode *models.SearchMode
}

// ValidateSessionID rejects empty or malformed session ids
func ValidateSessionID(sessionID string) error {
	if !sessionIDPattern.MatchString(sessionID) {
		return fmt.Errorf("%w: %q", ErrInvalidSessionID, sessionID)
	}
	return nil
}

// ProcessQuery answers one message and records the exchange in the session.
// Only invalid input is returned as an error; upstream failures degrade to
// an apology or a not-found reply.
func (s *ChatbotService) ProcessQuery(ctx context.Context, req ProcessQueryRequest) (*models.ChatResponse, error) {
	if err := ValidateSessionID(req.SessionID); err != nil {
		return nil, err
	}
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, fmt.Errorf("%w: query is required", ErrInvalidInput)
	}
	if len(query) > maxQueryLength {
		return nil, fmt.Errorf("%w: query exceeds %d characters", ErrInvalidInput, maxQueryLength)
	}

	if req.Mode != nil {
		if err := s.SetSearchMode(req.SessionID, *req.Mode); err != nil {
			return nil, err
		}
	}
	mode := s.sessions.Mode(req.SessionID)
	history := s.sessions.History(req.SessionID)
	userMessage := models.ConversationMessage{Role: models.RoleUser, Text: query, Timestamp: s.now()}

	intent, err := s.classifier.Classify(ctx, query, history)
	if err != nil {
		log.Printf("Warning: intent classification fell back for session %s: %v", req.SessionID, err)
	}

	resp := &models.ChatResponse{
		Sources:            []models.Source{},
		SuggestedQuestions: []string{},
		SearchMethod:       models.MethodNone,
	}

	switch intent.Intent {
	case models.IntentGreeting, models.IntentCapability:
		resp.Message = s.composer.SmallTalk(ctx, intent.Intent, query, nil)
		resp.SuggestedQuestions = defaultSuggestions()

	case models.IntentListRegulations:
		regs, err := s.listRegulations(ctx)
		if err != nil {
			log.Printf("Warning: failed to list regulations for session %s: %v", req.SessionID, err)
			resp.Message = ApologyMessage
			break
		}
		resp.Message = s.composer.SmallTalk(ctx, intent.Intent, query, regs)

	default:
		s.answerRegulationQuery(ctx, req.SessionID, mode, query, intent, history, resp)
	}

	assistantMessage := models.ConversationMessage{Role: models.RoleAssistant, Text: resp.Message, Timestamp: s.now()}
	s.sessions.Append(req.SessionID, userMessage, assistantMessage)

	return resp, nil
}

func (s *ChatbotService) answerRegulationQuery(
	ctx context.Context,
	sessionID string,
	mode models.SearchMode,
	query string,
	intent IntentResult,
	history []models.ConversationMessage,
	resp *models.ChatResponse,
) {
	terms := intent.SearchTerms
	if terms == "" {
		terms = query
	}

	result, err := s.orchestrator.Retrieve(ctx, mode, RetrievalQuery{
		Terms:         terms,
		ArticleNumber: intent.ArticleNumber,
		SessionID:     sessionID,
	})
	if err != nil {
		log.Printf("Warning: retrieval failed for session %s: %v", sessionID, err)
		resp.Message = ApologyMessage
		return
	}

	resp.SearchMethod = result.Method
	if len(result.Records) == 0 {
		resp.Message = s.composer.NotFound(terms, result.ArticleNumber, result.ArticleMissing)
		resp.SuggestedQuestions = defaultSuggestions()
		return
	}

	resp.Message = s.composer.Answer(ctx, query, history, result.Records)
	resp.Sources = s.composer.Sources(result.Records)
	resp.SuggestedQuestions = s.composer.SuggestQuestions(ctx, query, result.Records)
}

func (s *ChatbotService) listRegulations(ctx context.Context) ([]models.Regulation, error) {
	if s.store == nil {
		return nil, errors.New("no knowledge store configured")
	}
	return s.store.ListRegulations(ctx)
}

// GetHistory returns the session's messages, oldest first
func (s *ChatbotService) GetHistory(sessionID string) ([]models.ConversationMessage, error) {
	if err := ValidateSessionID(sessionID); err != nil {
		return nil, err
	}
	return s.sessions.History(sessionID), nil
}

// ClearHistory forgets the session; the next message starts a fresh one
func (s *ChatbotService) ClearHistory(sessionID string) error {
	if err := ValidateSessionID(sessionID); err != nil {
		return err
	}
	s.sessions.Clear(sessionID)
	return nil
}

// SetSearchMode sets which retrieval strategies the session uses
func (s *ChatbotService) SetSearchMode(sessionID string, mode models.SearchMode) error {
	if err := ValidateSessionID(sessionID); err != nil {
		return err
	}
	parsed, err := models.ParseSearchMode(string(mode))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	s.sessions.SetMode(sessionID, parsed)
	return nil
}

// GetSearchMode returns the session's search mode
func (s *ChatbotService) GetSearchMode(sessionID string) (models.SearchMode, error) {
	if err := ValidateSessionID(sessionID); err != nil {
		return "", err
	}
	return s.sessions.Mode(sessionID), nil
}

// LookupArticle returns the best match for an article reference
func (s *ChatbotService) LookupArticle(ctx context.Context, ref string) (*models.ArticleRecord, error) {
	if strings.TrimSpace(ref) == "" {
		return nil, fmt.Errorf("%w: article reference is required", ErrInvalidInput)
	}
	if s.store == nil {
		return nil, fmt.Errorf("%w: no knowledge store configured", ErrKnowledgeUnavailable)
	}
	records, err := s.store.LookupArticle(ctx, ref)
	if errors.Is(err, ErrArticleNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("%w: article lookup: %w", ErrKnowledgeUnavailable, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrArticleNotFound, ref)
	}
	return &records[0], nil
}
