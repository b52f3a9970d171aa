package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hafidzyami/CivilConstructionApp-sub000/llm"
	"github.com/hafidzyami/CivilConstructionApp-sub000/models"
)

// intentHistoryWindow is the number of prior messages (3 exchanges) shown to the classifier
const intentHistoryWindow = 6

// IntentResult is the structured reading of a user message
type IntentResult struct {
	Intent      models.Intent
	SearchTerms string
	// ArticleNumber is set when the message names an explicit provision ("52", "52-3")
	ArticleNumber string
	// Fallback is true when the model output could not be used
	Fallback bool
}

// IntentClassifier maps a message plus recent dialogue to an intent
type IntentClassifier struct {
	llm llm.Provider
}

// NewIntentClassifier creates a classifier; a nil provider always falls back
func NewIntentClassifier(provider llm.Provider) *IntentClassifier {
	return &IntentClassifier{llm: provider}
}

type intentPayload struct {
	Intent      string `json:"intent"`
	SearchTerms string `json:"search_terms"`
}

// Classify returns the intent of message. On any model or parse failure it
// returns the fallback reading (the whole message as regulation-query terms)
// together with the error, so callers can log and continue.
func (c *IntentClassifier) Classify(ctx context.Context, message string, history []models.ConversationMessage) (IntentResult, error) {
	fallback := fallbackIntent(message)

	if c.llm == nil {
		return fallback, ErrLLMUnavailable
	}

	raw, err := c.llm.Generate(ctx, buildIntentPrompt(message, history), llm.GenerateOptions{Temperature: 0, MaxTokens: 200})
	if err != nil {
		return fallback, fmt.Errorf("%w: %w", ErrLLMUnavailable, err)
	}

	var payload intentPayload
	if err := json.Unmarshal([]byte(llm.ExtractJSON(raw)), &payload); err != nil {
		return fallback, fmt.Errorf("%w: intent: %w", ErrMalformedOutput, err)
	}

	intent, ok := parseIntent(payload.Intent)
	if !ok {
		return fallback, fmt.Errorf("%w: unknown intent %q", ErrMalformedOutput, payload.Intent)
	}

	result := IntentResult{Intent: intent}
	if intent != models.IntentRegulationQuery {
		return result, nil
	}

	result.SearchTerms = strings.TrimSpace(payload.SearchTerms)
	if result.SearchTerms == "" {
		result.SearchTerms = strings.TrimSpace(message)
	}
	result.ArticleNumber = explicitArticleNumber(result.SearchTerms)
	if result.ArticleNumber == "" {
		result.ArticleNumber = explicitArticleNumber(message)
	}
	return result, nil
}

func fallbackIntent(message string) IntentResult {
	terms := strings.TrimSpace(message)
	return IntentResult{
		Intent:        models.IntentRegulationQuery,
		SearchTerms:   terms,
		ArticleNumber: explicitArticleNumber(terms),
		Fallback:      true,
	}
}

func parseIntent(s string) (models.Intent, bool) {
	switch strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), "-", "_")) {
	case "greeting":
		return models.IntentGreeting, true
	case "capability_question", "capability":
		return models.IntentCapability, true
	case "list_regulations":
		return models.IntentListRegulations, true
	case "regulation_query":
		return models.IntentRegulationQuery, true
	}
	return "", false
}

// explicitArticleNumber returns the article number named in text, if any.
// Bare numbers only count when they are the whole text.
func explicitArticleNumber(text string) string {
	if n, ok := models.NormalizeArticleNumber(text); ok {
		return n
	}
	if mentions := models.ExtractArticleMentions(text); len(mentions) > 0 {
		return mentions[0]
	}
	return ""
}

func buildIntentPrompt(message string, history []models.ConversationMessage) string {
	var b strings.Builder
	b.WriteString(`You classify messages sent to a building regulation assistant.
Reply with one JSON object and nothing else:
{"intent": "<greeting|capability_question|list_regulations|regulation_query>", "search_terms": "<terms>"}

Intents:
- greeting: hello, thanks, small talk
- capability_question: asking what the assistant can do
- list_regulations: asking which regulations or laws are available
- regulation_query: anything about building rules, permits, ratios, articles

For regulation_query, search_terms holds the words to search for. If the user names an
article number (e.g. "Article 52", "52-3", "제52조"), search_terms must be just "Article <number>".
Resolve follow-ups such as "what about the next one" using the conversation.
`)

	if window := lastMessages(history, intentHistoryWindow); len(window) > 0 {
		b.WriteString("\nConversation so far:\n")
		b.WriteString(formatDialogue(window))
	}

	fmt.Fprintf(&b, "\nMessage: %s\n", message)
	return b.String()
}

func lastMessages(history []models.ConversationMessage, n int) []models.ConversationMessage {
	if len(history) <= n {
		return history
	}
	return history[len(history)-n:]
}

func formatDialogue(messages []models.ConversationMessage) string {
	var b strings.Builder
	for _, m := range messages {
		role := "User"
		if m.Role == models.RoleAssistant {
			role = "Assistant"
		}
		fmt.Fprintf(&b, "%s: %s\n", role, m.Text)
	}
	return b.String()
}
