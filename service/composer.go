package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hafidzyami/CivilConstructionApp-sub000/llm"
	"github.com/hafidzyami/CivilConstructionApp-sub000/models"
)

const (
	maxSources        = 5
	sourceExcerptLen  = 500
	maxSuggestions    = 3
	answerContextSize = 10
)

// DefaultSuggestedQuestions is used whenever follow-up generation fails
var DefaultSuggestedQuestions = []string{
	"What is the maximum building coverage ratio?",
	"What are the floor area ratio limits?",
	"Which buildings require a construction permit?",
}

// ApologyMessage is the reply when retrieval could not run at all
const ApologyMessage = "Sorry, I could not search the regulations just now. Please try rephrasing your question or ask again in a moment."

const capabilityTemplate = `I can help you with Korean building regulations:
- Explain specific articles (for example "What does Article 55 say?")
- Answer questions about building coverage ratio, floor area ratio, setbacks, road access and permits
- Show how regional ordinances narrow the national Building Act
- List the regulations I have loaded`

const greetingTemplate = "Hello! I am the building regulation assistant. Ask me about any article, ratio limit or permit requirement."

// ResponseComposer builds the user-visible reply for each intent
type ResponseComposer struct {
	llm llm.Provider
}

// NewResponseComposer creates a composer; a nil provider uses templates only
func NewResponseComposer(provider llm.Provider) *ResponseComposer {
	return &ResponseComposer{llm: provider}
}

// SmallTalk replies to greeting, capability and list-regulation intents
func (c *ResponseComposer) SmallTalk(ctx context.Context, intent models.Intent, message string, regulations []models.Regulation) string {
	var template string
	switch intent {
	case models.IntentGreeting:
		template = greetingTemplate
	case models.IntentListRegulations:
		template = regulationListTemplate(regulations)
		// the list itself must not be paraphrased
		return template
	default:
		template = capabilityTemplate
	}

	if c.llm == nil {
		return template
	}
	prompt := fmt.Sprintf(`You are a friendly building regulation assistant. Reply to the user in at most three sentences,
in the user's language, conveying this content:
%s

User: %s`, template, message)

	reply, err := c.llm.Generate(ctx, prompt, llm.GenerateOptions{Temperature: 0.5, MaxTokens: 300})
	if err != nil || strings.TrimSpace(reply) == "" {
		return template
	}
	return strings.TrimSpace(reply)
}

func regulationListTemplate(regulations []models.Regulation) string {
	if len(regulations) == 0 {
		return "No regulations are loaded yet."
	}
	var b strings.Builder
	b.WriteString("These regulations are available:\n")
	for _, r := range regulations {
		fmt.Fprintf(&b, "- %s (%s", r.Name, r.Level)
		if r.ArticleCount > 0 {
			fmt.Fprintf(&b, ", %d provisions", r.ArticleCount)
		}
		b.WriteString(")\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// NotFound explains an empty result. When articleMissing is set the reply
// states that the article number is not in the corpus.
func (c *ResponseComposer) NotFound(query, articleNumber string, articleMissing bool) string {
	if articleMissing && articleNumber != "" {
		return fmt.Sprintf("Article %s was not found in the loaded regulations. "+
			"The numbering may skip it, the provision may have been repealed, "+
			"or it may belong to a regulation of another jurisdiction. "+
			"Try a neighbouring article number or describe the topic instead.", articleNumber)
	}
	return fmt.Sprintf("I could not find any provision related to %q. "+
		"Try different keywords or mention a specific article number.", strings.TrimSpace(query))
}

// Answer produces a grounded answer citing only records
func (c *ResponseComposer) Answer(ctx context.Context, question string, history []models.ConversationMessage, records []models.ArticleRecord) string {
	if c.llm == nil {
		return extractiveAnswer(records)
	}

	reply, err := c.llm.Generate(ctx, buildAnswerPrompt(question, history, records), llm.GenerateOptions{Temperature: 0.2, MaxTokens: 1200})
	if err != nil || strings.TrimSpace(reply) == "" {
		return extractiveAnswer(records)
	}
	return strings.TrimSpace(reply)
}

func buildAnswerPrompt(question string, history []models.ConversationMessage, records []models.ArticleRecord) string {
	var b strings.Builder
	b.WriteString(`You answer questions about building regulations.
Use only the provisions below. Cite each provision you rely on by its name.
If the provisions do not answer the question, say so.

Provisions:
`)
	for i, r := range records {
		if i == answerContextSize {
			break
		}
		fmt.Fprintf(&b, "[%s] %s", r.Regulation, r.Name)
		if r.Title != "" {
			fmt.Fprintf(&b, " (%s)", r.Title)
		}
		fmt.Fprintf(&b, "\n%s\n\n", llm.Truncate(r.Text, 1500))
	}

	if window := lastMessages(history, intentHistoryWindow); len(window) > 0 {
		b.WriteString("Conversation so far:\n")
		b.WriteString(formatDialogue(window))
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Question: %s\nAnswer:", question)
	return b.String()
}

// extractiveAnswer lists the top records when the model cannot phrase an answer
func extractiveAnswer(records []models.ArticleRecord) string {
	var b strings.Builder
	b.WriteString("Here are the most relevant provisions I found:\n")
	for i, r := range records {
		if i == maxSources {
			break
		}
		fmt.Fprintf(&b, "\n%s", r.Name)
		if r.Regulation != "" {
			fmt.Fprintf(&b, " (%s)", r.Regulation)
		}
		fmt.Fprintf(&b, ": %s\n", llm.Truncate(r.Text, 300))
	}
	return strings.TrimRight(b.String(), "\n")
}

// Sources returns up to five citations with excerpts truncated to 500 characters
func (c *ResponseComposer) Sources(records []models.ArticleRecord) []models.Source {
	n := min(len(records), maxSources)
	sources := make([]models.Source, 0, n)
	for _, r := range records[:n] {
		title := r.Title
		if title == "" {
			title = r.Name
		}
		sources = append(sources, models.Source{
			ArticleID:  r.ArticleID,
			Title:      title,
			Regulation: r.Regulation,
			Excerpt:    llm.Truncate(r.Text, sourceExcerptLen),
			NodeType:   r.NodeType,
			Score:      r.Score,
		})
	}
	return sources
}

// SuggestQuestions returns up to three follow-up questions, or the default list on any failure
func (c *ResponseComposer) SuggestQuestions(ctx context.Context, question string, records []models.ArticleRecord) []string {
	if c.llm == nil {
		return defaultSuggestions()
	}

	var topics []string
	for i, r := range records {
		if i == maxSources {
			break
		}
		topics = append(topics, r.Name)
	}
	prompt := fmt.Sprintf(`A user asked a building regulation assistant: %q
The answer used these provisions: %s
Suggest three short follow-up questions the user might ask next.
Reply with a JSON array of strings and nothing else.`, question, strings.Join(topics, "; "))

	raw, err := c.llm.Generate(ctx, prompt, llm.GenerateOptions{Temperature: 0.7, MaxTokens: 300})
	if err != nil {
		return defaultSuggestions()
	}

	var suggestions []string
	if err := json.Unmarshal([]byte(llm.ExtractJSON(raw)), &suggestions); err != nil {
		return defaultSuggestions()
	}

	out := make([]string, 0, maxSuggestions)
	for _, s := range suggestions {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
		if len(out) == maxSuggestions {
			break
		}
	}
	if len(out) == 0 {
		return defaultSuggestions()
	}
	return out
}

func defaultSuggestions() []string {
	return append([]string(nil), DefaultSuggestedQuestions...)
}
