package models

import (
	"fmt"
	"strings"
	"time"
)

// MessageRole represents the author of a conversation message
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// ConversationMessage is a single entry in a session's history
type ConversationMessage struct {
	Role      MessageRole `json:"role"`
	Text      string      `json:"text"`
	Timestamp time.Time   `json:"timestamp"`
}

// SearchMode controls which retrieval strategies a session attempts
type SearchMode string

const (
	SearchModeAuto             SearchMode = "auto"
	SearchModeSimilarity       SearchMode = "similarity"
	SearchModeSynthesizedQuery SearchMode = "synthesized-query"
)

// ParseSearchMode accepts the canonical names plus the legacy "vector" and "cypher" aliases
func ParseSearchMode(s string) (SearchMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return SearchModeAuto, nil
	case "similarity", "vector":
		return SearchModeSimilarity, nil
	case "synthesized-query", "synthesized_query", "cypher":
		return SearchModeSynthesizedQuery, nil
	default:
		return "", fmt.Errorf("unknown search mode: %q", s)
	}
}

// SearchMethod names the strategy that produced a result set
type SearchMethod string

const (
	MethodDirectLookup     SearchMethod = "direct-lookup"
	MethodSimilarity       SearchMethod = "similarity"
	MethodSynthesizedQuery SearchMethod = "synthesized-query"
	MethodFullText         SearchMethod = "full-text"
	MethodNone             SearchMethod = "none"
)

// Intent is the classified purpose of a user message
type Intent string

const (
	IntentGreeting        Intent = "greeting"
	IntentCapability      Intent = "capability_question"
	IntentListRegulations Intent = "list_regulations"
	IntentRegulationQuery Intent = "regulation_query"
)

// Source is a citation attached to a chat answer
type Source struct {
	ArticleID  string   `json:"articleId"`
	Title      string   `json:"title"`
	Regulation string   `json:"regulation"`
	Excerpt    string   `json:"excerpt"`
	NodeType   NodeType `json:"nodeType"`
	Score      float64  `json:"score"`
}

// ChatResponse is the externally visible result of a chat query
type ChatResponse struct {
	Message            string       `json:"message"`
	Sources            []Source     `json:"sources"`
	SuggestedQuestions []string     `json:"suggestedQuestions"`
	SearchMethod       SearchMethod `json:"searchMethod"`
}
