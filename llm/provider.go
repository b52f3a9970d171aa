// Package llm provides the generative language model service: text completion and text embedding.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrUnavailable    = errors.New("language model service unavailable")
	ErrMissingAPIKey  = errors.New("language model API key not set")
	ErrEmptyResponse  = errors.New("language model returned empty content")
	ErrEmptyEmbedding = errors.New("language model returned empty embedding")
)

// Provider is the generative model capability consumed by the engine.
// A nil Provider is valid at call sites and means the model is disabled.
type Provider interface {
	// Name returns the provider name ("gemini", "ollama", "openai")
	Name() string

	// Generate returns the free-text completion of prompt
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	// Embed returns a fixed-length vector for text
	Embed(ctx context.Context, text string) ([]float32, error)
}

// DocumentEmbedder is implemented by providers that embed stored documents
// differently from search queries
type DocumentEmbedder interface {
	EmbedDocument(ctx context.Context, text string) ([]float32, error)
}

// EmbedDocument embeds text that will be stored and searched against.
// Providers without a document mode fall back to Embed.
func EmbedDocument(ctx context.Context, p Provider, text string) ([]float32, error) {
	if d, ok := p.(DocumentEmbedder); ok {
		return d.EmbedDocument(ctx, text)
	}
	return p.Embed(ctx, text)
}

// GenerateOptions configures one completion call
type GenerateOptions struct {
	Temperature float64
	MaxTokens   int
}

// Config holds generative model configuration
type Config struct {
	// Provider name: "gemini", "ollama", "openai", "" or "none" (disabled)
	Provider string

	Model               string
	EmbeddingModel      string
	EmbeddingDimensions int

	// APIKey for Gemini/OpenAI
	APIKey string

	// BaseURL for Ollama or OpenAI-compatible endpoints
	BaseURL string

	Timeout time.Duration

	// RequestsPerSecond paces all calls; zero disables pacing
	RequestsPerSecond float64
	Burst             int
}

// DefaultConfig returns sensible defaults for the Gemini provider
func DefaultConfig() Config {
	return Config{
		Provider:            "gemini",
		Model:               "gemini-2.0-flash",
		EmbeddingModel:      "text-embedding-004",
		EmbeddingDimensions: 768,
		Timeout:             60 * time.Second,
		RequestsPerSecond:   5,
		Burst:               5,
	}
}

// NewProvider creates a provider based on configuration.
// An empty provider name returns (nil, nil): the model is disabled.
func NewProvider(ctx context.Context, config Config) (Provider, error) {
	var (
		p   Provider
		err error
	)

	switch strings.ToLower(config.Provider) {
	case "gemini", "google":
		p, err = NewGeminiProvider(ctx, config)
	case "ollama":
		p, err = NewOllamaProvider(config)
	case "openai":
		p, err = NewOpenAIProvider(config)
	case "", "none", "disabled":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: gemini, ollama, openai)", config.Provider)
	}
	if err != nil {
		return nil, err
	}

	if config.RequestsPerSecond > 0 {
		p = NewRateLimited(p, config.RequestsPerSecond, config.Burst)
	}
	return p, nil
}

// withTimeout applies the configured per-call timeout
func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return context.WithTimeout(ctx, timeout)
}
