package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"
	"github.com/ollama/ollama/envconfig"
)

// OllamaProvider implements Provider against a local Ollama server
type OllamaProvider struct {
	client *api.Client
	config Config
}

// NewOllamaProvider creates a new Ollama provider.
// An empty BaseURL falls back to OLLAMA_HOST.
func NewOllamaProvider(config Config) (*OllamaProvider, error) {
	hostURL := envconfig.Host()
	if config.BaseURL != "" {
		u, err := url.Parse(config.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid Ollama base URL: %w", err)
		}
		hostURL = u
	}
	if config.Model == "" {
		config.Model = "llama3.1"
	}
	if config.EmbeddingModel == "" {
		config.EmbeddingModel = "nomic-embed-text"
	}

	return &OllamaProvider{
		client: api.NewClient(hostURL, http.DefaultClient),
		config: config,
	}, nil
}

// Name returns the provider name
func (p *OllamaProvider) Name() string {
	return "ollama"
}

// Generate generates a non-streamed completion
func (p *OllamaProvider) Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	ctx, cancel := withTimeout(ctx, p.config.Timeout)
	defer cancel()

	stream := false
	options := map[string]any{
		"temperature": opts.Temperature,
	}
	if opts.MaxTokens > 0 {
		options["num_predict"] = opts.MaxTokens
	}

	req := api.GenerateRequest{
		Model:   p.config.Model,
		Prompt:  prompt,
		Stream:  &stream,
		Options: options,
	}

	var sb strings.Builder
	err := p.client.Generate(ctx, &req, func(resp api.GenerateResponse) error {
		_, err := sb.WriteString(resp.Response)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate response: %w", err)
	}

	if strings.TrimSpace(sb.String()) == "" {
		return "", ErrEmptyResponse
	}
	return sb.String(), nil
}

// Embed creates an embedding and narrows it to float32
func (p *OllamaProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := withTimeout(ctx, p.config.Timeout)
	defer cancel()

	resp, err := p.client.Embeddings(ctx, &api.EmbeddingRequest{
		Model:  p.config.EmbeddingModel,
		Prompt: text,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding: %w", err)
	}
	if len(resp.Embedding) == 0 {
		return nil, ErrEmptyEmbedding
	}

	out := make([]float32, len(resp.Embedding))
	for i, v := range resp.Embedding {
		out[i] = float32(v)
	}
	return out, nil
}
