package llm

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// RateLimited paces every call of the wrapped provider with a token bucket
type RateLimited struct {
	inner   Provider
	limiter *rate.Limiter
}

// NewRateLimited wraps p so that at most rps calls per second reach it
func NewRateLimited(p Provider, rps float64, burst int) *RateLimited {
	if burst < 1 {
		burst = 1
	}
	return &RateLimited{
		inner:   p,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// Name returns the wrapped provider name
func (r *RateLimited) Name() string {
	return r.inner.Name()
}

// Generate waits for a token then delegates
func (r *RateLimited) Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}
	return r.inner.Generate(ctx, prompt, opts)
}

// Embed waits for a token then delegates
func (r *RateLimited) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}
	return r.inner.Embed(ctx, text)
}

// EmbedDocument waits for a token then delegates, keeping the document mode of the inner provider
func (r *RateLimited) EmbedDocument(ctx context.Context, text string) ([]float32, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}
	return EmbedDocument(ctx, r.inner, text)
}

// Unwrap returns the paced provider
func (r *RateLimited) Unwrap() Provider {
	return r.inner
}
