package llm

import (
	"context"
	"sync"
)

// MockProvider is a scriptable Provider for tests
type MockProvider struct {
	mu          sync.Mutex
	prompts     []string
	embedInputs []string
	documents   int

	GenerateFunc func(prompt string) (string, error)
	EmbedFunc    func(text string) ([]float32, error)
}

// Name returns "mock"
func (m *MockProvider) Name() string {
	return "mock"
}

// Generate records the prompt and delegates to GenerateFunc
func (m *MockProvider) Generate(_ context.Context, prompt string, _ GenerateOptions) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()
	if m.GenerateFunc == nil {
		return "", ErrUnavailable
	}
	return m.GenerateFunc(prompt)
}

// Embed records the text and delegates to EmbedFunc
func (m *MockProvider) Embed(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	m.embedInputs = append(m.embedInputs, text)
	m.mu.Unlock()
	if m.EmbedFunc == nil {
		return nil, ErrUnavailable
	}
	return m.EmbedFunc(text)
}

// EmbedDocument records the text as a document embedding and delegates to EmbedFunc
func (m *MockProvider) EmbedDocument(ctx context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	m.documents++
	m.mu.Unlock()
	return m.Embed(ctx, text)
}

// Prompts returns every prompt passed to Generate
func (m *MockProvider) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}

// EmbedCalls returns the number of Embed calls
func (m *MockProvider) EmbedCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.embedInputs)
}

// DocumentEmbedCalls returns the number of EmbedDocument calls
func (m *MockProvider) DocumentEmbedCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.documents
}
