package graphdb

import (
	"context"
	"sync"
)

// MockCall represents a recorded call on the mock client
type MockCall struct {
	Method string
	Cypher string
	Params map[string]any
}

// MockClient is a scriptable Client for tests.
// ReadFunc/WriteFunc decide the response; every call is recorded.
type MockClient struct {
	mu    sync.Mutex
	calls []MockCall

	ReadFunc  func(cypher string, params map[string]any) ([]Record, error)
	WriteFunc func(cypher string, params map[string]any) (WriteSummary, error)
}

// NewMockClient creates a mock that returns no rows for every read
func NewMockClient() *MockClient {
	return &MockClient{}
}

// Read records the call and delegates to ReadFunc
func (m *MockClient) Read(_ context.Context, cypher string, params map[string]any) ([]Record, error) {
	m.record("Read", cypher, params)
	if m.ReadFunc == nil {
		return nil, nil
	}
	return m.ReadFunc(cypher, params)
}

// Write records the call and delegates to WriteFunc
func (m *MockClient) Write(_ context.Context, cypher string, params map[string]any) (WriteSummary, error) {
	m.record("Write", cypher, params)
	if m.WriteFunc == nil {
		return WriteSummary{}, nil
	}
	return m.WriteFunc(cypher, params)
}

// Close is a no-op
func (m *MockClient) Close(context.Context) error {
	return nil
}

// Calls returns a copy of every recorded call
func (m *MockClient) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallsTo returns the recorded calls for one method
func (m *MockClient) CallsTo(method string) []MockCall {
	var out []MockCall
	for _, c := range m.Calls() {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

func (m *MockClient) record(method, cypher string, params map[string]any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, MockCall{Method: method, Cypher: cypher, Params: params})
}
