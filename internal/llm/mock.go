package llm

import (
	"context"
	"fmt"
	"sync"
)

// MockClient is a scripted Client for tests. Replies are returned in order;
// once exhausted, Complete fails. All methods are safe for concurrent use.
type MockClient struct {
	mu sync.Mutex

	// Replies returned in order by Complete.
	Replies []string

	// Err, when set, is returned by every Complete call.
	Err error

	calls []Request
}

// NewMockClient returns a mock that answers with the given replies.
func NewMockClient(replies ...string) *MockClient {
	return &MockClient{Replies: replies}
}

// Name returns "mock".
func (m *MockClient) Name() string {
	return "mock"
}

// Complete returns the next scripted reply.
func (m *MockClient) Complete(ctx context.Context, req *Request) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, *req)
	if m.Err != nil {
		return nil, m.Err
	}
	if len(m.calls) > len(m.Replies) {
		return nil, fmt.Errorf("mock: no reply scripted for call %d", len(m.calls))
	}

	return &Result{
		Content: m.Replies[len(m.calls)-1],
		Model:   "mock-model",
	}, nil
}

// Calls returns a copy of all requests seen so far.
func (m *MockClient) Calls() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount returns the number of Complete invocations.
func (m *MockClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}
