// Package llm abstracts the text-generation call the processors depend on.
// The model's reasoning is opaque; callers define what is sent and validate
// the reply themselves.
package llm

import (
	"context"
	"time"
)

// Request is a single completion request.
type Request struct {
	// Prompt is the full instruction payload (see internal/costar).
	Prompt string

	// Model overrides the client default when set.
	Model string

	// Temperature of 0 means "use the provider default".
	Temperature float64

	// JSONResponse asks the provider to constrain output to a JSON object.
	JSONResponse bool

	// Timeout bounds this call when set. Zero means no client-side timeout;
	// the call then runs until completion or context cancellation.
	Timeout time.Duration
}

// Result is the reply to a Request.
type Result struct {
	Content string

	// Model actually used by the provider.
	Model string

	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Client is implemented by model providers.
type Client interface {
	// Complete sends one request and returns the raw reply content.
	Complete(ctx context.Context, req *Request) (*Result, error)

	// Name returns the provider identifier, e.g. "openai".
	Name() string
}
