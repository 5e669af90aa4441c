// Package llm defines the Provider interface for text-generation backends.
//
// The turn pipeline needs exactly one completion per turn, so the interface
// is deliberately smaller than a general chat client: a single synchronous
// Complete call, no streaming, no tool calling. Implementations must be safe
// for concurrent use and must honour context cancellation.
package llm

import "context"

// CompletionRequest carries everything the model needs for one reply.
type CompletionRequest struct {
	// Prompt is the fully composed user-facing prompt (see internal/turn's
	// prompt composer). Must be non-empty.
	Prompt string

	// Temperature controls output randomness in [0.0, 2.0]. Zero means use
	// the provider default.
	Temperature float64

	// MaxTokens caps the completion length. Zero means provider default.
	MaxTokens int
}

// CompletionResponse is the model's reply.
type CompletionResponse struct {
	// Content is the full text of the reply.
	Content string
}

// Provider is the abstraction over any text-generation backend.
type Provider interface {
	// Complete sends req to the model and waits for the full response.
	// Returns an error if the request fails or ctx is cancelled first.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}
