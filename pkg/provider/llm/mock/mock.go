// Package mock provides a test double for llm.Provider.
package mock

import (
	"context"
	"sync"

	"github.com/solacevoice/solace/pkg/provider/llm"
)

// Compile-time assertion.
var _ llm.Provider = (*Provider)(nil)

// Provider is a configurable llm.Provider mock.
type Provider struct {
	Content string
	Err     error

	mu    sync.Mutex
	Calls []llm.CompletionRequest
}

// Complete records the request and returns the canned response.
func (p *Provider) Complete(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	p.mu.Lock()
	p.Calls = append(p.Calls, req)
	p.mu.Unlock()

	if p.Err != nil {
		return nil, p.Err
	}
	return &llm.CompletionResponse{Content: p.Content}, nil
}

// CallCount returns the number of Complete invocations so far.
func (p *Provider) CallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Calls)
}

// LastPrompt returns the prompt of the most recent call, or "".
func (p *Provider) LastPrompt() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.Calls) == 0 {
		return ""
	}
	return p.Calls[len(p.Calls)-1].Prompt
}
