// Package mock provides a test double for sentiment.Provider.
package mock

import (
	"context"
	"sync"

	"github.com/solacevoice/solace/pkg/provider/sentiment"
)

// Compile-time assertion.
var _ sentiment.Provider = (*Provider)(nil)

// Provider is a configurable sentiment.Provider mock.
type Provider struct {
	Judgment sentiment.Judgment
	Err      error

	mu    sync.Mutex
	Calls []string
}

// Analyze records the text and returns the canned judgment.
func (p *Provider) Analyze(_ context.Context, text string) (sentiment.Judgment, error) {
	p.mu.Lock()
	p.Calls = append(p.Calls, text)
	p.mu.Unlock()

	if p.Err != nil {
		return sentiment.Judgment{}, p.Err
	}
	return p.Judgment, nil
}

// CallCount returns the number of Analyze invocations so far.
func (p *Provider) CallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Calls)
}
