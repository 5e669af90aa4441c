// Package mock provides a test double for tts.Provider.
package mock

import (
	"context"
	"sync"

	"github.com/solacevoice/solace/pkg/provider/tts"
)

// Compile-time assertion.
var _ tts.Provider = (*Provider)(nil)

// Provider is a configurable tts.Provider mock.
type Provider struct {
	Audio []byte
	Err   error

	mu    sync.Mutex
	Calls []string
}

// Synthesize records the text and returns the canned audio.
func (p *Provider) Synthesize(_ context.Context, text string) ([]byte, error) {
	p.mu.Lock()
	p.Calls = append(p.Calls, text)
	p.mu.Unlock()

	if p.Err != nil {
		return nil, p.Err
	}
	return p.Audio, nil
}

// CallCount returns the number of Synthesize invocations so far.
func (p *Provider) CallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Calls)
}
