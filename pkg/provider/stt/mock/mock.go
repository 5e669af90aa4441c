// Package mock provides a test double for stt.Provider.
package mock

import (
	"context"
	"sync"

	"github.com/solacevoice/solace/pkg/provider/stt"
)

// Compile-time assertion.
var _ stt.Provider = (*Provider)(nil)

// Provider is a configurable stt.Provider mock. Set Text or Err before use;
// call records are appended under an internal lock so concurrent turns can be
// asserted on.
type Provider struct {
	Text string
	Err  error

	mu    sync.Mutex
	Calls [][]float32
}

// Transcribe records the call and returns the canned result.
func (p *Provider) Transcribe(_ context.Context, samples []float32) (stt.Result, error) {
	p.mu.Lock()
	p.Calls = append(p.Calls, samples)
	p.mu.Unlock()

	if p.Err != nil {
		return stt.Result{}, p.Err
	}
	return stt.Result{Text: p.Text}, nil
}

// CallCount returns the number of Transcribe invocations so far.
func (p *Provider) CallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Calls)
}
