// Package mock provides a test double for face.Provider.
package mock

import (
	"context"
	"image"
	"sync"

	"github.com/solacevoice/solace/pkg/provider/face"
)

// Compile-time assertion.
var _ face.Provider = (*Provider)(nil)

// Provider is a configurable face.Provider mock.
type Provider struct {
	Judgment face.Judgment
	Err      error

	mu    sync.Mutex
	Calls []image.Image
}

// Analyze records the image and returns the canned judgment.
func (p *Provider) Analyze(_ context.Context, img image.Image) (face.Judgment, error) {
	p.mu.Lock()
	p.Calls = append(p.Calls, img)
	p.mu.Unlock()

	if p.Err != nil {
		return face.Judgment{}, p.Err
	}
	return p.Judgment, nil
}

// CallCount returns the number of Analyze invocations so far.
func (p *Provider) CallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Calls)
}
