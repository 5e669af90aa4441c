package sentiment

import (
	"context"
	"sync"
)

// Compile-time assertion.
var _ Provider = (*Lazy)(nil)

// Lazy defers construction of an expensive Provider (model load, sidecar
// warm-up) until the first Analyze call. Construction happens exactly once:
// concurrent first callers block on the same initialisation, and both the
// resulting provider and any construction error are cached for the process
// lifetime.
type Lazy struct {
	build func() (Provider, error)

	once     sync.Once
	provider Provider
	err      error
}

// NewLazy wraps build in a [Lazy]. build is invoked at most once.
func NewLazy(build func() (Provider, error)) *Lazy {
	return &Lazy{build: build}
}

// Analyze initialises the underlying provider on first use and delegates to
// it. A cached construction error is returned on every subsequent call so the
// caller's fallback tier takes over permanently.
func (l *Lazy) Analyze(ctx context.Context, text string) (Judgment, error) {
	l.once.Do(func() {
		l.provider, l.err = l.build()
	})
	if l.err != nil {
		return Judgment{}, l.err
	}
	return l.provider.Analyze(ctx, text)
}
