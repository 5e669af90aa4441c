package resilience

import (
	"errors"
	"fmt"
	"log/slog"
)

// ErrAllFailed is returned when every tier in a [FallbackGroup] fails or is
// behind an open circuit breaker.
var ErrAllFailed = errors.New("all providers failed")

// FallbackConfig configures the circuit breaker stamped out for each tier of
// a [FallbackGroup]. The breaker Name is overwritten with the tier name.
type FallbackConfig struct {
	CircuitBreaker CircuitBreakerConfig
}

// tier is one provider in a [FallbackGroup] with its own breaker.
type tier[T any] struct {
	name     string
	provider T
	breaker  *CircuitBreaker
}

// FallbackGroup chains a primary and zero or more fallback instances of the
// same provider type. Each call walks the tiers in registration order and
// stops at the first that is both admitted by its breaker and succeeds.
//
// Tiers must all be registered before the first call; afterwards the group is
// safe for concurrent use.
type FallbackGroup[T any] struct {
	tiers []tier[T]
	cfg   FallbackConfig
}

// NewFallbackGroup creates a [FallbackGroup] whose first tier is primary.
// Register further tiers with [FallbackGroup.AddFallback].
func NewFallbackGroup[T any](primary T, primaryName string, cfg FallbackConfig) *FallbackGroup[T] {
	fg := &FallbackGroup[T]{cfg: cfg}
	fg.AddFallback(primaryName, primary)
	return fg
}

// AddFallback appends a tier behind all previously registered ones.
func (fg *FallbackGroup[T]) AddFallback(name string, provider T) {
	bcfg := fg.cfg.CircuitBreaker
	bcfg.Name = name
	fg.tiers = append(fg.tiers, tier[T]{
		name:     name,
		provider: provider,
		breaker:  NewCircuitBreaker(bcfg),
	})
}

// Execute runs fn against each tier until one succeeds. Tiers with an open
// breaker are skipped. When no tier succeeds the last error is wrapped in
// [ErrAllFailed].
func (fg *FallbackGroup[T]) Execute(fn func(T) error) error {
	_, err := ExecuteWithResult(fg, func(p T) (struct{}, error) {
		return struct{}{}, fn(p)
	})
	return err
}

// ExecuteWithResult runs fn against each tier of fg until one succeeds and
// returns that tier's result. A package-level function because methods cannot
// introduce the result type parameter.
func ExecuteWithResult[T any, R any](fg *FallbackGroup[T], fn func(T) (R, error)) (R, error) {
	var lastErr error
	for i := range fg.tiers {
		t := &fg.tiers[i]
		var out R
		err := t.breaker.Execute(func() error {
			var callErr error
			out, callErr = fn(t.provider)
			return callErr
		})
		if err == nil {
			return out, nil
		}
		lastErr = err
		if errors.Is(err, ErrCircuitOpen) {
			slog.Debug("skipping provider (circuit open)", "provider", t.name)
		} else {
			slog.Warn("provider failed, trying next", "provider", t.name, "error", err)
		}
	}
	var zero R
	return zero, fmt.Errorf("%w: %v", ErrAllFailed, lastErr)
}
