package resilience

import (
	"context"

	"github.com/solacevoice/solace/pkg/provider/sentiment"
)

// SentimentFallback implements [sentiment.Provider] with automatic failover
// from a model-backed classifier to a lexical analyzer. Each tier has its own
// circuit breaker, so a classifier that repeatedly fails to load or infer is
// skipped without paying its latency on every turn.
type SentimentFallback struct {
	group *FallbackGroup[sentiment.Provider]
}

// Compile-time interface assertion.
var _ sentiment.Provider = (*SentimentFallback)(nil)

// NewSentimentFallback creates a [SentimentFallback] with primary as the
// preferred classifier.
func NewSentimentFallback(primary sentiment.Provider, primaryName string, cfg FallbackConfig) *SentimentFallback {
	return &SentimentFallback{
		group: NewFallbackGroup(primary, primaryName, cfg),
	}
}

// AddFallback registers an additional sentiment provider as a fallback.
func (f *SentimentFallback) AddFallback(name string, provider sentiment.Provider) {
	f.group.AddFallback(name, provider)
}

// Analyze runs the text through the first healthy tier. The judgment keeps
// whatever UsedFallback flag the serving provider set, so callers can still
// distinguish a model verdict from a lexical approximation.
func (f *SentimentFallback) Analyze(ctx context.Context, text string) (sentiment.Judgment, error) {
	return ExecuteWithResult(f.group, func(p sentiment.Provider) (sentiment.Judgment, error) {
		return p.Analyze(ctx, text)
	})
}
