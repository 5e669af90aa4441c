// Package sentiment defines the Provider interface for text-sentiment
// backends and the lazy once-only initialisation wrapper shared by the model
// providers.
//
// Two tiers of analysis coexist in the pipeline: a pretrained classifier
// (primary) and a lexical approximation (fallback). The Judgment carries a
// UsedFallback marker so callers can tell a high-confidence model judgment
// from the lexical one.
package sentiment

import "context"

// Labels emitted by every provider. Upper-case by contract.
const (
	LabelPositive = "POSITIVE"
	LabelNegative = "NEGATIVE"
	LabelNeutral  = "NEUTRAL"
)

// Judgment is the normalised sentiment signal for one piece of text.
type Judgment struct {
	// Label is one of LabelPositive, LabelNegative, LabelNeutral.
	Label string

	// Score is a confidence or intensity magnitude in [0, 1]. It is not a
	// signed polarity; direction lives in Label.
	Score float64

	// UsedFallback is true when the judgment came from the lexical analyzer
	// rather than the pretrained classifier.
	UsedFallback bool
}

// Provider is the abstraction over any sentiment backend. Implementations
// must be safe for concurrent use and must accept empty text (scoring it
// neutral rather than failing).
type Provider interface {
	Analyze(ctx context.Context, text string) (Judgment, error)
}
