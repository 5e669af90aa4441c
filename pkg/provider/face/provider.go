// Package face defines the Provider interface for facial-emotion backends.
//
// Facial emotion is an advisory signal: the turn pipeline never fails a
// request because face analysis failed. Providers therefore report errors
// normally and the orchestrator downgrades them to the UNKNOWN sentinel.
package face

import (
	"context"
	"image"
)

// LabelUnknown is the sentinel label for "no usable face signal". It is an
// explicit value, not an absent field: whenever a face image was supplied but
// could not be analysed, the pipeline emits this label with score 0.
const LabelUnknown = "UNKNOWN"

// Judgment is the dominant emotion detected in one face image.
type Judgment struct {
	// Label is the upper-cased emotion name (e.g., "HAPPY", "SAD").
	Label string

	// Score is the backend's confidence for Label in [0, 100].
	Score float64
}

// Provider is the abstraction over any face-emotion backend. Implementations
// must tolerate images with no detectable face — returning their best guess
// rather than an error — and must be safe for concurrent use.
type Provider interface {
	Analyze(ctx context.Context, img image.Image) (Judgment, error)
}
