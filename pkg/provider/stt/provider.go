// Package stt defines the Provider interface for speech-to-text backends.
//
// Unlike streaming transcription services, the solace pipeline works on
// complete, bounded uploads: the whole file is decoded into a PCM buffer and
// recognised in one synchronous call. Implementations must be safe for
// concurrent use; multiple turns may transcribe at the same time.
package stt

import (
	"context"
	"errors"
)

// ErrNoSpeech is returned when the recognizer processed the audio but found
// nothing intelligible in it. Callers treat this as a caller error, distinct
// from infrastructure failures.
var ErrNoSpeech = errors.New("stt: no intelligible speech")

// Result is the outcome of a successful recognition call.
type Result struct {
	// Text is the recognised utterance, trimmed and lower-cased the way the
	// downstream sentiment scorer expects it.
	Text string
}

// Provider is the abstraction over any batch speech-recognition backend.
//
// Samples are mono float32 PCM in [-1, 1] at 16 kHz (see pkg/audioconv).
// Implementations must return [ErrNoSpeech] (possibly wrapped) when the audio
// contains no recognisable speech, and any other error for infrastructure
// failures.
type Provider interface {
	Transcribe(ctx context.Context, samples []float32) (Result, error)
}
