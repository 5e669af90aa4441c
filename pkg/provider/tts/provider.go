// Package tts defines the Provider interface for text-to-speech backends.
//
// The pipeline synthesizes one complete reply per audio turn, so the
// interface is batch rather than streaming: one call, one finished MP3.
// Implementations must be safe for concurrent use.
package tts

import "context"

// ContentType is the media type of all synthesized artifacts.
const ContentType = "audio/mpeg"

// Provider is the abstraction over any speech-synthesis backend.
type Provider interface {
	// Synthesize renders text as spoken audio and returns the complete MP3
	// bytes. An empty or error result means no artifact could be produced;
	// the caller treats that as fatal to the owning turn.
	Synthesize(ctx context.Context, text string) ([]byte, error)
}
