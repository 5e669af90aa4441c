package turn

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/solacevoice/solace/pkg/provider/llm"
	"github.com/solacevoice/solace/pkg/provider/sentiment"
)

// The audio path replies purely from the sentiment label; these strings are
// part of the caller-facing contract and must not drift.
const (
	replyNegative = "I'm here for you. It sounds like you're having a hard time. Can you tell me more?"
	replyPositive = "That's wonderful to hear! Keep up the positive momentum."
	replyNeutral  = "I'm listening. Tell me how you're feeling today."
)

// replyNoCredential is returned on text turns when no generation credential
// is configured. It is a user-facing degradation, not an error.
const replyNoCredential = "Gemini API key is not set. Please set the GEMINI_API_KEY environment variable."

// Source tells callers whether a response came out of the generation model or
// a deterministic fallback.
type Source string

const (
	SourceModel    Source = "MODEL"
	SourceFallback Source = "FALLBACK"
)

// GeneratedResponse is a reply plus its provenance. Text is never empty.
type GeneratedResponse struct {
	Text   string
	Source Source
}

// SentimentReply maps a sentiment label to the fixed therapeutic reply used
// on audio turns. Unrecognised labels get the neutral reply.
func SentimentReply(label string) string {
	switch label {
	case sentiment.LabelNegative:
		return replyNegative
	case sentiment.LabelPositive:
		return replyPositive
	default:
		return replyNeutral
	}
}

// Generator wraps the text-generation capability with the degradation policy
// for text turns: a missing provider and a failed generation each produce a
// distinct explanatory reply instead of an error.
type Generator struct {
	// Provider is nil when no generation credential is configured.
	Provider llm.Provider
}

// Generate runs the prompt through the provider. It never returns an empty
// response: missing provider and generation failure degrade to explanatory
// strings, and an empty model reply degrades to the sentiment-mapped reply.
func (g *Generator) Generate(ctx context.Context, prompt, sentimentLabel string) GeneratedResponse {
	if g == nil || g.Provider == nil {
		return GeneratedResponse{Text: replyNoCredential, Source: SourceFallback}
	}
	resp, err := g.Provider.Complete(ctx, llm.CompletionRequest{Prompt: prompt})
	if err != nil {
		slog.Warn("response generation failed", "error", err)
		return GeneratedResponse{
			Text:   fmt.Sprintf("Sorry, I couldn't generate a response right now. Error: %v", err),
			Source: SourceFallback,
		}
	}
	if resp.Content == "" {
		return GeneratedResponse{Text: SentimentReply(sentimentLabel), Source: SourceFallback}
	}
	return GeneratedResponse{Text: resp.Content, Source: SourceModel}
}
