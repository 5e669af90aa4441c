// Package gtts implements tts.Provider against a gTTS HTTP sidecar, the
// batch speech server used in the default deployment:
//
//	POST /api/tts {"text": "...", "lang": "en"}  →  audio/mpeg body
//
// The server performs one synthesis per call and returns a complete MP3.
package gtts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	ttsEndpoint = "/api/tts"

	defaultLanguage = "en"
	defaultTimeout  = 30 * time.Second

	// maxArtifactBytes caps the accepted response size. A spoken two-sentence
	// reply is well under 1 MiB; anything larger indicates a misbehaving server.
	maxArtifactBytes = 8 << 20
)

// Provider talks to the gTTS sidecar over HTTP.
type Provider struct {
	serverURL  string
	language   string
	httpClient *http.Client
}

// Option is a functional option for configuring a Provider.
type Option func(*Provider)

// WithLanguage sets the synthesis language code (e.g., "en", "de").
// Defaults to "en".
func WithLanguage(lang string) Option {
	return func(p *Provider) { p.language = lang }
}

// WithTimeout sets the per-request HTTP timeout. Defaults to 30 s.
func WithTimeout(d time.Duration) Option {
	return func(p *Provider) { p.httpClient.Timeout = d }
}

// New creates a Provider targeting the sidecar at serverURL
// (e.g., "http://localhost:5500").
func New(serverURL string, opts ...Option) (*Provider, error) {
	if serverURL == "" {
		return nil, errors.New("gtts: serverURL must not be empty")
	}
	p := &Provider{
		serverURL:  strings.TrimRight(serverURL, "/"),
		language:   defaultLanguage,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

type ttsRequest struct {
	Text string `json:"text"`
	Lang string `json:"lang"`
}

// Synthesize implements tts.Provider.
func (p *Provider) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("gtts: text must not be empty")
	}

	body, err := json.Marshal(ttsRequest{Text: text, Lang: p.language})
	if err != nil {
		return nil, fmt.Errorf("gtts: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.serverURL+ttsEndpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("gtts: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gtts: POST %s: %w", ttsEndpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("gtts: POST %s returned status %d: %s",
			ttsEndpoint, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	audio, err := io.ReadAll(io.LimitReader(resp.Body, maxArtifactBytes+1))
	if err != nil {
		return nil, fmt.Errorf("gtts: read audio: %w", err)
	}
	if len(audio) == 0 {
		return nil, errors.New("gtts: server returned empty audio")
	}
	if len(audio) > maxArtifactBytes {
		return nil, fmt.Errorf("gtts: audio exceeds %d bytes", maxArtifactBytes)
	}
	return audio, nil
}
