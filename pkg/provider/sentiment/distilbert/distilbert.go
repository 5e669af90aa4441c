// Package distilbert implements sentiment.Provider against a DistilBERT
// SST-2 inference sidecar exposing a small JSON API:
//
//	POST /analyze {"text": "..."}  →  {"label": "positive", "score": 0.998}
//
// The sidecar runs the binary-polarity classifier; this adapter normalises
// its output into the shared Judgment shape. Construct it behind
// [sentiment.NewLazy] so the first turn triggers the sidecar warm-up exactly
// once.
package distilbert

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

	"github.com/solacevoice/solace/pkg/provider/sentiment"
)

const (
	analyzeEndpoint = "/analyze"
	healthEndpoint  = "/health"

	defaultTimeout = 10 * time.Second
)

// Compile-time assertion.
var _ sentiment.Provider = (*Provider)(nil)

// Provider talks to the DistilBERT sidecar over HTTP.
type Provider struct {
	serverURL  string
	httpClient *http.Client
}

// Option is a functional option for configuring a Provider.
type Option func(*Provider)

// WithTimeout sets the per-request HTTP timeout. Defaults to 10 s.
func WithTimeout(d time.Duration) Option {
	return func(p *Provider) { p.httpClient.Timeout = d }
}

// WithHTTPClient replaces the HTTP client entirely. Primarily for tests.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Provider) { p.httpClient = c }
}

// New creates a Provider targeting the sidecar at serverURL
// (e.g., "http://localhost:8601").
func New(serverURL string, opts ...Option) (*Provider, error) {
	if serverURL == "" {
		return nil, errors.New("distilbert: serverURL must not be empty")
	}
	p := &Provider{
		serverURL:  strings.TrimRight(serverURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// Warmup probes the sidecar's health endpoint. Use it inside the lazy build
// function so an unreachable sidecar fails initialisation once and the
// lexical tier takes over.
func (p *Provider) Warmup(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.serverURL+healthEndpoint, nil)
	if err != nil {
		return fmt.Errorf("distilbert: build health request: %w", err)
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("distilbert: health probe: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("distilbert: health probe returned status %d", resp.StatusCode)
	}
	return nil
}

type analyzeRequest struct {
	Text string `json:"text"`
}

type analyzeResponse struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Analyze sends text to the classifier and returns its judgment. The label is
// upper-cased; the score is the classifier's confidence in [0, 1].
func (p *Provider) Analyze(ctx context.Context, text string) (sentiment.Judgment, error) {
	body, err := json.Marshal(analyzeRequest{Text: text})
	if err != nil {
		return sentiment.Judgment{}, fmt.Errorf("distilbert: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.serverURL+analyzeEndpoint, bytes.NewReader(body))
	if err != nil {
		return sentiment.Judgment{}, fmt.Errorf("distilbert: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return sentiment.Judgment{}, fmt.Errorf("distilbert: POST %s: %w", analyzeEndpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return sentiment.Judgment{}, fmt.Errorf("distilbert: POST %s returned status %d: %s",
			analyzeEndpoint, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out analyzeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return sentiment.Judgment{}, fmt.Errorf("distilbert: decode response: %w", err)
	}
	if out.Label == "" {
		return sentiment.Judgment{}, errors.New("distilbert: response carries no label")
	}

	return sentiment.Judgment{
		Label: strings.ToUpper(out.Label),
		Score: clamp01(out.Score),
	}, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
