// Package deepface implements face.Provider against a DeepFace analysis
// sidecar exposing the DeepFace API server's JSON contract:
//
//	POST /analyze {"img": "data:image/jpeg;base64,...", "actions": ["emotion"],
//	               "enforce_detection": false}
//	  →  {"results": [{"dominant_emotion": "happy",
//	                   "emotion": {"happy": 93.2, "sad": 1.1, ...}}]}
//
// enforce_detection is always sent as false so an image without a detectable
// face yields the sidecar's best guess instead of an error. When the sidecar
// returns per-face results, only the first face is used.
package deepface

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/solacevoice/solace/pkg/provider/face"
)

const (
	analyzeEndpoint = "/analyze"

	defaultTimeout = 15 * time.Second

	// jpegQuality for the frame sent to the sidecar. Emotion models work on
	// coarse features; 90 keeps payloads small without hurting accuracy.
	jpegQuality = 90
)

// Compile-time assertion.
var _ face.Provider = (*Provider)(nil)

// Provider talks to the DeepFace sidecar over HTTP.
type Provider struct {
	serverURL  string
	httpClient *http.Client
}

// Option is a functional option for configuring a Provider.
type Option func(*Provider)

// WithTimeout sets the per-request HTTP timeout. Defaults to 15 s.
func WithTimeout(d time.Duration) Option {
	return func(p *Provider) { p.httpClient.Timeout = d }
}

// New creates a Provider targeting the sidecar at serverURL
// (e.g., "http://localhost:5005").
func New(serverURL string, opts ...Option) (*Provider, error) {
	if serverURL == "" {
		return nil, errors.New("deepface: serverURL must not be empty")
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

type analyzeRequest struct {
	Img              string   `json:"img"`
	Actions          []string `json:"actions"`
	EnforceDetection bool     `json:"enforce_detection"`
}

type analyzeResponse struct {
	Results []faceResult `json:"results"`
}

type faceResult struct {
	DominantEmotion string             `json:"dominant_emotion"`
	Emotion         map[string]float64 `json:"emotion"`
}

// Analyze re-encodes img as JPEG, submits it for emotion analysis, and
// returns the first face's dominant emotion with its score.
func (p *Provider) Analyze(ctx context.Context, img image.Image) (face.Judgment, error) {
	var frame bytes.Buffer
	if err := jpeg.Encode(&frame, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return face.Judgment{}, fmt.Errorf("deepface: encode frame: %w", err)
	}

	body, err := json.Marshal(analyzeRequest{
		Img:              "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(frame.Bytes()),
		Actions:          []string{"emotion"},
		EnforceDetection: false,
	})
	if err != nil {
		return face.Judgment{}, fmt.Errorf("deepface: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.serverURL+analyzeEndpoint, bytes.NewReader(body))
	if err != nil {
		return face.Judgment{}, fmt.Errorf("deepface: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return face.Judgment{}, fmt.Errorf("deepface: POST %s: %w", analyzeEndpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return face.Judgment{}, fmt.Errorf("deepface: POST %s returned status %d: %s",
			analyzeEndpoint, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out analyzeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return face.Judgment{}, fmt.Errorf("deepface: decode response: %w", err)
	}
	if len(out.Results) == 0 {
		return face.Judgment{}, errors.New("deepface: response carries no results")
	}

	// Only the first face matters when several are detected.
	first := out.Results[0]
	if first.DominantEmotion == "" {
		return face.Judgment{}, errors.New("deepface: result carries no dominant emotion")
	}

	return face.Judgment{
		Label: strings.ToUpper(first.DominantEmotion),
		Score: first.Emotion[first.DominantEmotion],
	}, nil
}
