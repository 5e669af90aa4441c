package turn

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/solacevoice/solace/internal/artifact"
	"github.com/solacevoice/solace/internal/observe"
	"github.com/solacevoice/solace/internal/validate"
	"github.com/solacevoice/solace/pkg/audioconv"
	"github.com/solacevoice/solace/pkg/provider/face"
	"github.com/solacevoice/solace/pkg/provider/sentiment"
	"github.com/solacevoice/solace/pkg/provider/stt"
	"github.com/solacevoice/solace/pkg/provider/tts"
)

// Timeouts bounds every external adapter call made during a turn. Zero
// values mean no explicit bound.
type Timeouts struct {
	Transcribe time.Duration
	Sentiment  time.Duration
	Face       time.Duration
	Generate   time.Duration
	Synthesize time.Duration
}

// Config wires an [Orchestrator]. Validator, Limits, and Sentiment are
// required; the remaining providers may be nil, degrading the paths that
// need them.
type Config struct {
	Validator *validate.Validator
	Limits    validate.Limits

	STT       stt.Provider
	Sentiment sentiment.Provider
	Face      face.Provider
	Generator *Generator
	TTS       tts.Provider
	Store     *artifact.Store

	Metrics  *observe.Metrics
	Timeouts Timeouts

	// Decode converts a materialised audio file into recognizer samples.
	// Defaults to [audioconv.DecodeFile].
	Decode func(path string) ([]float32, error)
}

// Orchestrator is the turn state machine. It detects the input modality,
// sequences the adapters for that path, and guarantees exactly one [Result]
// (or one typed [Error]) per request. Safe for concurrent use; all per-turn
// state is local to a Process call.
type Orchestrator struct {
	validator *validate.Validator
	limits    validate.Limits
	stt       stt.Provider
	sentiment sentiment.Provider
	face      face.Provider
	generator *Generator
	tts       tts.Provider
	store     *artifact.Store
	metrics   *observe.Metrics
	timeouts  Timeouts
	decode    func(path string) ([]float32, error)
}

// New creates an Orchestrator from cfg, filling in the decode and metrics
// defaults.
func New(cfg Config) *Orchestrator {
	if cfg.Decode == nil {
		cfg.Decode = audioconv.DecodeFile
	}
	if cfg.Metrics == nil {
		cfg.Metrics = observe.DefaultMetrics()
	}
	return &Orchestrator{
		validator: cfg.Validator,
		limits:    cfg.Limits,
		stt:       cfg.STT,
		sentiment: cfg.Sentiment,
		face:      cfg.Face,
		generator: cfg.Generator,
		tts:       cfg.TTS,
		store:     cfg.Store,
		metrics:   cfg.Metrics,
		timeouts:  cfg.Timeouts,
		decode:    cfg.Decode,
	}
}

// Process runs one turn. On failure the returned error is a *[Error] carrying
// the reason code and, where relevant, the measured offending value.
func (o *Orchestrator) Process(ctx context.Context, req Request) (*Result, error) {
	modality := req.Modality()

	var (
		res *Result
		err error
	)
	switch modality {
	case ModalityAudio:
		res, err = o.processAudio(ctx, req.Audio)
	case ModalityText:
		res, err = o.processText(ctx, req.Text)
	case ModalityImage:
		res, err = o.processImage(ctx, req.Image)
	default:
		err = &Error{Kind: KindInputRejected, Reason: "no_input", Message: "No usable input supplied."}
	}

	outcome := "ok"
	var terr *Error
	if errors.As(err, &terr) {
		outcome = string(terr.Kind)
	} else if err != nil {
		outcome = "error"
	}
	o.metrics.RecordTurn(ctx, string(modality), outcome)

	if err != nil {
		return nil, err
	}
	return res, nil
}

// processAudio runs validate → transcribe → sentiment → reply → synthesize.
// The materialised upload is removed on every exit path before returning.
func (o *Orchestrator) processAudio(ctx context.Context, in *AudioInput) (*Result, error) {
	start := time.Now()
	up, err := o.validator.Validate(in.Data, in.Filename)
	o.metrics.RecordStage(ctx, "validate", time.Since(start))
	if err != nil {
		var rej *validate.Rejection
		if errors.As(err, &rej) {
			return nil, o.rejectionError(rej)
		}
		return nil, &Error{Kind: KindTranscription, Reason: "materialize_failed",
			Message: fmt.Sprintf("Transcription failed: %v", err)}
	}
	defer func() {
		if rmErr := up.Remove(); rmErr != nil {
			slog.Warn("temp upload cleanup failed", "error", rmErr)
		}
	}()

	transcript, err := o.transcribe(ctx, up.Path)
	if err != nil {
		return nil, err
	}

	judgment := o.analyzeSentiment(ctx, transcript)
	response := SentimentReply(judgment.Label)

	name, err := o.synthesize(ctx, response)
	if err != nil {
		return nil, err
	}

	sizeMB := round2(float64(up.Size) / (1 << 20))
	res := &Result{
		Transcript:    transcript,
		Sentiment:     &judgment,
		Response:      response,
		AudioResponse: "/download/" + name,
		FileSizeMB:    &sizeMB,
		Filename:      up.Filename,
	}
	if up.HasDuration {
		secs := up.Duration.Seconds()
		res.Duration = &secs
	}
	return res, nil
}

// processText runs optional face analysis → sentiment → prompt → generation.
// Face and generation failures degrade into the result instead of failing
// the turn.
func (o *Orchestrator) processText(ctx context.Context, in *TextInput) (*Result, error) {
	var facial *FacialEmotion
	if in.FaceImage != "" {
		if data, err := decodeFaceImage(in.FaceImage); err != nil {
			o.metrics.RecordProviderError(ctx, "face", "decode")
			facial = &FacialEmotion{Label: face.LabelUnknown, Error: err.Error()}
		} else {
			facial = o.analyzeFace(ctx, data)
		}
	}

	judgment := o.analyzeSentiment(ctx, in.Message)
	prompt := ComposePrompt(in.Message, facial)

	start := time.Now()
	gctx, cancel := withTimeout(ctx, o.timeouts.Generate)
	defer cancel()
	gen := o.generator.Generate(gctx, prompt, judgment.Label)
	o.metrics.RecordStage(ctx, "generate", time.Since(start))
	if gen.Source == SourceFallback {
		slog.Debug("text turn degraded to fallback response")
	}

	return &Result{
		Sentiment:     &judgment,
		Response:      gen.Text,
		FacialEmotion: facial,
	}, nil
}

// processImage runs face analysis only; no sentiment, response, or transcript.
func (o *Orchestrator) processImage(ctx context.Context, in *ImageInput) (*Result, error) {
	return &Result{FacialEmotion: o.analyzeFace(ctx, in.Data)}, nil
}

func (o *Orchestrator) rejectionError(rej *validate.Rejection) *Error {
	e := &Error{Kind: KindInputRejected, Reason: string(rej.Reason)}
	switch rej.Reason {
	case validate.ReasonBadExtension:
		e.Message = fmt.Sprintf("Invalid file type. Allowed: %s.",
			strings.Join(o.limits.AllowedExtensions, ", "))
	case validate.ReasonTooLarge:
		e.Size = rej.Size
		e.Message = fmt.Sprintf("File too large. Max size is %g MB.",
			float64(o.limits.MaxBytes)/(1<<20))
	case validate.ReasonTooLong:
		e.Duration = rej.Duration
		e.Message = fmt.Sprintf("Audio too long. Max duration is %g seconds.",
			o.limits.MaxDuration.Seconds())
	default:
		e.Message = rej.Error()
	}
	return e
}

func (o *Orchestrator) transcribe(ctx context.Context, path string) (string, error) {
	start := time.Now()
	defer func() { o.metrics.RecordStage(ctx, "transcribe", time.Since(start)) }()

	if o.stt == nil {
		return "", &Error{Kind: KindTranscription, Reason: "not_configured",
			Message: "Transcription failed: no speech recognition provider configured"}
	}
	samples, err := o.decode(path)
	if err != nil {
		o.metrics.RecordProviderError(ctx, "stt", "decode")
		return "", &Error{Kind: KindTranscription, Reason: "decode_failed",
			Message: fmt.Sprintf("Transcription failed: %v", err)}
	}

	tctx, cancel := withTimeout(ctx, o.timeouts.Transcribe)
	defer cancel()
	result, err := o.stt.Transcribe(tctx, samples)
	if errors.Is(err, stt.ErrNoSpeech) {
		return "", &Error{Kind: KindUnintelligible, Reason: "no_speech",
			Message: "Could not understand audio."}
	}
	if err != nil {
		o.metrics.RecordProviderError(ctx, "stt", "transcribe")
		return "", &Error{Kind: KindTranscription, Reason: "recognizer_failed",
			Message: fmt.Sprintf("Transcription failed: %v", err)}
	}
	return result.Text, nil
}

// analyzeSentiment never fails the turn. A provider error downgrades to a
// neutral lexical-style judgment.
func (o *Orchestrator) analyzeSentiment(ctx context.Context, text string) Sentiment {
	start := time.Now()
	defer func() { o.metrics.RecordStage(ctx, "sentiment", time.Since(start)) }()

	sctx, cancel := withTimeout(ctx, o.timeouts.Sentiment)
	defer cancel()
	j, err := o.sentiment.Analyze(sctx, text)
	if err != nil {
		o.metrics.RecordProviderError(ctx, "sentiment", "analyze")
		slog.Warn("sentiment analysis failed, defaulting to neutral", "error", err)
		return Sentiment{Label: sentiment.LabelNeutral, UsedFallback: true}
	}
	return Sentiment{Label: j.Label, Score: j.Score, UsedFallback: j.UsedFallback}
}

// analyzeFace never fails the turn. Every failure path yields the UNKNOWN
// sentinel with the failure detail.
func (o *Orchestrator) analyzeFace(ctx context.Context, data []byte) *FacialEmotion {
	start := time.Now()
	defer func() { o.metrics.RecordStage(ctx, "face", time.Since(start)) }()

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		o.metrics.RecordProviderError(ctx, "face", "decode")
		return &FacialEmotion{Label: face.LabelUnknown, Error: err.Error()}
	}
	if o.face == nil {
		return &FacialEmotion{Label: face.LabelUnknown, Error: "no facial-emotion provider configured"}
	}

	fctx, cancel := withTimeout(ctx, o.timeouts.Face)
	defer cancel()
	j, err := o.face.Analyze(fctx, img)
	if err != nil {
		o.metrics.RecordProviderError(ctx, "face", "analyze")
		return &FacialEmotion{Label: face.LabelUnknown, Error: err.Error()}
	}
	return &FacialEmotion{Label: j.Label, Score: round2(j.Score)}
}

func (o *Orchestrator) synthesize(ctx context.Context, text string) (string, error) {
	start := time.Now()
	defer func() { o.metrics.RecordStage(ctx, "synthesize", time.Since(start)) }()

	if o.tts == nil || o.store == nil {
		return "", &Error{Kind: KindSynthesis, Reason: "not_configured",
			Message: "TTS failed: no speech synthesis provider configured"}
	}

	sctx, cancel := withTimeout(ctx, o.timeouts.Synthesize)
	defer cancel()
	audio, err := o.tts.Synthesize(sctx, text)
	if err != nil {
		o.metrics.RecordProviderError(ctx, "tts", "synthesize")
		return "", &Error{Kind: KindSynthesis, Reason: "synthesize_failed",
			Message: fmt.Sprintf("TTS failed: %v", err)}
	}
	name, err := o.store.Save(audio)
	if err != nil {
		return "", &Error{Kind: KindSynthesis, Reason: "store_failed",
			Message: fmt.Sprintf("TTS failed: %v", err)}
	}
	o.metrics.ArtifactsStored.Add(ctx, 1)
	return name, nil
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
