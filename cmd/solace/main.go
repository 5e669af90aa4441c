// Command solace is the entry point for the solace therapy turn service. It
// runs either as an HTTP service or, with one of the -audio/-message/-image
// flags, processes a single turn and prints the result as JSON.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	anyllmlib "github.com/mozilla-ai/any-llm-go"

	"github.com/solacevoice/solace/internal/artifact"
	"github.com/solacevoice/solace/internal/config"
	"github.com/solacevoice/solace/internal/observe"
	"github.com/solacevoice/solace/internal/resilience"
	"github.com/solacevoice/solace/internal/turn"
	"github.com/solacevoice/solace/internal/validate"
	"github.com/solacevoice/solace/pkg/provider/face"
	"github.com/solacevoice/solace/pkg/provider/face/deepface"
	"github.com/solacevoice/solace/pkg/provider/llm"
	"github.com/solacevoice/solace/pkg/provider/llm/anyllm"
	"github.com/solacevoice/solace/pkg/provider/sentiment"
	"github.com/solacevoice/solace/pkg/provider/sentiment/distilbert"
	"github.com/solacevoice/solace/pkg/provider/sentiment/lexicon"
	"github.com/solacevoice/solace/pkg/provider/stt"
	"github.com/solacevoice/solace/pkg/provider/stt/whisper"
	"github.com/solacevoice/solace/pkg/provider/tts"
	"github.com/solacevoice/solace/pkg/provider/tts/gtts"
	oaitts "github.com/solacevoice/solace/pkg/provider/tts/openai"
)

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	audioPath := flag.String("audio", "", "process a single audio turn from this file and exit")
	message := flag.String("message", "", "process a single text turn with this message and exit")
	facePath := flag.String("face-image", "", "optional face photo attached to -message")
	imagePath := flag.String("image", "", "process a single image turn from this file and exit")
	flag.Parse()

	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "solace: config file %q not found, using built-in defaults\n", *configPath)
			cfg = config.Default()
		} else {
			fmt.Fprintf(os.Stderr, "solace: %v\n", err)
			return 1
		}
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	logger := newLogger(cfg.Server.LogLevel)
	slog.SetDefault(logger)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Metrics ───────────────────────────────────────────────────────────────
	shutdownMetrics, err := observe.InitProvider(ctx, observe.ProviderConfig{ServiceName: "solace"})
	if err != nil {
		slog.Error("failed to initialise metrics", "err", err)
		return 1
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownMetrics(sctx); err != nil {
			slog.Warn("metrics shutdown error", "err", err)
		}
	}()

	// ── Pipeline ──────────────────────────────────────────────────────────────
	store, err := artifact.NewStore(cfg.Artifacts.Dir)
	if err != nil {
		slog.Error("failed to open artifact store", "err", err)
		return 1
	}
	orc, err := buildOrchestrator(cfg, store)
	if err != nil {
		slog.Error("failed to build pipeline", "err", err)
		return 1
	}

	// ── One-shot mode ─────────────────────────────────────────────────────────
	if *audioPath != "" || *message != "" || *imagePath != "" {
		return runOnce(ctx, orc, *audioPath, *message, *facePath, *imagePath)
	}

	// ── Artifact reaper ───────────────────────────────────────────────────────
	if cfg.Artifacts.RetentionMin > 0 && cfg.Artifacts.ReapIntervalMin > 0 {
		reaper := artifact.NewReaper(store,
			time.Duration(cfg.Artifacts.RetentionMin)*time.Minute,
			time.Duration(cfg.Artifacts.ReapIntervalMin)*time.Minute,
			observe.DefaultMetrics())
		go reaper.Run(ctx)
	}

	slog.Info("solace starting",
		"config", *configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"log_level", cfg.Server.LogLevel,
	)
	return serve(ctx, cfg, orc, store)
}

// runOnce processes a single turn built from the CLI flags and prints the
// result (or the failure) as JSON on stdout.
func runOnce(ctx context.Context, orc *turn.Orchestrator, audioPath, message, facePath, imagePath string) int {
	var req turn.Request
	switch {
	case audioPath != "":
		data, err := os.ReadFile(audioPath)
		if err != nil {
			slog.Error("read audio file", "err", err)
			return 1
		}
		req.Audio = &turn.AudioInput{Data: data, Filename: audioPath}
	case message != "":
		in := &turn.TextInput{Message: message}
		if facePath != "" {
			data, err := os.ReadFile(facePath)
			if err != nil {
				slog.Error("read face image", "err", err)
				return 1
			}
			in.FaceImage = encodeImage(data)
		}
		req.Text = in
	case imagePath != "":
		data, err := os.ReadFile(imagePath)
		if err != nil {
			slog.Error("read image file", "err", err)
			return 1
		}
		req.Image = &turn.ImageInput{Data: data, Filename: imagePath}
	}

	res, err := orc.Process(ctx, req)
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err != nil {
		var terr *turn.Error
		if errors.As(err, &terr) {
			_ = enc.Encode(map[string]string{"error": terr.Message})
		} else {
			slog.Error("turn failed", "err", err)
		}
		return 1
	}
	_ = enc.Encode(res)
	return 0
}

// ── Pipeline wiring ───────────────────────────────────────────────────────────

func buildOrchestrator(cfg *config.Config, store *artifact.Store) (*turn.Orchestrator, error) {
	limits := validate.Limits{
		AllowedExtensions: cfg.Limits.AllowedExtensions,
		MaxBytes:          int64(cfg.Limits.MaxFileSizeMB * (1 << 20)),
		MaxDuration:       time.Duration(cfg.Limits.MaxDurationSec) * time.Second,
		EnforceDuration:   cfg.Limits.EnforceDuration,
	}

	sttProvider, err := buildSTT(cfg.Providers.STT)
	if err != nil {
		return nil, fmt.Errorf("create stt provider: %w", err)
	}
	faceProvider, err := buildFace(cfg.Providers.Face)
	if err != nil {
		return nil, fmt.Errorf("create face provider: %w", err)
	}
	generator, err := buildGenerator(cfg.Providers.LLM)
	if err != nil {
		return nil, fmt.Errorf("create llm provider: %w", err)
	}
	ttsProvider, err := buildTTS(cfg.Providers.TTS)
	if err != nil {
		return nil, fmt.Errorf("create tts provider: %w", err)
	}

	return turn.New(turn.Config{
		Validator: validate.New(limits, ""),
		Limits:    limits,
		STT:       sttProvider,
		Sentiment: buildSentiment(cfg.Providers.Sentiment),
		Face:      faceProvider,
		Generator: generator,
		TTS:       ttsProvider,
		Store:     store,
		Timeouts: turn.Timeouts{
			Transcribe: time.Duration(cfg.Timeouts.TranscribeSec) * time.Second,
			Sentiment:  time.Duration(cfg.Timeouts.SentimentSec) * time.Second,
			Face:       time.Duration(cfg.Timeouts.FaceSec) * time.Second,
			Generate:   time.Duration(cfg.Timeouts.GenerateSec) * time.Second,
			Synthesize: time.Duration(cfg.Timeouts.SynthesizeSec) * time.Second,
		},
	}), nil
}

func buildSTT(entry config.ProviderEntry) (stt.Provider, error) {
	switch entry.Name {
	case "":
		return nil, nil
	case "whisper-native":
		modelPath := entry.Model
		if modelPath == "" {
			modelPath = optString(entry.Options, "model_path")
		}
		var opts []whisper.Option
		if lang := optString(entry.Options, "language"); lang != "" {
			opts = append(opts, whisper.WithLanguage(lang))
		}
		return whisper.New(modelPath, opts...)
	default:
		return nil, fmt.Errorf("unknown stt provider %q", entry.Name)
	}
}

// buildSentiment always returns a working provider: the lexical analyzer
// alone, or a distilbert sidecar with the lexical analyzer as the failover
// tier. The sidecar is warmed lazily on the first turn that needs it.
func buildSentiment(entry config.ProviderEntry) sentiment.Provider {
	if entry.Name != "distilbert" || entry.BaseURL == "" {
		return lexicon.New()
	}

	baseURL := entry.BaseURL
	primary := sentiment.NewLazy(func() (sentiment.Provider, error) {
		p, err := distilbert.New(baseURL)
		if err != nil {
			return nil, err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := p.Warmup(ctx); err != nil {
			return nil, err
		}
		return p, nil
	})

	fb := resilience.NewSentimentFallback(primary, "distilbert", resilience.FallbackConfig{
		CircuitBreaker: resilience.CircuitBreakerConfig{
			MaxFailures:  3,
			ResetTimeout: time.Minute,
		},
	})
	fb.AddFallback("lexicon", lexicon.New())
	return fb
}

func buildFace(entry config.ProviderEntry) (face.Provider, error) {
	switch entry.Name {
	case "":
		return nil, nil
	case "deepface":
		return deepface.New(entry.BaseURL)
	default:
		return nil, fmt.Errorf("unknown face provider %q", entry.Name)
	}
}

// buildGenerator assembles the response-generation backend chain. The primary
// entry plus any configured fallbacks each become a tier of an
// [resilience.LLMFallback]; a single usable backend is wired directly. No
// usable backend at all is not an error; it degrades text turns to the
// explanatory fallback response.
func buildGenerator(entry config.ProviderEntry) (*turn.Generator, error) {
	type backend struct {
		name     string
		provider llm.Provider
	}
	var backends []backend

	for i, e := range append([]config.ProviderEntry{entry}, entry.Fallbacks...) {
		p, name, err := buildLLMBackend(e)
		if err != nil {
			if i > 0 {
				err = fmt.Errorf("fallback %q: %w", e.Name, err)
			}
			return nil, err
		}
		if p == nil {
			if e.Name != "" {
				slog.Warn("skipping generation backend with no credential", "name", name)
			}
			continue
		}
		backends = append(backends, backend{name: name, provider: p})
	}

	switch len(backends) {
	case 0:
		slog.Warn("no generation credential configured; text turns degrade to the fallback response")
		return &turn.Generator{}, nil
	case 1:
		// Single backend; no failover machinery needed.
		return &turn.Generator{Provider: backends[0].provider}, nil
	}

	group := resilience.NewLLMFallback(backends[0].provider, backends[0].name, resilience.FallbackConfig{
		CircuitBreaker: resilience.CircuitBreakerConfig{
			MaxFailures:  3,
			ResetTimeout: time.Minute,
		},
	})
	for _, b := range backends[1:] {
		group.AddFallback(b.name, b.provider)
	}
	return &turn.Generator{Provider: group}, nil
}

// buildLLMBackend constructs one generation backend. A nil provider with a
// nil error means the backend has no credential and should be skipped.
func buildLLMBackend(entry config.ProviderEntry) (llm.Provider, string, error) {
	name := entry.Name
	if name == "" {
		name = "gemini"
	}
	model := entry.Model
	if model == "" && name == "gemini" {
		model = "models/gemini-2.0-flash"
	}
	apiKey := entry.APIKey
	if apiKey == "" && name == "gemini" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	// ollama is a local server and needs no key.
	if apiKey == "" && name != "ollama" {
		return nil, name, nil
	}

	var opts []anyllmlib.Option
	if apiKey != "" {
		opts = append(opts, anyllmlib.WithAPIKey(apiKey))
	}
	if entry.BaseURL != "" {
		opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
	}
	p, err := anyllm.New(name, model, opts...)
	if err != nil {
		return nil, name, err
	}
	return p, name, nil
}

func buildTTS(entry config.ProviderEntry) (tts.Provider, error) {
	switch entry.Name {
	case "":
		return nil, nil
	case "gtts":
		var opts []gtts.Option
		if lang := optString(entry.Options, "language"); lang != "" {
			opts = append(opts, gtts.WithLanguage(lang))
		}
		return gtts.New(entry.BaseURL, opts...)
	case "openai":
		var opts []oaitts.Option
		if entry.BaseURL != "" {
			opts = append(opts, oaitts.WithBaseURL(entry.BaseURL))
		}
		if voice := optString(entry.Options, "voice"); voice != "" {
			opts = append(opts, oaitts.WithVoice(voice))
		}
		return oaitts.New(entry.APIKey, entry.Model, opts...)
	default:
		return nil, fmt.Errorf("unknown tts provider %q", entry.Name)
	}
}

// ── Logger ─────────────────────────────────────────────────────────────────────

func newLogger(level config.LogLevel) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// optString extracts a string value from a provider Options map[string]any.
// Returns "" if the map is nil, the key is absent, or the value is not a string.
func optString(opts map[string]any, key string) string {
	if opts == nil {
		return ""
	}
	v, ok := opts[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return s
}
