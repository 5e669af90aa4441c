package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// ValidProviderNames lists known provider names per provider kind.
// Used by [Validate] to warn about unrecognised provider names.
var ValidProviderNames = map[string][]string{
	"stt":       {"whisper-native"},
	"sentiment": {"distilbert", "lexicon"},
	"face":      {"deepface"},
	"llm":       {"gemini", "openai", "anthropic", "ollama"},
	"tts":       {"gtts", "openai"},
}

// sidecarProviders require an explicit base_url because they are HTTP
// services with no public default endpoint.
var sidecarProviders = map[string]bool{
	"distilbert": true,
	"deepface":   true,
	"gtts":       true,
}

// Load reads the YAML configuration file at path and returns a validated [Config].
// It is a convenience wrapper around [LoadFromReader] and [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r over the built-in defaults and
// validates the result. Useful in tests where configs are constructed from
// string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	// Limits
	if cfg.Limits.MaxFileSizeMB <= 0 {
		errs = append(errs, fmt.Errorf("limits.max_file_size_mb %.2f must be positive", cfg.Limits.MaxFileSizeMB))
	}
	if cfg.Limits.MaxDurationSec < 0 {
		errs = append(errs, fmt.Errorf("limits.max_duration_sec %d must not be negative", cfg.Limits.MaxDurationSec))
	}
	if len(cfg.Limits.AllowedExtensions) == 0 {
		errs = append(errs, errors.New("limits.allowed_extensions must not be empty"))
	}

	// Provider name validation — warn for unknown provider names.
	validateProviderName("stt", cfg.Providers.STT.Name)
	validateProviderName("sentiment", cfg.Providers.Sentiment.Name)
	validateProviderName("face", cfg.Providers.Face.Name)
	validateProviderName("llm", cfg.Providers.LLM.Name)
	validateProviderName("tts", cfg.Providers.TTS.Name)

	// Generation fallback tiers.
	for i, fb := range cfg.Providers.LLM.Fallbacks {
		if fb.Name == "" {
			errs = append(errs, fmt.Errorf("providers.llm.fallbacks[%d]: name is required", i))
			continue
		}
		validateProviderName("llm", fb.Name)
		if len(fb.Fallbacks) > 0 {
			errs = append(errs, fmt.Errorf("providers.llm.fallbacks[%d] (%s): fallbacks must not be nested", i, fb.Name))
		}
	}
	for kind, entry := range map[string]ProviderEntry{
		"stt":       cfg.Providers.STT,
		"sentiment": cfg.Providers.Sentiment,
		"face":      cfg.Providers.Face,
		"tts":       cfg.Providers.TTS,
	} {
		if len(entry.Fallbacks) > 0 {
			errs = append(errs, fmt.Errorf("providers.%s: fallbacks are only supported for the llm provider", kind))
		}
	}

	// Sidecar providers need an endpoint to talk to.
	for kind, entry := range map[string]ProviderEntry{
		"sentiment": cfg.Providers.Sentiment,
		"face":      cfg.Providers.Face,
		"tts":       cfg.Providers.TTS,
	} {
		if sidecarProviders[entry.Name] && entry.BaseURL == "" {
			errs = append(errs, fmt.Errorf("providers.%s: provider %q requires base_url", kind, entry.Name))
		}
	}

	// Provider availability warnings
	if cfg.Providers.STT.Name == "" {
		slog.Warn("no STT provider configured; audio turns will be rejected")
	}
	if cfg.Providers.TTS.Name == "" {
		slog.Warn("no TTS provider configured; audio turns cannot produce spoken replies")
	}
	if cfg.Providers.LLM.Name == "" {
		slog.Warn("no LLM provider configured; text turns will get the explanatory fallback response")
	}

	// Artifacts
	if cfg.Artifacts.Dir == "" && cfg.Providers.TTS.Name != "" {
		errs = append(errs, errors.New("artifacts.dir is required when a TTS provider is configured"))
	}
	if cfg.Artifacts.RetentionMin < 0 {
		errs = append(errs, fmt.Errorf("artifacts.retention_min %d must not be negative", cfg.Artifacts.RetentionMin))
	}
	if cfg.Artifacts.ReapIntervalMin < 0 {
		errs = append(errs, fmt.Errorf("artifacts.reap_interval_min %d must not be negative", cfg.Artifacts.ReapIntervalMin))
	}

	// Timeouts
	for name, sec := range map[string]int{
		"timeouts.transcribe_sec": cfg.Timeouts.TranscribeSec,
		"timeouts.sentiment_sec":  cfg.Timeouts.SentimentSec,
		"timeouts.face_sec":       cfg.Timeouts.FaceSec,
		"timeouts.generate_sec":   cfg.Timeouts.GenerateSec,
		"timeouts.synthesize_sec": cfg.Timeouts.SynthesizeSec,
	} {
		if sec < 0 {
			errs = append(errs, fmt.Errorf("%s %d must not be negative", name, sec))
		}
	}

	return errors.Join(errs...)
}

// validateProviderName logs a warning if name is non-empty and not found in
// the [ValidProviderNames] list for the given kind.
func validateProviderName(kind, name string) {
	if name == "" {
		return
	}
	known, ok := ValidProviderNames[kind]
	if !ok {
		return
	}
	if slices.Contains(known, name) {
		return
	}
	slog.Warn("unknown provider name — may be a typo or third-party provider",
		"kind", kind,
		"name", name,
		"known", known,
	)
}
