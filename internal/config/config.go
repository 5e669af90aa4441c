// Package config provides the configuration schema and loader for the solace
// turn-processing service.
package config

// LogLevel controls log verbosity for the solace server.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Config is the root configuration structure for solace.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Limits    LimitsConfig    `yaml:"limits"`
	Providers ProvidersConfig `yaml:"providers"`
	Artifacts ArtifactsConfig `yaml:"artifacts"`
	Timeouts  TimeoutsConfig  `yaml:"timeouts"`
}

// ServerConfig holds network and logging settings.
type ServerConfig struct {
	// ListenAddr is the TCP address the server listens on (e.g., ":8080").
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`
}

// LimitsConfig bounds uploaded audio before any expensive processing runs.
type LimitsConfig struct {
	// AllowedExtensions lists acceptable audio extensions without the leading
	// dot, compared case-insensitively.
	AllowedExtensions []string `yaml:"allowed_extensions"`

	// MaxFileSizeMB is the maximum upload size in MiB.
	MaxFileSizeMB float64 `yaml:"max_file_size_mb"`

	// MaxDurationSec is the maximum audio length in seconds.
	MaxDurationSec int `yaml:"max_duration_sec"`

	// EnforceDuration switches the over-duration rejection on or off. The
	// probed duration is reported in the result either way.
	EnforceDuration bool `yaml:"enforce_duration"`
}

// ProvidersConfig declares which provider implementation to use for each
// pipeline stage.
type ProvidersConfig struct {
	STT       ProviderEntry `yaml:"stt"`
	Sentiment ProviderEntry `yaml:"sentiment"`
	Face      ProviderEntry `yaml:"face"`
	LLM       ProviderEntry `yaml:"llm"`
	TTS       ProviderEntry `yaml:"tts"`
}

// ProviderEntry is the common configuration block shared by all provider types.
type ProviderEntry struct {
	// Name selects the provider implementation (e.g., "whisper-native", "gemini").
	Name string `yaml:"name"`

	// APIKey is the authentication key for the provider's API if any.
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the provider's default API endpoint. Sidecar providers
	// (distilbert, deepface, gtts) require it.
	BaseURL string `yaml:"base_url"`

	// Model selects a specific model within the provider (e.g., a whisper
	// model path or "models/gemini-2.0-flash").
	Model string `yaml:"model"`

	// Options holds provider-specific configuration values not covered by the
	// standard fields above.
	Options map[string]any `yaml:"options"`

	// Fallbacks lists additional backends tried in declaration order when this
	// provider fails or its circuit breaker is open. Only the llm provider
	// supports fallbacks; nesting them further is not allowed.
	Fallbacks []ProviderEntry `yaml:"fallbacks"`
}

// ArtifactsConfig controls storage and retention of synthesized reply audio.
type ArtifactsConfig struct {
	// Dir is the directory synthesized replies are stored in.
	Dir string `yaml:"dir"`

	// RetentionMin is how long an artifact is kept before the reaper may
	// remove it, in minutes.
	RetentionMin int `yaml:"retention_min"`

	// ReapIntervalMin is how often the reaper sweeps, in minutes.
	ReapIntervalMin int `yaml:"reap_interval_min"`
}

// TimeoutsConfig bounds every external adapter call, in seconds. Zero values
// are replaced with defaults at load time.
type TimeoutsConfig struct {
	TranscribeSec int `yaml:"transcribe_sec"`
	SentimentSec  int `yaml:"sentiment_sec"`
	FaceSec       int `yaml:"face_sec"`
	GenerateSec   int `yaml:"generate_sec"`
	SynthesizeSec int `yaml:"synthesize_sec"`
}

// Default returns a Config populated with the built-in defaults. Loading a
// YAML file overlays user values on top of these.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			ListenAddr: ":8080",
			LogLevel:   LogInfo,
		},
		Limits: LimitsConfig{
			AllowedExtensions: []string{"wav", "mp3", "mpeg"},
			MaxFileSizeMB:     10,
			MaxDurationSec:    30,
			EnforceDuration:   true,
		},
		Artifacts: ArtifactsConfig{
			Dir:             "responses",
			RetentionMin:    60,
			ReapIntervalMin: 10,
		},
		Timeouts: TimeoutsConfig{
			TranscribeSec: 60,
			SentimentSec:  15,
			FaceSec:       30,
			GenerateSec:   60,
			SynthesizeSec: 60,
		},
	}
}
