package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadFromReader_Defaults(t *testing.T) {
	cfg, err := LoadFromReader(strings.NewReader(""))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	if cfg.Server.LogLevel != LogInfo {
		t.Errorf("LogLevel = %q, want info", cfg.Server.LogLevel)
	}
	if cfg.Limits.MaxFileSizeMB != 10 {
		t.Errorf("MaxFileSizeMB = %v, want 10", cfg.Limits.MaxFileSizeMB)
	}
	if cfg.Limits.MaxDurationSec != 30 {
		t.Errorf("MaxDurationSec = %v, want 30", cfg.Limits.MaxDurationSec)
	}
	if !cfg.Limits.EnforceDuration {
		t.Error("EnforceDuration = false, want true by default")
	}
	want := []string{"wav", "mp3", "mpeg"}
	if len(cfg.Limits.AllowedExtensions) != len(want) {
		t.Errorf("AllowedExtensions = %v, want %v", cfg.Limits.AllowedExtensions, want)
	}
}

func TestLoadFromReader_OverridesDefaults(t *testing.T) {
	cfg, err := LoadFromReader(strings.NewReader(`
server:
  log_level: debug
limits:
  max_file_size_mb: 5
  enforce_duration: false
providers:
  llm:
    name: gemini
    model: models/gemini-2.0-flash
  tts:
    name: gtts
    base_url: http://localhost:5002
`))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	if cfg.Server.LogLevel != LogDebug {
		t.Errorf("LogLevel = %q, want debug", cfg.Server.LogLevel)
	}
	if cfg.Limits.MaxFileSizeMB != 5 {
		t.Errorf("MaxFileSizeMB = %v, want 5", cfg.Limits.MaxFileSizeMB)
	}
	if cfg.Limits.EnforceDuration {
		t.Error("EnforceDuration = true, want false")
	}
	if cfg.Limits.MaxDurationSec != 30 {
		t.Errorf("MaxDurationSec = %v, want untouched default 30", cfg.Limits.MaxDurationSec)
	}
	if cfg.Providers.LLM.Model != "models/gemini-2.0-flash" {
		t.Errorf("LLM model = %q", cfg.Providers.LLM.Model)
	}
}

func TestLoadFromReader_UnknownFieldRejected(t *testing.T) {
	_, err := LoadFromReader(strings.NewReader(`
server:
  log_levle: debug
`))
	if err == nil {
		t.Fatal("expected error for unknown field, got nil")
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := Default()
	cfg.Server.LogLevel = "verbose"
	cfg.Limits.MaxFileSizeMB = 0
	cfg.Limits.AllowedExtensions = nil

	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	for _, want := range []string{"server.log_level", "limits.max_file_size_mb", "limits.allowed_extensions"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}

func TestValidate_SidecarNeedsBaseURL(t *testing.T) {
	cfg := Default()
	cfg.Providers.TTS = ProviderEntry{Name: "gtts"}

	err := Validate(cfg)
	if err == nil || !strings.Contains(err.Error(), "base_url") {
		t.Fatalf("got %v, want base_url error", err)
	}
}

func TestLoadFromReader_LLMFallbacks(t *testing.T) {
	content := `
providers:
  llm:
    name: gemini
    api_key: key
    fallbacks:
      - name: ollama
        model: llama3.2
`
	cfg, err := LoadFromReader(strings.NewReader(content))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	fbs := cfg.Providers.LLM.Fallbacks
	if len(fbs) != 1 {
		t.Fatalf("len(Fallbacks) = %d, want 1", len(fbs))
	}
	if fbs[0].Name != "ollama" || fbs[0].Model != "llama3.2" {
		t.Errorf("fallback = %+v, want ollama/llama3.2", fbs[0])
	}
}

func TestValidate_FallbackConstraints(t *testing.T) {
	t.Run("name required", func(t *testing.T) {
		cfg := Default()
		cfg.Providers.LLM.Fallbacks = []ProviderEntry{{Model: "llama3.2"}}
		if err := Validate(cfg); err == nil || !strings.Contains(err.Error(), "name is required") {
			t.Fatalf("got %v, want name-required error", err)
		}
	})

	t.Run("no nesting", func(t *testing.T) {
		cfg := Default()
		cfg.Providers.LLM.Fallbacks = []ProviderEntry{{
			Name:      "ollama",
			Fallbacks: []ProviderEntry{{Name: "gemini"}},
		}}
		if err := Validate(cfg); err == nil || !strings.Contains(err.Error(), "must not be nested") {
			t.Fatalf("got %v, want nesting error", err)
		}
	})

	t.Run("llm only", func(t *testing.T) {
		cfg := Default()
		cfg.Providers.TTS = ProviderEntry{
			Name:      "openai",
			Fallbacks: []ProviderEntry{{Name: "gtts"}},
		}
		if err := Validate(cfg); err == nil || !strings.Contains(err.Error(), "only supported for the llm provider") {
			t.Fatalf("got %v, want llm-only error", err)
		}
	})
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file, got nil")
	}
}

func TestLoad_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "solace.yaml")
	content := `
limits:
  max_duration_sec: 45
artifacts:
  dir: /tmp/replies
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Limits.MaxDurationSec != 45 {
		t.Errorf("MaxDurationSec = %d, want 45", cfg.Limits.MaxDurationSec)
	}
	if cfg.Artifacts.Dir != "/tmp/replies" {
		t.Errorf("Artifacts.Dir = %q", cfg.Artifacts.Dir)
	}
}

func TestLogLevel_IsValid(t *testing.T) {
	for _, l := range []LogLevel{LogDebug, LogInfo, LogWarn, LogError} {
		if !l.IsValid() {
			t.Errorf("%q reported invalid", l)
		}
	}
	if LogLevel("trace").IsValid() {
		t.Error("trace reported valid")
	}
}
