package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// =============================================================================
// UNIFIED CONFIG TESTS
// =============================================================================

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.LLM.Provider != ProviderCanned {
		t.Errorf("expected Provider=canned, got %s", cfg.LLM.Provider)
	}
	if cfg.Animation.Policy != PolicyAuto {
		t.Errorf("expected Policy=auto, got %s", cfg.Animation.Policy)
	}
	if !cfg.UI.Splash {
		t.Error("expected splash enabled by default")
	}
	if cfg.IsHistoryEnabled() {
		t.Error("expected history disabled by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestConfig_LoadYAML(t *testing.T) {
	// Ensure no env vars interfere
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")
	t.Setenv("NEON_PROVIDER", "")
	t.Setenv("NEON_MODEL", "")

	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.yaml")

	data := `llm:
  provider: gemini
  api_key: sk-test
animation:
  min_delay: 1s
  max_delay: 2s
`
	if err := os.WriteFile(path, []byte(data), 0600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.LLM.Provider != ProviderGemini {
		t.Errorf("expected Provider=gemini, got %s", loaded.LLM.Provider)
	}
	if loaded.LLM.APIKey != "sk-test" {
		t.Errorf("expected APIKey=sk-test, got %s", loaded.LLM.APIKey)
	}
	if loaded.GetMinDelay() != time.Second || loaded.GetMaxDelay() != 2*time.Second {
		t.Errorf("unexpected delays: %v..%v", loaded.GetMinDelay(), loaded.GetMaxDelay())
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("NEON_PROVIDER", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.LLM.Provider != ProviderCanned {
		t.Errorf("expected defaults, got provider %s", cfg.LLM.Provider)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("llm: [not, a, map"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestConfig_Validate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LLM.Provider = ProviderGemini
	// Gemini has no API key
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for missing API key")
	}

	cfg.LLM.APIKey = "test-key"
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected valid config, got error: %v", err)
	}

	cfg.LLM.Provider = "invalid-provider"
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for invalid provider")
	}

	cfg = DefaultConfig()
	cfg.Animation.MinDelay = "5s"
	cfg.Animation.MaxDelay = "1s"
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for inverted delay bounds")
	}

	cfg = DefaultConfig()
	cfg.Animation.Policy = "forever"
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for unknown policy")
	}

	cfg = DefaultConfig()
	cfg.Logging.Level = "chatty"
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for unknown log level")
	}
}

func TestConfig_Helpers(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.GetLLMTimeout() != 120*time.Second {
		t.Errorf("GetLLMTimeout = %v", cfg.GetLLMTimeout())
	}
	if cfg.GetFrameInterval() != 100*time.Millisecond {
		t.Errorf("GetFrameInterval = %v", cfg.GetFrameInterval())
	}
	if cfg.GetTicksPerMessageChange() != 15 {
		t.Errorf("GetTicksPerMessageChange = %d", cfg.GetTicksPerMessageChange())
	}
	if cfg.GetTypewriterDelay() != 0 {
		t.Errorf("typewriter should be disabled by default")
	}

	// Unparseable values fall back
	cfg.Animation.FrameInterval = "soon"
	cfg.Animation.TicksPerMessageChange = 0
	cfg.UI.TypewriterDelay = "10ms"
	if cfg.GetFrameInterval() != 100*time.Millisecond {
		t.Error("GetFrameInterval should fall back on parse errors")
	}
	if cfg.GetTicksPerMessageChange() != 15 {
		t.Error("GetTicksPerMessageChange should fall back when unset")
	}
	if cfg.GetTypewriterDelay() != 10*time.Millisecond {
		t.Errorf("GetTypewriterDelay = %v", cfg.GetTypewriterDelay())
	}
}
