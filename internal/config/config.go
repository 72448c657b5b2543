package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all neonresearch configuration.
type Config struct {
	// LLM configuration (answer generation backend)
	LLM LLMConfig `yaml:"llm"`

	// Status line animation
	Animation AnimationConfig `yaml:"animation"`

	// Terminal presentation
	UI UIConfig `yaml:"ui"`

	// Transcript persistence
	History HistoryConfig `yaml:"history"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// LLMConfig selects the synthesizer.
type LLMConfig struct {
	Provider string `yaml:"provider"` // canned, gemini
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
	Timeout  string `yaml:"timeout"`
}

// AnimationConfig configures the status line engine.
type AnimationConfig struct {
	Policy                string `yaml:"policy"`    // auto, timeboxed, taskbound
	MinDelay              string `yaml:"min_delay"` // TimeBoxed lower bound
	MaxDelay              string `yaml:"max_delay"` // TimeBoxed upper bound (exclusive)
	FrameInterval         string `yaml:"frame_interval"`
	TicksPerMessageChange int    `yaml:"ticks_per_message_change"`
	Seed                  int64  `yaml:"seed"` // 0 = seeded from the clock
}

// UIConfig configures terminal presentation.
type UIConfig struct {
	Splash          bool   `yaml:"splash"`
	Theme           string `yaml:"theme"` // auto, dark, light
	TypewriterDelay string `yaml:"typewriter_delay"`
	Width           int    `yaml:"width"`
}

// HistoryConfig configures the optional SQLite transcript.
type HistoryConfig struct {
	DatabasePath string `yaml:"database_path"` // empty disables recording
}

const (
	ProviderCanned = "canned"
	ProviderGemini = "gemini"

	PolicyAuto      = "auto"
	PolicyTimeBoxed = "timeboxed"
	PolicyTaskBound = "taskbound"
)

// ValidProviders lists the supported synthesizer backends.
var ValidProviders = []string{ProviderCanned, ProviderGemini}

// ValidPolicies lists the supported animation stop policies.
var ValidPolicies = []string{PolicyAuto, PolicyTimeBoxed, PolicyTaskBound}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider: ProviderCanned,
			Model:    "gemini-2.0-flash",
			Timeout:  "120s",
		},
		Animation: AnimationConfig{
			Policy:                PolicyAuto,
			MinDelay:              "4s",
			MaxDelay:              "7s",
			FrameInterval:         "100ms",
			TicksPerMessageChange: 15,
		},
		UI: UIConfig{
			Splash: true,
			Theme:  "auto",
			Width:  60,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// StateDir returns the directory where config, logs and history live.
func StateDir() string {
	// Prefer project-local .neon directory if present
	if cwd, err := os.Getwd(); err == nil {
		localDir := filepath.Join(cwd, ".neon")
		if stat, err := os.Stat(localDir); err == nil && stat.IsDir() {
			return localDir
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ".neon"
	}
	return filepath.Join(home, ".neonresearch")
}

// DefaultConfigPath returns the config file inside StateDir.
func DefaultConfigPath() string {
	return filepath.Join(StateDir(), "config.yaml")
}

// Load reads configuration from a YAML file, then applies .env and
// environment overrides. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	case os.IsNotExist(err):
		// defaults
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	LoadDotEnv(".env", filepath.Join(filepath.Dir(path), ".env"))
	cfg.applyEnvOverrides()

	return cfg, nil
}

// LoadDotEnv loads KEY=VALUE files into the process environment.
// Existing environment variables always win; missing files are ignored.
func LoadDotEnv(paths ...string) {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		_ = godotenv.Load(p)
	}
}

func (c *Config) applyEnvOverrides() {
	// API key from environment (GEMINI_API_KEY wins over GOOGLE_API_KEY)
	if key := os.Getenv("GOOGLE_API_KEY"); key != "" {
		c.LLM.APIKey = key
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.LLM.APIKey = key
	}

	if provider := os.Getenv("NEON_PROVIDER"); provider != "" {
		c.LLM.Provider = strings.ToLower(strings.TrimSpace(provider))
	}
	if model := os.Getenv("NEON_MODEL"); model != "" {
		c.LLM.Model = model
	}
	if path := os.Getenv("NEON_DB"); path != "" {
		c.History.DatabasePath = path
	}
	if os.Getenv("NEON_NO_SPLASH") != "" {
		c.UI.Splash = false
	}
}

// Validate checks the configuration for startup errors.
func (c *Config) Validate() error {
	if !contains(ValidProviders, c.LLM.Provider) {
		return fmt.Errorf("invalid LLM provider: %s (valid: %v)", c.LLM.Provider, ValidProviders)
	}
	if c.LLM.Provider == ProviderGemini && c.LLM.APIKey == "" {
		return fmt.Errorf("LLM API key not configured (set GEMINI_API_KEY or GOOGLE_API_KEY)")
	}

	if !contains(ValidPolicies, c.Animation.Policy) {
		return fmt.Errorf("invalid animation policy: %s (valid: %v)", c.Animation.Policy, ValidPolicies)
	}
	if c.GetMaxDelay() < c.GetMinDelay() {
		return fmt.Errorf("animation max_delay (%v) must not be below min_delay (%v)", c.GetMaxDelay(), c.GetMinDelay())
	}
	if c.Animation.TicksPerMessageChange < 0 {
		return fmt.Errorf("animation ticks_per_message_change must be positive")
	}

	return c.Logging.Validate()
}

// GetLLMTimeout returns the request timeout for remote synthesizers.
func (c *Config) GetLLMTimeout() time.Duration {
	return parseDuration(c.LLM.Timeout, 120*time.Second)
}

// GetMinDelay returns the TimeBoxed lower bound.
func (c *Config) GetMinDelay() time.Duration {
	return parseDuration(c.Animation.MinDelay, 4*time.Second)
}

// GetMaxDelay returns the TimeBoxed upper bound.
func (c *Config) GetMaxDelay() time.Duration {
	return parseDuration(c.Animation.MaxDelay, 7*time.Second)
}

// GetFrameInterval returns the animation frame interval.
func (c *Config) GetFrameInterval() time.Duration {
	d := parseDuration(c.Animation.FrameInterval, 100*time.Millisecond)
	if d <= 0 {
		return 100 * time.Millisecond
	}
	return d
}

// GetTicksPerMessageChange returns the message rotation period in frames.
func (c *Config) GetTicksPerMessageChange() int {
	if c.Animation.TicksPerMessageChange <= 0 {
		return 15
	}
	return c.Animation.TicksPerMessageChange
}

// GetTypewriterDelay returns the per-rune delay for answer reveal; 0 disables it.
func (c *Config) GetTypewriterDelay() time.Duration {
	if c.UI.TypewriterDelay == "" {
		return 0
	}
	return parseDuration(c.UI.TypewriterDelay, 0)
}

// IsHistoryEnabled reports whether turns are recorded to SQLite.
func (c *Config) IsHistoryEnabled() bool {
	return c.History.DatabasePath != ""
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return fallback
	}
	return d
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
