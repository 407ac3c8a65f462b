package common

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Logging LoggingConfig `toml:"logging"`
	LLM     LLMConfig     `toml:"llm"`
	Claude  ClaudeConfig  `toml:"claude"`
	Gemini  GeminiConfig  `toml:"gemini"`
	Cache   CacheConfig   `toml:"cache"`
}

type LoggingConfig struct {
	Level  string   `toml:"level" validate:"omitempty,oneof=debug info warn error"` // "debug", "info", "warn", "error"
	Output []string `toml:"output"`                                                 // "stdout", "file"
}

// LLMProvider represents the AI provider type
type LLMProvider string

const (
	// LLMProviderClaude uses Anthropic Claude API
	LLMProviderClaude LLMProvider = "claude"
	// LLMProviderGemini uses Google Gemini API
	LLMProviderGemini LLMProvider = "gemini"
)

// LLMConfig selects the generation provider
type LLMConfig struct {
	DefaultProvider LLMProvider `toml:"default_provider" validate:"omitempty,oneof=claude gemini"`
}

// ClaudeConfig contains Anthropic Claude API configuration
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`
	MaxTokens   int     `toml:"max_tokens"`
	Timeout     string  `toml:"timeout"`     // Operation timeout as duration string (default: "2m")
	Temperature float32 `toml:"temperature"` // Completion temperature (default: 0.2)
}

// GeminiConfig contains Google Gemini API configuration
type GeminiConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`
	Timeout     string  `toml:"timeout"`
	Temperature float32 `toml:"temperature"`
}

// CacheConfig controls the local generation cache
type CacheConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"` // Badger directory (default: ~/.circlegha/cache)
}

// NewDefaultConfig creates a configuration with default values
func NewDefaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout"},
		},
		LLM: LLMConfig{
			DefaultProvider: LLMProviderClaude,
		},
		Claude: ClaudeConfig{
			Model:       "claude-sonnet-4-20250514",
			MaxTokens:   8192,
			Timeout:     "2m",
			Temperature: 0.2,
		},
		Gemini: GeminiConfig{
			Model:       "gemini-1.5-pro",
			Timeout:     "2m",
			Temperature: 0.2,
		},
		Cache: CacheConfig{
			Enabled: true,
			Path:    defaultCachePath(),
		},
	}
}

func defaultCachePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".circlegha/cache"
	}
	return home + "/.circlegha/cache"
}

// LoadFromFiles builds the configuration with the layering:
// defaults -> config files (later files override earlier ones) -> env
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks field constraints and duration strings
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if _, err := time.ParseDuration(c.Claude.Timeout); err != nil {
		return fmt.Errorf("invalid claude.timeout %q: %w", c.Claude.Timeout, err)
	}
	if _, err := time.ParseDuration(c.Gemini.Timeout); err != nil {
		return fmt.Errorf("invalid gemini.timeout %q: %w", c.Gemini.Timeout, err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to config.
// CIRCLEGHA_* variables win over config files; the providers' native key
// variables are honored as fallbacks.
func applyEnvOverrides(config *Config) {
	if level := os.Getenv("CIRCLEGHA_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if provider := os.Getenv("CIRCLEGHA_LLM_PROVIDER"); provider != "" {
		config.LLM.DefaultProvider = LLMProvider(provider)
	}

	if apiKey := os.Getenv("CIRCLEGHA_CLAUDE_API_KEY"); apiKey != "" {
		config.Claude.APIKey = apiKey
	} else if apiKey := os.Getenv("ANTHROPIC_API_KEY"); apiKey != "" {
		config.Claude.APIKey = apiKey
	}
	if model := os.Getenv("CIRCLEGHA_CLAUDE_MODEL"); model != "" {
		config.Claude.Model = model
	}

	if apiKey := os.Getenv("CIRCLEGHA_GEMINI_API_KEY"); apiKey != "" {
		config.Gemini.APIKey = apiKey
	} else if apiKey := os.Getenv("GOOGLE_API_KEY"); apiKey != "" {
		config.Gemini.APIKey = apiKey
	}
	if model := os.Getenv("CIRCLEGHA_GEMINI_MODEL"); model != "" {
		config.Gemini.Model = model
	}

	if path := os.Getenv("CIRCLEGHA_CACHE_PATH"); path != "" {
		config.Cache.Path = path
	}
}

// DetectProviderFromModel infers the provider from a model name prefix.
// Returns empty when the name matches neither family.
func DetectProviderFromModel(model string) LLMProvider {
	switch {
	case strings.HasPrefix(model, "claude"):
		return LLMProviderClaude
	case strings.HasPrefix(model, "gemini"):
		return LLMProviderGemini
	}
	return ""
}

// ApplyFlagOverrides applies command-line flag overrides (highest priority).
// A model flag without a provider flag switches the provider to the model's
// family.
func ApplyFlagOverrides(config *Config, provider, model string) {
	if provider != "" {
		config.LLM.DefaultProvider = LLMProvider(provider)
	} else if detected := DetectProviderFromModel(model); detected != "" {
		config.LLM.DefaultProvider = detected
	}
	if model == "" {
		return
	}
	switch config.LLM.DefaultProvider {
	case LLMProviderGemini:
		config.Gemini.Model = model
	default:
		config.Claude.Model = model
	}
}
