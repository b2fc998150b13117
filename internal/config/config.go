// Package config provides configuration types and helpers for aura.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config holds the application-wide configuration.
type Config struct {
	Format    string          `mapstructure:"format"`
	Verbose   bool            `mapstructure:"verbose"`
	Color     string          `mapstructure:"color"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Log       LogConfig       `mapstructure:"log"`
	Redaction RedactionConfig `mapstructure:"redaction"`
}

// LLMConfig holds configuration for LLM providers.
type LLMConfig struct {
	// Provider selects which LLM to use: "gemini", "ollama", "openai", "anthropic"
	Provider string `mapstructure:"provider"`

	// Timeout bounds a single generation or refinement call, e.g. "90s".
	// Empty means no timeout.
	Timeout string `mapstructure:"timeout"`

	MaxTokens int `mapstructure:"max_tokens"`

	// ModelOverride replaces the selected provider's model when set.
	ModelOverride string `mapstructure:"model"`

	Gemini    GeminiConfig    `mapstructure:"gemini"`
	Ollama    OllamaConfig    `mapstructure:"ollama"`
	OpenAI    OpenAIConfig    `mapstructure:"openai"`
	Anthropic AnthropicConfig `mapstructure:"anthropic"`
}

// GeminiConfig holds Google Gemini settings.
type GeminiConfig struct {
	APIKey   string `mapstructure:"api_key"`  // Optional: read from GEMINI_API_KEY if empty
	Model    string `mapstructure:"model"`    // e.g. "gemini-2.5-flash"
	Project  string `mapstructure:"project"`  // Vertex AI project; selects the Vertex backend when set
	Location string `mapstructure:"location"` // Vertex AI region
}

// OllamaConfig holds Ollama-specific settings.
type OllamaConfig struct {
	Host      string `mapstructure:"host"`       // API endpoint
	Model     string `mapstructure:"model"`      // Default model name
	KeepAlive string `mapstructure:"keep_alive"` // e.g., "5m"
	NumCtx    int    `mapstructure:"num_ctx"`    // Context window size
}

// OpenAIConfig holds OpenAI-specific settings.
type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`  // Optional: read from OPENAI_API_KEY if empty
	Model   string `mapstructure:"model"`    // e.g., "gpt-4o"
	BaseURL string `mapstructure:"base_url"` // Optional: for compatible endpoints
	OrgID   string `mapstructure:"org_id"`   // Optional: organization ID
}

// AnthropicConfig holds Anthropic/Claude-specific settings.
type AnthropicConfig struct {
	APIKey string `mapstructure:"api_key"` // Optional: read from ANTHROPIC_API_KEY if empty
	Model  string `mapstructure:"model"`
}

// StorageConfig selects and configures the key-value store holding the
// company list and report history.
type StorageConfig struct {
	// Backend is one of "file", "sqlite", "postgres", "memory".
	Backend string `mapstructure:"backend"`

	// Dir is the directory used by the file backend.
	Dir string `mapstructure:"dir"`

	// Path is the database file used by the sqlite backend.
	Path string `mapstructure:"path"`

	// DSN is the connection string used by the postgres backend.
	DSN string `mapstructure:"dsn"`
}

// LogConfig controls the structured logger.
type LogConfig struct {
	Level string `mapstructure:"level"` // debug, info, warn, error
	JSON  bool   `mapstructure:"json"`
	// File enables a rotated log file in addition to stderr.
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
}

// RedactionConfig holds configuration for masking personal data in free
// text before it is sent to a provider.
type RedactionConfig struct {
	Enabled bool `mapstructure:"enabled"`

	// Patterns specifies which redaction patterns to use
	// Available: email, phone, ipv4, credit_card, api_key
	Patterns []string `mapstructure:"patterns"`
}

// Supported provider and backend names.
var (
	Providers = []string{"gemini", "ollama", "openai", "anthropic"}
	Backends  = []string{"file", "sqlite", "postgres", "memory"}
)

// Validate reports configuration values that cannot work.
func (c *Config) Validate() error {
	if !contains(Providers, strings.ToLower(c.LLM.Provider)) {
		return fmt.Errorf("unknown llm provider %q (supported: %s)", c.LLM.Provider, strings.Join(Providers, ", "))
	}
	if !contains(Backends, strings.ToLower(c.Storage.Backend)) {
		return fmt.Errorf("unknown storage backend %q (supported: %s)", c.Storage.Backend, strings.Join(Backends, ", "))
	}
	if _, err := c.LLM.TimeoutDuration(); err != nil {
		return fmt.Errorf("invalid llm.timeout: %w", err)
	}
	return nil
}

// TimeoutDuration parses Timeout; zero means unbounded.
func (l LLMConfig) TimeoutDuration() (time.Duration, error) {
	return ParseDuration(l.Timeout)
}

// Model returns the model name configured for the selected provider.
// ModelOverride takes precedence.
func (l LLMConfig) Model() string {
	if l.ModelOverride != "" {
		return l.ModelOverride
	}
	switch strings.ToLower(l.Provider) {
	case "gemini":
		return l.Gemini.Model
	case "ollama":
		return l.Ollama.Model
	case "openai":
		return l.OpenAI.Model
	case "anthropic":
		return l.Anthropic.Model
	default:
		return ""
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
