package config

import (
	"time"

	"github.com/AhsanRiaz786/bank-statement-extraction/internal/normalize"
)

// Config is the full tool configuration.
type Config struct {
	Model    ModelConfig    `mapstructure:"model" yaml:"model"`
	Pipeline PipelineConfig `mapstructure:"pipeline" yaml:"pipeline"`
	Output   OutputConfig   `mapstructure:"output" yaml:"output"`
	Logging  LoggingConfig  `mapstructure:"logging" yaml:"logging"`
}

// ModelConfig describes the OpenAI-compatible endpoint used for extraction.
type ModelConfig struct {
	BaseURL     string  `mapstructure:"base_url" yaml:"base_url"`
	APIKey      string  `mapstructure:"api_key" yaml:"api_key"`
	Name        string  `mapstructure:"name" yaml:"name"`
	Temperature float64 `mapstructure:"temperature" yaml:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens" yaml:"max_tokens"`
}

// PipelineConfig holds the run tunables.
type PipelineConfig struct {
	SchemaPageLimit    int      `mapstructure:"schema_page_limit" yaml:"schema_page_limit"`
	MaxAttempts        int      `mapstructure:"max_attempts" yaml:"max_attempts"`
	CallTimeoutSeconds int      `mapstructure:"call_timeout_seconds" yaml:"call_timeout_seconds"`
	DateHints          []string `mapstructure:"date_hints" yaml:"date_hints"`
}

// CallTimeout returns the per-attempt model call deadline.
func (p PipelineConfig) CallTimeout() time.Duration {
	return time.Duration(p.CallTimeoutSeconds) * time.Second
}

// OutputConfig controls where results and debug artifacts land.
type OutputConfig struct {
	Format   string `mapstructure:"format" yaml:"format"`
	DebugDir string `mapstructure:"debug_dir" yaml:"debug_dir"`
}

// LoggingConfig controls the slog handler.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"` // "text" or "json"
}

// DefaultConfig returns the built-in defaults. The model endpoint defaults
// to a local Ollama server so the tool works with no config file at all.
func DefaultConfig() *Config {
	return &Config{
		Model: ModelConfig{
			BaseURL:     "http://localhost:11434/v1",
			APIKey:      "${OPENAI_API_KEY}",
			Name:        "qwen2.5:14b",
			Temperature: 0.1,
			MaxTokens:   8192,
		},
		Pipeline: PipelineConfig{
			SchemaPageLimit:    3,
			MaxAttempts:        3,
			CallTimeoutSeconds: 120,
			DateHints:          normalize.DefaultDateHints,
		},
		Output: OutputConfig{
			Format: "csv",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
