// Package config loads tool configuration from a YAML file, environment
// variables, and built-in defaults, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Manager loads configuration and hands out the resolved Config.
type Manager struct {
	mu     sync.RWMutex
	config *Config
}

// NewManager creates a config manager and loads the initial config. An
// empty cfgFile falls back to the search path (., $HOME/.bankstmt).
func NewManager(cfgFile string) (*Manager, error) {
	cm := &Manager{}

	if err := cm.initViper(cfgFile); err != nil {
		return nil, err
	}

	cfg, err := cm.load()
	if err != nil {
		return nil, err
	}
	cm.config = cfg

	return cm, nil
}

// initViper sets up viper with defaults, env overrides, and the config file.
func (cm *Manager) initViper(cfgFile string) error {
	defaults := DefaultConfig()
	viper.SetDefault("model", defaults.Model)
	viper.SetDefault("pipeline", defaults.Pipeline)
	viper.SetDefault("output", defaults.Output)
	viper.SetDefault("logging", defaults.Logging)

	// Environment variables with BANKSTMT_ prefix, e.g. BANKSTMT_MODEL_NAME.
	viper.SetEnvPrefix("BANKSTMT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.bankstmt")
	}

	// A missing config file is fine; defaults and env cover everything.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && cfgFile == "" {
			return fmt.Errorf("error reading config file: %w", err)
		}
		if cfgFile != "" {
			if _, statErr := os.Stat(cfgFile); statErr == nil {
				return fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	return nil
}

// load parses the current viper state into a Config struct.
func (cm *Manager) load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Model.APIKey = ResolveEnvVars(cfg.Model.APIKey)
	return &cfg, nil
}

// Get returns the current configuration (thread-safe).
func (cm *Manager) Get() *Config {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.config
}

// ResolveEnvVars expands ${ENV_VAR} references in a string.
func ResolveEnvVars(value string) string {
	if value == "" {
		return value
	}
	pattern := regexp.MustCompile(`\$\{([^}]+)\}`)
	return pattern.ReplaceAllStringFunc(value, func(match string) string {
		varName := match[2 : len(match)-1]
		return os.Getenv(varName)
	})
}

// WriteDefault writes the default configuration to the specified path.
func WriteDefault(path string) error {
	cfg := DefaultConfig()
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# bankstmt configuration
# The api_key field uses ${ENV_VAR} syntax to reference environment variables.
# Set it in your shell: export OPENAI_API_KEY=xxx
# base_url accepts any OpenAI-compatible endpoint, including a local Ollama
# server (http://localhost:11434/v1).

`)
	return os.WriteFile(path, append(header, data...), 0o644)
}
