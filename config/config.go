// Package config loads the studio configuration: an optional YAML file, then a
// .env file, then process environment variables, each overriding the last.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the provider credentials and server settings.
type Config struct {
	ServerAddr     string         `yaml:"server_addr" env:"SERVER_ADDR"`
	Mock           bool           `yaml:"mock" env:"MOCK_PROVIDERS"`
	OpenAI         ProviderConfig `yaml:"openai" envPrefix:"OPENAI_"`
	Anthropic      ProviderConfig `yaml:"anthropic" envPrefix:"ANTHROPIC_"`
	Gemini         ProviderConfig `yaml:"gemini" envPrefix:"GEMINI_"`
	StreamTimeout  time.Duration  `yaml:"stream_timeout" env:"STREAM_TIMEOUT"`
	RequestTimeout time.Duration  `yaml:"request_timeout" env:"REQUEST_TIMEOUT"`
	Heartbeat      time.Duration  `yaml:"heartbeat" env:"HEARTBEAT"`
	MaxParallel    int            `yaml:"max_parallel" env:"MAX_PARALLEL"`
	Review         ReviewConfig   `yaml:"review" envPrefix:"REVIEW_"`
	Log            LogConfig      `yaml:"log" envPrefix:"LOG_"`
}

// ProviderConfig configures one external provider.
type ProviderConfig struct {
	Model   string `yaml:"model" env:"MODEL"`
	APIKey  string `yaml:"api_key" env:"API_KEY"`
	BaseURL string `yaml:"base_url" env:"BASE_URL"`
}

type ReviewConfig struct {
	Reviewer    string `yaml:"reviewer" env:"REVIEWER"`
	StrictSpans bool   `yaml:"strict_spans" env:"STRICT_SPANS"`
}

// LogConfig controls the logrus output.
type LogConfig struct {
	Level      string `yaml:"level" env:"LEVEL"`
	Format     string `yaml:"format" env:"FORMAT"`
	Output     string `yaml:"output" env:"OUTPUT"`
	File       string `yaml:"file" env:"FILE"`
	MaxSizeMB  int    `yaml:"max_size_mb" env:"MAX_SIZE_MB"`
	MaxBackups int    `yaml:"max_backups" env:"MAX_BACKUPS"`
	MaxAgeDays int    `yaml:"max_age_days" env:"MAX_AGE_DAYS"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		ServerAddr:     ":8080",
		StreamTimeout:  5 * time.Minute,
		RequestTimeout: 2 * time.Minute,
		Heartbeat:      15 * time.Second,
		Log: LogConfig{
			Level:      "info",
			Format:     "text",
			Output:     "stdout",
			File:       "logs/studio.log",
			MaxSizeMB:  100,
			MaxBackups: 5,
			MaxAgeDays: 30,
		},
	}
}

// ConfigError lists every problem found by Validate.
type ConfigError struct {
	Problems []string
}

func (e *ConfigError) Error() string {
	return "invalid configuration: " + strings.Join(e.Problems, "; ")
}

// Load builds a Config from defaults, the YAML file at path (skipped when it
// does not exist), the .env files and the environment.
func Load(path string, envFiles ...string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return Config{}, err
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse %s: %w", path, err)
			}
		}
	}

	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		// godotenv never overrides variables already present in the process.
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}

// Validate fails when a mandatory credential is absent. Mock mode needs none.
func (c Config) Validate() error {
	var problems []string
	if !c.Mock {
		if c.OpenAI.APIKey == "" {
			problems = append(problems, "openai.api_key (OPENAI_API_KEY) is required")
		}
		if c.Anthropic.APIKey == "" {
			problems = append(problems, "anthropic.api_key (ANTHROPIC_API_KEY) is required")
		}
		if c.Gemini.APIKey == "" {
			problems = append(problems, "gemini.api_key (GEMINI_API_KEY) is required")
		}
	}
	switch c.Review.Reviewer {
	case "", "gpt", "claude":
	default:
		problems = append(problems, fmt.Sprintf("review.reviewer %q must be gpt or claude", c.Review.Reviewer))
	}
	if c.StreamTimeout <= 0 || c.RequestTimeout <= 0 {
		problems = append(problems, "timeouts must be positive")
	}
	if c.MaxParallel < 0 {
		problems = append(problems, "max_parallel must not be negative")
	}
	if len(problems) > 0 {
		return &ConfigError{Problems: problems}
	}
	return nil
}
