package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds settings read from the environment. Command-line flags take
// precedence over these values.
type Config struct {
	DBPath      string `env:"R6METRICS_DB,expand" envDefault:"${HOME}/.r6metrics/metrics.db"`
	DatabaseURL string `env:"DATABASE_URL"`
	LogLevel    string `env:"R6METRICS_LOG_LEVEL" envDefault:"warn"`
	LogFormat   string `env:"R6METRICS_LOG_FORMAT" envDefault:"console"`

	AnthropicAPIKey string `env:"ANTHROPIC_API_KEY"`
	AnalyzeModel    string `env:"R6METRICS_ANALYZE_MODEL" envDefault:"claude-haiku-4-5-20251001"`
}

// Load reads the given .env files, skipping any that do not exist, then
// parses the environment. Variables already set win over file values.
func Load(files ...string) (*Config, error) {
	for _, path := range files {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
	}
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
