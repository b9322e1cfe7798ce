// Package config loads runtime settings from the environment.
package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Config holds the settings shared by the consoles. A Seed of 0 picks one
// from the clock.
type Config struct {
	Environment string `env:"CA_ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"CA_LOG_LEVEL"   envDefault:"info"`
	Seed        int64  `env:"CA_SEED"        envDefault:"0"`
	SaveDir     string `env:"CA_SAVE_DIR"    envDefault:"saves"`
	RedisURL    string `env:"CA_REDIS_URL"`
	ContentDir  string `env:"CA_CONTENT_DIR"`
}

// Load parses the environment into a Config.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &cfg, nil
}

// Production reports whether logs should be machine readable.
func (c *Config) Production() bool {
	return strings.EqualFold(c.Environment, "production")
}

// Level maps LogLevel to a slog level. Unknown names fall back to info.
func (c *Config) Level() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
