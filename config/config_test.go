package config

import (
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, int64(0), cfg.Seed)
	assert.Equal(t, "saves", cfg.SaveDir)
	assert.Empty(t, cfg.RedisURL)
	assert.False(t, cfg.Production())
	assert.Equal(t, slog.LevelInfo, cfg.Level())
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("CA_ENVIRONMENT", "Production")
	t.Setenv("CA_LOG_LEVEL", "DEBUG")
	t.Setenv("CA_SEED", "42")
	t.Setenv("CA_SAVE_DIR", "/tmp/ca")
	t.Setenv("CA_REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("CA_CONTENT_DIR", "content")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.Production())
	assert.Equal(t, slog.LevelDebug, cfg.Level())
	assert.Equal(t, int64(42), cfg.Seed)
	assert.Equal(t, "/tmp/ca", cfg.SaveDir)
	assert.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)
	assert.Equal(t, "content", cfg.ContentDir)
}

func TestLoad_BadSeed(t *testing.T) {
	t.Setenv("CA_SEED", "not-a-number")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}

func TestLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"loud", slog.LevelInfo},
	}
	for _, tt := range tests {
		cfg := &Config{LogLevel: tt.in}
		if got := cfg.Level(); got != tt.want {
			t.Errorf("Level(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
