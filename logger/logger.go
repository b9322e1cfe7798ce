// Package logger builds the process-wide structured logger.
package logger

import (
	"io"
	"log/slog"

	"github.com/Esca-MMC/FarmTypeManager-sub001/config"
)

// Setup configures the default slog logger: JSON in production, text
// otherwise. The consoles own stdout, so callers pass stderr or a log file.
func Setup(cfg *config.Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.Level(),
	}

	var handler slog.Handler
	if cfg.Production() {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// WithTrigger adds the trigger name to logger context.
func WithTrigger(logger *slog.Logger, trigger string) *slog.Logger {
	return logger.With("trigger", trigger)
}
