// Package log configures structured logging for the dashboard.
package log

import (
	"log/slog"
	"os"
	"strings"
)

// Config holds logger configuration.
type Config struct {
	Level  slog.Level
	Format string // "text" or "json"
}

// DefaultConfig reads LOG_LEVEL and LOG_FORMAT from the environment.
func DefaultConfig() Config {
	cfg := Config{Level: slog.LevelInfo, Format: "text"}
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		cfg.Level = slog.LevelDebug
	case "warn":
		cfg.Level = slog.LevelWarn
	case "error":
		cfg.Level = slog.LevelError
	}
	if strings.ToLower(os.Getenv("LOG_FORMAT")) == "json" {
		cfg.Format = "json"
	}
	return cfg
}

// New builds the process logger.
func New(cfg Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.Level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}

// SetDefault installs the logger as the process default for slog.
func SetDefault(l *slog.Logger) {
	slog.SetDefault(l)
}

// ForComponent tags a child logger with the component it belongs to.
func ForComponent(l *slog.Logger, component string) *slog.Logger {
	return l.With(FieldComponent, component)
}
