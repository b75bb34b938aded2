// Package logger builds the slog loggers used by the bridge and its CLI.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Config holds the configuration for the logger.
type Config struct {
	// Level is the minimum severity written
	Level slog.Level
	// Output is where log lines go
	Output io.Writer
	// JSONFormat selects JSON lines instead of logfmt-style text
	JSONFormat bool
}

// NewLogger creates a new slog.Logger with the specified configuration.
func NewLogger(cfg Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.Level}
	var handler slog.Handler
	if cfg.JSONFormat {
		handler = slog.NewJSONHandler(cfg.Output, opts)
	} else {
		handler = slog.NewTextHandler(cfg.Output, opts)
	}
	return slog.New(handler)
}

// SetDefault installs a logger built from cfg as the slog default.
func SetDefault(cfg Config) *slog.Logger {
	l := NewLogger(cfg)
	slog.SetDefault(l)
	return l
}

// ParseLevel maps "debug", "info", "warn" and "error" to slog levels.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("unknown log level %q", s)
}
