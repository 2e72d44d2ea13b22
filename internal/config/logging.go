package config

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Version is stamped at build time with -ldflags.
var Version = "dev"

// NewLogger builds the process logger writing to w (stderr when nil).
func NewLogger(w io.Writer, level, format, service string) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}

	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level:     logLevel,
		AddSource: logLevel == slog.LevelDebug,
	}

	var handler slog.Handler
	switch strings.ToLower(format) {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler).With(
		"service", service,
		"version", Version,
		"pid", os.Getpid(),
	)
}
