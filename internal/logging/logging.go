// Package logging configures structured logging over log/slog.
//
// Configuration comes from environment variables:
//   - UNDERSTORY_LOG_LEVEL: debug, info, warn, error (default: info)
//   - UNDERSTORY_LOG_FORMAT: text, json (default: text)
//
// All output goes to stderr so stdout stays clean for rendered bundles.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config holds logger configuration.
type Config struct {
	Level  slog.Level
	Format string // "text" or "json"
	Output io.Writer
}

// DefaultConfig returns the defaults: info level, text format, stderr.
func DefaultConfig() Config {
	return Config{Level: slog.LevelInfo, Format: "text", Output: os.Stderr}
}

// FromEnv reads overrides from UNDERSTORY_LOG_LEVEL and UNDERSTORY_LOG_FORMAT.
func FromEnv() Config {
	cfg := DefaultConfig()
	switch strings.ToLower(os.Getenv("UNDERSTORY_LOG_LEVEL")) {
	case "debug":
		cfg.Level = slog.LevelDebug
	case "info":
		cfg.Level = slog.LevelInfo
	case "warn", "warning":
		cfg.Level = slog.LevelWarn
	case "error":
		cfg.Level = slog.LevelError
	}
	if f := strings.ToLower(os.Getenv("UNDERSTORY_LOG_FORMAT")); f == "json" || f == "text" {
		cfg.Format = f
	}
	return cfg
}

// New builds a *slog.Logger from cfg, tagged with the component name.
func New(component string, cfg Config) *slog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: cfg.Level}
	var h slog.Handler
	if cfg.Format == "json" {
		h = slog.NewJSONHandler(out, opts)
	} else {
		h = slog.NewTextHandler(out, opts)
	}
	return slog.New(h).With("component", component)
}

// Default returns a logger for component using environment configuration.
func Default(component string) *slog.Logger {
	return New(component, FromEnv())
}
