// Package log builds the JSON loggers showrunner emits and the typed
// attributes its subsystems share.
package log

import (
	"io"
	"log/slog"
	"os"
)

// Config controls logger construction. A zero Writer means stdout
type Config struct {
	Service string
	Env     string
	Version string
	Level   slog.Level
	Writer  io.Writer
}

// New constructs a JSON slog.Logger preconfigured at info level
func New(service, env, version string) *slog.Logger {
	return NewWithLevel(service, env, version, slog.LevelInfo)
}

// NewWithLevel constructs a JSON slog.Logger at the provided level
func NewWithLevel(service, env, version string, lvl slog.Level) *slog.Logger {
	return NewWithConfig(&Config{
		Service: service,
		Env:     env,
		Version: version,
		Level:   lvl,
	})
}

// NewWithConfig constructs a JSON slog.Logger from cfg. Every record
// carries the service, env, and version attributes
func NewWithConfig(cfg *Config) *slog.Logger {
	w := cfg.Writer
	if w == nil {
		w = os.Stdout
	}
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: cfg.Level,
	})

	return slog.New(handler).With(
		slog.String("service", cfg.Service),
		slog.String("env", cfg.Env),
		slog.String("version", cfg.Version))
}
