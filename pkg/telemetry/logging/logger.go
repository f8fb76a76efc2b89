// Package logging builds the structured slog logger every ganymede component
// logs through. Level and format come from the logging configuration; the
// level handle is kept so the supervisor's logging-filter order can change it
// at runtime.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"mercator-hq/ganymede/pkg/config"
)

// Logger wraps the configured slog.Logger together with its dynamic level.
type Logger struct {
	*slog.Logger
	level *slog.LevelVar
}

// New creates a logger from cfg, writing to w (os.Stderr when nil).
func New(cfg config.LoggingConfig, w io.Writer) (*Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	if w == nil {
		w = os.Stderr
	}

	levelVar := new(slog.LevelVar)
	levelVar.Set(level)
	opts := &slog.HandlerOptions{Level: levelVar}

	var handler slog.Handler
	switch cfg.Format {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	case "text", "":
		handler = slog.NewTextHandler(w, opts)
	default:
		return nil, fmt.Errorf("unknown log format: %s", cfg.Format)
	}

	return &Logger{Logger: slog.New(handler), level: levelVar}, nil
}

// SetFilter changes the minimum level at runtime; this is what the
// LoggingFilter command ends up calling.
func (l *Logger) SetFilter(filter string) error {
	level, err := ParseLevel(filter)
	if err != nil {
		return err
	}
	l.level.Set(level)
	return nil
}

// ParseLevel parses a log level string into slog.Level.
func ParseLevel(levelStr string) (slog.Level, error) {
	switch levelStr {
	case "debug", "DEBUG":
		return slog.LevelDebug, nil
	case "info", "INFO", "":
		return slog.LevelInfo, nil
	case "warn", "WARN", "warning", "WARNING":
		return slog.LevelWarn, nil
	case "error", "ERROR":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level: %s", levelStr)
	}
}
