// Package logger builds module-scoped structured loggers on log/slog.
//
// Components receive a *slog.Logger and never create their own handler:
//
//	root, err := logger.New(os.Stderr, logger.Config{Level: "info", Format: "text"})
//	recLog := logger.Module(root, "recorder")
//	recLog.Info("recording started", slog.String("session", name))
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

const (
	FormatText = "text"
	FormatJSON = "json"
)

// Config selects the minimum level and the output format.
type Config struct {
	Level  string // debug, info, warn or error
	Format string // text or json
}

func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", level)
}

func New(w io.Writer, cfg Config) (*slog.Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}

	switch strings.ToLower(cfg.Format) {
	case "", FormatText:
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case FormatJSON:
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return nil, fmt.Errorf("unknown log format %q", cfg.Format)
}

// Module tags every record of the returned logger with module=name.
func Module(l *slog.Logger, name string) *slog.Logger {
	if l == nil {
		return Discard()
	}
	return l.With(slog.String("module", name))
}

func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
