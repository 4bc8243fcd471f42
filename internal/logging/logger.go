package logging

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"digitprep/internal/config"
)

// LogFileName is the log written inside the configured log directory.
const LogFileName = "digitprep.log"

// Options describes logger construction parameters.
type Options struct {
	Level  string
	Format string
	// Writer receives every line. Nil means stderr.
	Writer io.Writer
}

// New constructs a slog logger using the provided options. Debug level also
// records the caller of each line.
func New(opts Options) (*slog.Logger, error) {
	level := parseLevel(opts.Level)
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}
	addSource := level <= slog.LevelDebug

	switch strings.ToLower(strings.TrimSpace(opts.Format)) {
	case "", "console":
		return slog.New(newConsoleHandler(w, level, addSource)), nil
	case "json":
		return slog.New(newJSONHandler(w, level, addSource)), nil
	default:
		return nil, fmt.Errorf("log format: unsupported value %q", opts.Format)
	}
}

// NewFromConfig creates a logger writing to stderr and, when a log directory
// is configured, appending to LogFileName inside it. The returned close
// function releases the log file.
func NewFromConfig(cfg *config.Config) (*slog.Logger, func() error, error) {
	noClose := func() error { return nil }
	if cfg == nil {
		logger, err := New(Options{})
		return logger, noClose, err
	}

	var w io.Writer = os.Stderr
	closeFn := noClose
	if cfg.Paths.LogDir != "" {
		if err := os.MkdirAll(cfg.Paths.LogDir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("ensure log directory: %w", err)
		}
		path := filepath.Join(cfg.Paths.LogDir, LogFileName)
		file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file %s: %w", path, err)
		}
		w = io.MultiWriter(os.Stderr, file)
		closeFn = file.Close
	}

	logger, err := New(Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format, Writer: w})
	if err != nil {
		return nil, nil, errors.Join(err, closeFn())
	}
	return logger, closeFn, nil
}

func parseLevel(level string) slog.Level {
	var parsed slog.Level
	if err := parsed.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		return slog.LevelInfo
	}
	return parsed
}

func newJSONHandler(w io.Writer, level slog.Leveler, addSource bool) slog.Handler {
	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:     level,
		AddSource: addSource,
		ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
			if len(groups) > 0 {
				return attr
			}
			switch attr.Key {
			case slog.TimeKey:
				attr.Key = "ts"
				if attr.Value.Kind() == slog.KindTime {
					attr.Value = slog.StringValue(attr.Value.Time().UTC().Format(time.RFC3339))
				}
			case slog.LevelKey:
				attr.Value = slog.StringValue(strings.ToLower(attr.Value.String()))
			case slog.SourceKey:
				if src, ok := attr.Value.Any().(*slog.Source); ok && src != nil {
					attr.Value = slog.StringValue(fmt.Sprintf("%s:%d", filepath.Base(src.File), src.Line))
				}
			}
			return attr
		},
	})
}
