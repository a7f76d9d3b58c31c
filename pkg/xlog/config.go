package xlog

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// NewConfig returns the default logging configuration.
func NewConfig() Config {
	return Config{
		Level:     slog.LevelInfo,
		AddSource: true,
		Format:    "text",
		Writer:    os.Stderr,
		MaxSize:   30,
	}
}

// Config controls the handlers built for a Logger.
type Config struct {
	// Level is the minimum level emitted.
	Level slog.Level
	// AddSource adds the logging call site to each record.
	AddSource bool
	// Format selects the stream output format, one of "text" or "json".
	Format string
	// Writer is the stream output destination, os.Stderr when nil.
	Writer io.Writer

	// Path enables JSON file output through lumberjack when non-empty.
	Path string
	// MaxSize is the maximum size of a log file in MB before rotation.
	MaxSize int
	// MaxAge is the maximum number of days to retain rotated files.
	MaxAge int
	// MaxBackups is the maximum number of rotated files to retain.
	MaxBackups int
	// Compress gzips rotated files.
	Compress bool
}

// BuildHandler creates a slog.Handler from the config.
func (c Config) BuildHandler() slog.Handler {
	w := c.Writer
	if w == nil {
		w = os.Stderr
	}
	opts := &slog.HandlerOptions{
		Level:     c.Level,
		AddSource: c.AddSource,
		ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
			if attr.Key == slog.SourceKey {
				if source, ok := attr.Value.Any().(*slog.Source); ok {
					source.File = filepath.Base(source.File)
				}
			}
			return attr
		},
	}

	var stream slog.Handler
	if c.Format == "json" {
		stream = slog.NewJSONHandler(w, opts)
	} else {
		stream = slog.NewTextHandler(w, opts)
	}
	if c.Path == "" {
		return stream
	}
	file := slog.NewJSONHandler(&lumberjack.Logger{
		Filename:   c.Path,
		MaxSize:    c.MaxSize,
		MaxAge:     c.MaxAge,
		MaxBackups: c.MaxBackups,
		Compress:   c.Compress,
	}, opts)
	return multiHandler{stream, file}
}

// multiHandler fans records out to every wrapped handler.
type multiHandler []slog.Handler

func (m multiHandler) Enabled(ctx context.Context, lvl slog.Level) bool {
	for _, h := range m {
		if h.Enabled(ctx, lvl) {
			return true
		}
	}
	return false
}

func (m multiHandler) Handle(ctx context.Context, r slog.Record) error {
	var firstErr error
	for _, h := range m {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (m multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make(multiHandler, len(m))
	for i, h := range m {
		next[i] = h.WithAttrs(attrs)
	}
	return next
}

func (m multiHandler) WithGroup(name string) slog.Handler {
	next := make(multiHandler, len(m))
	for i, h := range m {
		next[i] = h.WithGroup(name)
	}
	return next
}
