package xlog

import (
	"context"
	"fmt"
	"log/slog"
)

// New creates a Logger from the config.
func New(c Config) *Logger {
	h := c.BuildHandler()
	if h == nil {
		panic("nil Handler")
	}
	return &Logger{inner: slog.New(h)}
}

// Logger is a thin wrapper around slog.Logger adding formatted variants.
type Logger struct {
	inner *slog.Logger
}

// With returns a Logger whose records include the given attributes.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{inner: l.inner.With(args...)}
}

// Handler returns the underlying slog.Handler.
func (l *Logger) Handler() slog.Handler { return l.inner.Handler() }

// Debug logs at LevelDebug.
func (l *Logger) Debug(msg string, args ...any) { l.inner.Debug(msg, args...) }

// Debugf logs a formatted message at LevelDebug.
func (l *Logger) Debugf(format string, args ...any) { l.inner.Debug(fmt.Sprintf(format, args...)) }

// Info logs at LevelInfo.
func (l *Logger) Info(msg string, args ...any) { l.inner.Info(msg, args...) }

// Infof logs a formatted message at LevelInfo.
func (l *Logger) Infof(format string, args ...any) { l.inner.Info(fmt.Sprintf(format, args...)) }

// Warn logs at LevelWarn.
func (l *Logger) Warn(msg string, args ...any) { l.inner.Warn(msg, args...) }

// Warnf logs a formatted message at LevelWarn.
func (l *Logger) Warnf(format string, args ...any) { l.inner.Warn(fmt.Sprintf(format, args...)) }

// Error logs at LevelError.
func (l *Logger) Error(msg string, args ...any) { l.inner.Error(msg, args...) }

// Errorf logs a formatted message at LevelError.
func (l *Logger) Errorf(format string, args ...any) { l.inner.Error(fmt.Sprintf(format, args...)) }

// Log emits a record at the given level.
func (l *Logger) Log(ctx context.Context, level slog.Level, msg string, args ...any) {
	l.inner.Log(ctx, level, msg, args...)
}
