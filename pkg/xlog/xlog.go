// Package xlog extends log/slog with context propagation and formatted
// logging helpers.
package xlog

import (
	"sync/atomic"
)

var defaultLogger atomic.Value

func init() {
	defaultLogger.Store(New(NewConfig()))
}

// Default returns the default Logger.
func Default() *Logger { return defaultLogger.Load().(*Logger) }

// SetDefault makes l the default Logger.
func SetDefault(l *Logger) {
	defaultLogger.Store(l)
}

// Debug calls Logger.Debug on the default logger.
func Debug(msg string, args ...any) { Default().Debug(msg, args...) }

// Debugf calls Logger.Debugf on the default logger.
func Debugf(format string, args ...any) { Default().Debugf(format, args...) }

// Info calls Logger.Info on the default logger.
func Info(msg string, args ...any) { Default().Info(msg, args...) }

// Infof calls Logger.Infof on the default logger.
func Infof(format string, args ...any) { Default().Infof(format, args...) }

// Warn calls Logger.Warn on the default logger.
func Warn(msg string, args ...any) { Default().Warn(msg, args...) }

// Warnf calls Logger.Warnf on the default logger.
func Warnf(format string, args ...any) { Default().Warnf(format, args...) }

// Error calls Logger.Error on the default logger.
func Error(msg string, args ...any) { Default().Error(msg, args...) }

// Errorf calls Logger.Errorf on the default logger.
func Errorf(format string, args ...any) { Default().Errorf(format, args...) }
