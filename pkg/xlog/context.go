package xlog

import (
	"context"
)

// C is a short alias of FromContext.
var C = FromContext

type contextKey struct{}

// FromContext returns the Logger carried by ctx, or the default Logger when
// none is present.
func FromContext(ctx context.Context) *Logger {
	if ctx == nil {
		ctx = context.Background()
	}
	logger, ok := ctx.Value(contextKey{}).(*Logger)
	if !ok {
		logger = Default()
	}
	return logger
}

// WithContext derives a context carrying the current logger extended with
// the given attributes.
func WithContext(ctx context.Context, args ...any) context.Context {
	logger := FromContext(ctx)
	return context.WithValue(ctx, contextKey{}, logger.With(args...))
}
