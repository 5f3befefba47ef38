package logger

import (
	"context"

	"go.uber.org/zap"
)

type contextKey struct{}

// toContext stores the logger in the context.
func toContext(ctx context.Context, l *zap.SugaredLogger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// fromContext returns the logger stored in the context or the global one.
func fromContext(ctx context.Context) *zap.SugaredLogger {
	if ctx == nil {
		return global
	}

	if l, ok := ctx.Value(contextKey{}).(*zap.SugaredLogger); ok && l != nil {
		return l
	}

	return global
}

// WithName returns a context whose logger has the given name appended.
func WithName(ctx context.Context, name string) context.Context {
	return toContext(ctx, fromContext(ctx).Named(name))
}

// WithKV returns a context whose logger carries the given key-value pair.
func WithKV(ctx context.Context, key string, value any) context.Context {
	return toContext(ctx, fromContext(ctx).With(key, value))
}

// WithFields returns a context whose logger carries all given key-value pairs.
func WithFields(ctx context.Context, kvs ...any) context.Context {
	return toContext(ctx, fromContext(ctx).With(kvs...))
}
