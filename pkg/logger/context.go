package logger

import "context"

type contextKey struct{}

// IntoContext stores a request-scoped logger.
func IntoContext(ctx context.Context, log Logger) context.Context {
	if log == nil {
		return ctx
	}
	return context.WithValue(ctx, contextKey{}, log)
}

// FromContext returns the request-scoped logger, or fallback when the context
// has none. A nil fallback yields the no-op logger.
func FromContext(ctx context.Context, fallback Logger) Logger {
	if ctx != nil {
		if log, ok := ctx.Value(contextKey{}).(Logger); ok {
			return log
		}
	}
	if fallback == nil {
		return nop
	}
	return fallback
}
