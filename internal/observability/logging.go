// Package observability carries the logging and metrics plumbing shared by
// the request pipeline.
package observability

import (
	"context"
	"log/slog"
)

// LogContext holds structured logging context for one request.
type LogContext struct {
	RequestID string
	Locale    string
	Slug      string
	User      string
}

type logContextKeyType string

const logContextKey logContextKeyType = "log-context"

// WithRequestID adds a request ID to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	lc := extractLogContext(ctx)
	lc.RequestID = requestID
	return context.WithValue(ctx, logContextKey, lc)
}

// WithDocument adds the requested locale and slug to the context.
func WithDocument(ctx context.Context, locale, slug string) context.Context {
	lc := extractLogContext(ctx)
	lc.Locale = locale
	lc.Slug = slug
	return context.WithValue(ctx, logContextKey, lc)
}

// WithUser adds the authenticated username to the context.
func WithUser(ctx context.Context, user string) context.Context {
	lc := extractLogContext(ctx)
	lc.User = user
	return context.WithValue(ctx, logContextKey, lc)
}

func extractLogContext(ctx context.Context) LogContext {
	if lc, ok := ctx.Value(logContextKey).(LogContext); ok {
		return lc
	}
	return LogContext{}
}

func getLogAttrs(ctx context.Context) []slog.Attr {
	lc := extractLogContext(ctx)
	attrs := []slog.Attr{}

	if lc.RequestID != "" {
		attrs = append(attrs, slog.String("request.id", lc.RequestID))
	}
	if lc.Locale != "" {
		attrs = append(attrs, slog.String("doc.locale", lc.Locale))
	}
	if lc.Slug != "" {
		attrs = append(attrs, slog.String("doc.slug", lc.Slug))
	}
	if lc.User != "" {
		attrs = append(attrs, slog.String("user", lc.User))
	}
	return attrs
}

// InfoContext logs an info message with context information.
func InfoContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	slog.LogAttrs(ctx, slog.LevelInfo, msg, append(getLogAttrs(ctx), attrs...)...)
}

// WarnContext logs a warning message with context information.
func WarnContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	slog.LogAttrs(ctx, slog.LevelWarn, msg, append(getLogAttrs(ctx), attrs...)...)
}

// ErrorContext logs an error message with context information.
func ErrorContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	slog.LogAttrs(ctx, slog.LevelError, msg, append(getLogAttrs(ctx), attrs...)...)
}

// DebugContext logs a debug message with context information.
func DebugContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	slog.LogAttrs(ctx, slog.LevelDebug, msg, append(getLogAttrs(ctx), attrs...)...)
}
