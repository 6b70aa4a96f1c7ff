package infrastructure

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const (
	// TraceIDContextKey is the key for storing trace ID in context
	TraceIDContextKey contextKey = "trace_id"
	// SessionIDContextKey is the key for the billing session a request acts on
	SessionIDContextKey contextKey = "session_id"
)

// WithTraceID adds a trace ID to the context
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDContextKey, traceID)
}

// GetTraceID retrieves the trace ID from context
func GetTraceID(ctx context.Context) string {
	return stringValue(ctx, TraceIDContextKey)
}

// EnsureTraceID ensures the context has a trace ID, generating a UUID v4 if
// needed. Batch runs use it so their log lines correlate like a request's.
func EnsureTraceID(ctx context.Context) context.Context {
	if GetTraceID(ctx) == "" {
		return WithTraceID(ctx, uuid.New().String())
	}
	return ctx
}

// WithSessionID tags ctx with a billing session id. Log records written
// with ctx carry it as session_id.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, SessionIDContextKey, sessionID)
}

// GetSessionID retrieves the session ID from context
func GetSessionID(ctx context.Context) string {
	return stringValue(ctx, SessionIDContextKey)
}

func stringValue(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(key).(string)
	return v
}
