package shared

import (
	"context"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// ContextKey is the key type for request context values.
type ContextKey string

// Context keys for various values
const (
	// UserIDContextKey is the context key for the authenticated user's ID
	UserIDContextKey ContextKey = "userID"

	// TokenContextKey is the context key for the bearer token of the request
	TokenContextKey ContextKey = "token"

	// TraceIDKey is the key for the trace ID in the request context
	TraceIDKey ContextKey = "traceID"
)

// SetTraceID adds a new trace ID to the context.
// Trace IDs are ULIDs, so they sort by creation time in the logs.
func SetTraceID(ctx context.Context) context.Context {
	return context.WithValue(ctx, TraceIDKey, ulid.Make().String())
}

// GetTraceID retrieves the trace ID from the context.
// If no trace ID exists, it returns an empty string.
func GetTraceID(ctx context.Context) string {
	traceID, ok := ctx.Value(TraceIDKey).(string)
	if !ok {
		return ""
	}
	return traceID
}

// WithAuth stores the authenticated user's ID and token in the context.
func WithAuth(ctx context.Context, userID uuid.UUID, token string) context.Context {
	ctx = context.WithValue(ctx, UserIDContextKey, userID)
	return context.WithValue(ctx, TokenContextKey, token)
}

// UserIDFromContext returns the authenticated user's ID, or false when the
// request was not authenticated.
func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(UserIDContextKey).(uuid.UUID)
	if !ok || userID == uuid.Nil {
		return uuid.Nil, false
	}
	return userID, true
}

// TokenFromContext returns the bearer token the request authenticated with.
func TokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(TokenContextKey).(string)
	return token, ok && token != ""
}
