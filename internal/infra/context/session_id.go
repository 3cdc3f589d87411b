package context

import (
	"context"
)

type contextKey string

const contextKeySessionID = contextKey("sessionID")

// SessionIDFromContext extracts the session ID from the context.
// Returns the session ID and true if present, or empty string and false if not present.
func SessionIDFromContext(ctx context.Context) (string, bool) {
	sessionID, ok := ctx.Value(contextKeySessionID).(string)

	return sessionID, ok
}

// WithSessionID creates a new context with the given session ID value.
// The session ID identifies one authenticated desktop session in log output.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, contextKeySessionID, sessionID)
}
