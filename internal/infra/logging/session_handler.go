package logging

import (
	"context"
	"log/slog"

	context_ "github.com/xlan/socialdesk/internal/infra/context"
)

// SessionHandler wraps another slog.Handler to add the active session ID and
// username from the context to all log records.
type SessionHandler struct {
	h slog.Handler
}

var _ slog.Handler = (*SessionHandler)(nil)

// NewSessionHandler creates a new SessionHandler wrapping the given handler.
func NewSessionHandler(h slog.Handler) *SessionHandler {
	return &SessionHandler{h: h}
}

// Handle implements slog.Handler by adding session information if available
// in the context before delegating to the wrapped handler.
func (h *SessionHandler) Handle(ctx context.Context, r slog.Record) error {
	var attrs []slog.Attr

	if sessionID, ok := context_.SessionIDFromContext(ctx); ok {
		attrs = append(attrs, slog.String("id", sessionID))
	}

	if username, ok := context_.UsernameFromContext(ctx); ok {
		attrs = append(attrs, slog.String("username", username))
	}

	if len(attrs) > 0 {
		r.AddAttrs(slog.Attr{Key: "session", Value: slog.GroupValue(attrs...)})
	}

	//nolint:wrapcheck
	return h.h.Handle(ctx, r)
}

// WithAttrs implements slog.Handler.WithAttrs.
func (h *SessionHandler) WithAttrs(attrs []slog.Attr) Handler {
	return NewSessionHandler(h.h.WithAttrs(attrs))
}

// WithGroup implements slog.Handler.WithGroup.
func (h *SessionHandler) WithGroup(name string) Handler {
	return NewSessionHandler(h.h.WithGroup(name))
}

// Enabled implements slog.Handler.Enabled.
func (h *SessionHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.h.Enabled(ctx, level)
}
