// Package requestid carries correlation identifiers through a context.
package requestid

import "context"

type (
	requestKey struct{}
	sessionKey struct{}
)

// NewContext returns a context that carries the given request ID.
func NewContext(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestKey{}, id)
}

// FromContext returns the request ID stored in ctx, or an empty string.
func FromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestKey{}).(string)
	return id
}

// WithSession returns a context that carries the workbench session ID.
func WithSession(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionKey{}, id)
}

// SessionFromContext returns the session ID stored in ctx, or an empty string.
func SessionFromContext(ctx context.Context) string {
	id, _ := ctx.Value(sessionKey{}).(string)
	return id
}

// Attrs returns the identifiers in ctx as slog key/value pairs, omitting
// empty ones.
func Attrs(ctx context.Context) []any {
	var attrs []any
	if id := FromContext(ctx); id != "" {
		attrs = append(attrs, "request_id", id)
	}
	if id := SessionFromContext(ctx); id != "" {
		attrs = append(attrs, "session_id", id)
	}
	return attrs
}
