// Package auth carries the authenticated caller identity through a request.
// Ordinary operations are authorized only against the caller's own ID;
// moderation operations additionally require the elevated flag, which must
// fail closed when the role cannot be confirmed.
package auth

import (
	"context"
)

// Caller is the authenticated identity attached to every operation
type Caller struct {
	UserID   int64
	Elevated bool
}

type contextKey struct{}

// WithCaller returns a context carrying the caller identity
func WithCaller(ctx context.Context, caller Caller) context.Context {
	return context.WithValue(ctx, contextKey{}, caller)
}

// FromContext extracts the caller identity from the context.
// ok is false when no identity was attached.
func FromContext(ctx context.Context) (Caller, bool) {
	caller, ok := ctx.Value(contextKey{}).(Caller)
	return caller, ok
}
