package middleware

import (
	"context"

	"github.com/Sonu113077/rider-earnings-navigator/internal/principal"
	"github.com/Sonu113077/rider-earnings-navigator/internal/server/session"
)

type contextKey struct{ name string }

var (
	entryKey     = contextKey{"session_entry"}
	principalKey = contextKey{"principal"}
)

// WithEntry returns a context carrying the request's session entry.
func WithEntry(ctx context.Context, e *session.Entry) context.Context {
	return context.WithValue(ctx, entryKey, e)
}

// EntryFromContext returns the session entry and true if set; otherwise nil, false.
func EntryFromContext(ctx context.Context) (*session.Entry, bool) {
	e, ok := ctx.Value(entryKey).(*session.Entry)
	return e, ok
}

// WithPrincipal returns a context carrying the resolved principal.
func WithPrincipal(ctx context.Context, p *principal.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromContext returns the principal and true if set; otherwise nil, false.
func PrincipalFromContext(ctx context.Context) (*principal.Principal, bool) {
	p, ok := ctx.Value(principalKey).(*principal.Principal)
	return p, ok
}
