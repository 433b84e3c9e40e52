// Package middleware carries request-scoped auth state between the session
// registry and the route handlers.
package middleware

import (
	"net/http"

	"github.com/Sonu113077/rider-earnings-navigator/internal/platform/routeguard"
	"github.com/Sonu113077/rider-earnings-navigator/internal/server/session"
)

// WithSession resolves the session cookie into a registry entry and puts the
// entry plus its current principal on the request context. Requests without a
// cookie pass through untouched.
func WithSession(reg *session.Registry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := session.TokenFromRequest(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}
			e := reg.Lookup(r.Context(), token)
			ctx := WithEntry(r.Context(), e)
			if p := e.Controller.Principal(); p != nil {
				ctx = WithPrincipal(ctx, p)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GuardSession adapts the context entry to the route guard's session view.
// Requests with no entry read as signed out.
func GuardSession(r *http.Request) routeguard.Session {
	e, ok := EntryFromContext(r.Context())
	if !ok {
		return nil
	}
	return e.Controller
}
