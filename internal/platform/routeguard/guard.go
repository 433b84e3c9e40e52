// Package routeguard decides whether a route renders for the current
// Principal. The decision is pure; the middleware maps it onto HTTP.
package routeguard

import (
	"net/http"

	"github.com/Sonu113077/rider-earnings-navigator/internal/principal"
)

// Decision is the outcome of evaluating a protected route.
type Decision int

const (
	// DecisionPending renders a neutral waiting state; the session is still resolving.
	DecisionPending Decision = iota
	// DecisionAllow renders the protected content.
	DecisionAllow
	// DecisionLogin redirects to the login surface.
	DecisionLogin
	// DecisionUnauthorized redirects to the not-authorized surface.
	DecisionUnauthorized
)

func (d Decision) String() string {
	switch d {
	case DecisionPending:
		return "pending"
	case DecisionAllow:
		return "allow"
	case DecisionLogin:
		return "login"
	case DecisionUnauthorized:
		return "unauthorized"
	default:
		return "unknown"
	}
}

// Decide evaluates route access for the given Principal. It holds no state
// beyond its inputs and is re-evaluated on every navigation and principal
// change.
func Decide(p *principal.Principal, requiresAdmin, loading bool) Decision {
	if loading {
		return DecisionPending
	}
	if p == nil {
		return DecisionLogin
	}
	if requiresAdmin && !p.IsAdmin() {
		return DecisionUnauthorized
	}
	return DecisionAllow
}

// Session is the per-request view of the auth state the middleware needs.
type Session interface {
	Principal() *principal.Principal
	IsLoading() bool
}

// SessionFunc resolves the auth session for a request. Public routes never
// pass through the guard, so a nil session simply means "not signed in".
type SessionFunc func(r *http.Request) Session

// Redirects holds the guard's redirect targets.
type Redirects struct {
	Login        string
	Unauthorized string
}

// Middleware returns a chi-compatible middleware enforcing the guard decision
// for every request. requiresAdmin applies to the whole subtree it wraps.
func Middleware(sessions SessionFunc, requiresAdmin bool, redirects Redirects) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var (
				p       *principal.Principal
				loading bool
			)
			if s := sessions(r); s != nil {
				p = s.Principal()
				loading = s.IsLoading()
			}
			switch Decide(p, requiresAdmin, loading) {
			case DecisionPending:
				// Neutral pending state: ask the client to retry shortly.
				w.Header().Set("Retry-After", "1")
				w.WriteHeader(http.StatusServiceUnavailable)
			case DecisionLogin:
				http.Redirect(w, r, redirects.Login, http.StatusSeeOther)
			case DecisionUnauthorized:
				http.Redirect(w, r, redirects.Unauthorized, http.StatusSeeOther)
			case DecisionAllow:
				next.ServeHTTP(w, r)
			}
		})
	}
}
