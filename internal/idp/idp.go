// Package idp defines the identity-provider contract the auth core depends on.
//
// The provider owns credential verification and the raw session; the app only
// reads a few fields off it and reacts to its auth-state events. Implementations
// live elsewhere (internal/idp/local is the built-in one).
package idp

import (
	"context"
	"errors"
)

// Sentinel errors implementations map their failures to. The auth controller
// relays these as user-facing failures without inspecting provider internals.
var (
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrEmailAlreadyRegistered = errors.New("email already registered")
	ErrUnknownProvider        = errors.New("unknown oauth provider")
	ErrNoSession              = errors.New("no active session")
)

// RawIdentity is the provider's own view of an authenticated user. Opaque to
// the app beyond these read fields; the resolved Principal is derived from it.
type RawIdentity struct {
	ID    string
	Email string
	Phone string
	// Metadata carries provider-supplied attributes such as "full_name".
	// May be nil.
	Metadata map[string]string
}

// EventKind is the kind of an auth-state change event.
type EventKind string

const (
	// SignedIn is delivered once per actual sign-in transition, carrying the identity.
	SignedIn EventKind = "SIGNED_IN"
	// SignedOut is delivered once per actual sign-out transition.
	SignedOut EventKind = "SIGNED_OUT"
)

// Event is an auth-state change notification. Identity is set for SignedIn
// and nil for SignedOut.
type Event struct {
	Kind     EventKind
	Identity *RawIdentity
}

// UserAttributes carries updatable provider-side user fields. Zero-value
// fields are left unchanged.
type UserAttributes struct {
	Password string
	FullName string
	Phone    string
}

// Client is the per-user-agent handle onto the identity provider. One client
// tracks one logical browsing session; at most one identity is signed in on a
// client at a time.
//
// Event delivery contract: at most one SignedIn/SignedOut event per actual
// state change, with no ordering guarantee relative to a concurrent
// GetSession call. Consumers must reconcile both paths (see internal/auth).
type Client interface {
	// SignInWithPassword verifies credentials with the provider and starts a
	// session. remember extends how long the provider persists the session;
	// it has no effect on who the identity resolves to.
	SignInWithPassword(ctx context.Context, email, password string, remember bool) (*RawIdentity, error)

	// SignInWithOAuth begins a redirect-based federated flow. It returns the
	// authorize URL to redirect the user agent to; the resulting session
	// arrives later through a SignedIn event, not from this call.
	SignInWithOAuth(ctx context.Context, provider, redirectTo string) (string, error)

	// SignOut ends the provider session. The provider emits SignedOut even
	// when remote revocation fails, so local state is always released.
	SignOut(ctx context.Context) error

	// GetSession returns the currently signed-in identity, or (nil, nil)
	// when there is none. May perform I/O to revalidate a persisted session.
	GetSession(ctx context.Context) (*RawIdentity, error)

	// OnAuthStateChange registers a callback for auth-state events and
	// returns an unsubscribe function. Unsubscribe is idempotent.
	OnAuthStateChange(fn func(Event)) (unsubscribe func())

	// UpdateUser updates provider-side attributes (e.g. password) for the
	// signed-in user.
	UpdateUser(ctx context.Context, attrs UserAttributes) error
}
