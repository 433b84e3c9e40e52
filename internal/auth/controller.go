// Package auth owns the resolved Principal for one user agent and drives
// sign-in, sign-out, and session-event handling against the identity provider.
package auth

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/Sonu113077/rider-earnings-navigator/internal/idp"
	"github.com/Sonu113077/rider-earnings-navigator/internal/principal"
)

// Sentinel errors for controller operations; the HTTP layer maps them to
// user-facing failures.
var (
	ErrAccountBlocked = errors.New("account is blocked")
	ErrAccountPending = errors.New("account is pending approval")
)

// Navigation targets used after login and logout.
const (
	PathDashboard    = "/dashboard"
	PathLogin        = "/login"
	PathUnauthorized = "/unauthorized"
)

// Resolver maps a raw identity to a Principal. Never fails; nil in, nil out.
type Resolver interface {
	Resolve(ctx context.Context, raw *idp.RawIdentity) *principal.Principal
}

// Navigator receives post-operation navigation requests (e.g. a redirect to
// the dashboard after login).
type Navigator interface {
	Navigate(path string)
}

// Notifier receives user-visible transient notices. userID may be empty for
// failures that happen before an identity is established.
type Notifier interface {
	Success(ctx context.Context, userID, message string)
	Error(ctx context.Context, userID, message string)
}

// Controller owns the current Principal for one user agent. The Principal is
// replaced wholesale on every change; concurrent resolutions are serialized
// through a monotonically increasing attempt counter so the most recently
// started resolution wins regardless of completion order.
type Controller struct {
	client   idp.Client
	resolver Resolver
	nav      Navigator
	notifier Notifier
	logger   *slog.Logger

	mu        sync.Mutex
	current   *principal.Principal
	loading   bool
	attempt   uint64 // last attempt started
	applied   uint64 // attempt whose result is currently applied
	watchers  map[int]func(*principal.Principal)
	watcherID int

	subOnce sync.Once
	unsub   func()
}

// NewController returns a Controller over the given identity-provider client.
// The controller starts in the loading state until Initialize completes.
func NewController(client idp.Client, resolver Resolver, nav Navigator, notifier Notifier, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		client:   client,
		resolver: resolver,
		nav:      nav,
		notifier: notifier,
		logger:   logger,
		loading:  true,
		watchers: map[int]func(*principal.Principal){},
	}
}

// Initialize checks the provider for an already-persisted session and, if one
// exists, resolves and applies the Principal. The loading flag is cleared
// when initialization finishes regardless of outcome. Safe to call alongside
// an in-flight auth event; both paths converge on the same Principal.
func (c *Controller) Initialize(ctx context.Context) {
	attempt := c.beginAttempt()
	raw, err := c.client.GetSession(ctx)
	if err != nil {
		c.logger.Warn("session lookup failed during initialize", "err", err)
		raw = nil
	}
	c.apply(attempt, c.resolver.Resolve(ctx, raw))
	c.setLoading(false)
}

// SubscribeToSessionChanges registers with the provider's auth-state stream.
// The subscription is established exactly once for the controller's lifetime;
// further calls are no-ops. Close releases it.
func (c *Controller) SubscribeToSessionChanges() {
	c.subOnce.Do(func() {
		c.unsub = c.client.OnAuthStateChange(func(ev idp.Event) {
			switch ev.Kind {
			case idp.SignedIn:
				attempt := c.beginAttempt()
				p := c.resolver.Resolve(context.Background(), ev.Identity)
				if c.apply(attempt, p) {
					c.nav.Navigate(PathDashboard)
				}
			case idp.SignedOut:
				attempt := c.beginAttempt()
				if c.apply(attempt, nil) {
					c.nav.Navigate(PathLogin)
				}
			}
		})
	})
}

// Close tears down the session-change subscription. Idempotent.
func (c *Controller) Close() {
	c.mu.Lock()
	unsub := c.unsub
	c.unsub = nil
	c.mu.Unlock()
	if unsub != nil {
		unsub()
	}
}

// Login verifies credentials through the provider and applies the resolved
// Principal. On provider failure the Principal is left unchanged and the
// provider's message is surfaced as a user-facing failure. Blocked and
// unapproved accounts are rejected after resolution and the provider session
// is ended again.
func (c *Controller) Login(ctx context.Context, email, password string, remember bool) error {
	attempt := c.beginAttempt()
	raw, err := c.client.SignInWithPassword(ctx, email, password, remember)
	if err != nil {
		c.notifier.Error(ctx, "", "Invalid credentials")
		return err
	}

	p := c.resolver.Resolve(ctx, raw)
	if p.IsBlocked {
		c.rejectSignIn(ctx, attempt)
		c.notifier.Error(ctx, "", "Your account has been blocked. Please contact admin.")
		return ErrAccountBlocked
	}
	if !p.IsApproved {
		c.rejectSignIn(ctx, attempt)
		c.notifier.Error(ctx, "", "Your account is pending approval.")
		return ErrAccountPending
	}

	// The provider may already have delivered the SignedIn event for this
	// sign-in; apply converges both paths, and the user-visible effects
	// happen either way.
	c.apply(attempt, p)
	c.notifier.Success(ctx, p.ID, "Welcome back, "+p.FullName+"!")
	c.nav.Navigate(PathDashboard)
	return nil
}

// LoginWithProvider starts a redirect-based federated flow and returns the
// authorize URL. The Principal for the resulting session arrives later via
// the SignedIn event, not from this call.
func (c *Controller) LoginWithProvider(ctx context.Context, provider string) (string, error) {
	url, err := c.client.SignInWithOAuth(ctx, provider, PathDashboard)
	if err != nil {
		c.notifier.Error(ctx, "", "Could not start sign-in with "+provider)
		return "", err
	}
	return url, nil
}

// Logout ends the provider session and clears the Principal. The local clear
// happens even when the provider call fails; a user who asked to log out is
// never left appearing logged in.
func (c *Controller) Logout(ctx context.Context) error {
	c.mu.Lock()
	var userID string
	if c.current != nil {
		userID = c.current.ID
	}
	c.mu.Unlock()

	err := c.client.SignOut(ctx)

	attempt := c.beginAttempt()
	c.apply(attempt, nil)
	c.nav.Navigate(PathLogin)

	if err != nil {
		c.logger.Warn("provider sign-out failed; session cleared locally", "err", err)
		c.notifier.Error(ctx, userID, "Sign out did not complete with the identity provider")
		return err
	}
	c.notifier.Success(ctx, userID, "You have been logged out")
	return nil
}

// Principal returns the current Principal, or nil when signed out. The
// returned value is read-only; the controller replaces it wholesale on change.
func (c *Controller) Principal() *principal.Principal {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// IsLoading reports whether the initial session lookup is still in flight.
func (c *Controller) IsLoading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// IsAuthenticated reports whether a Principal is currently resolved.
func (c *Controller) IsAuthenticated() bool {
	return c.Principal() != nil
}

// Watch registers a read-only observer called with the new Principal after
// every replacement. Returns a removal function.
func (c *Controller) Watch(fn func(*principal.Principal)) (remove func()) {
	c.mu.Lock()
	id := c.watcherID
	c.watcherID++
	c.watchers[id] = fn
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		delete(c.watchers, id)
		c.mu.Unlock()
	}
}

// beginAttempt reserves the next resolution attempt number. Later attempt
// numbers win over earlier ones no matter which resolution finishes first.
func (c *Controller) beginAttempt() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.attempt++
	return c.attempt
}

// apply installs the resolution result if no newer attempt has been applied.
// Returns false when the result is stale and was discarded.
func (c *Controller) apply(attempt uint64, p *principal.Principal) bool {
	c.mu.Lock()
	if attempt < c.applied {
		c.mu.Unlock()
		return false
	}
	c.applied = attempt
	c.current = p
	watchers := make([]func(*principal.Principal), 0, len(c.watchers))
	for _, fn := range c.watchers {
		watchers = append(watchers, fn)
	}
	c.mu.Unlock()

	for _, fn := range watchers {
		fn(p)
	}
	return true
}

// rejectSignIn ends the just-created provider session for an account that
// failed the blocked/approval gate and clears any principal the attempt set.
func (c *Controller) rejectSignIn(ctx context.Context, attempt uint64) {
	if err := c.client.SignOut(ctx); err != nil {
		c.logger.Warn("sign-out after rejected sign-in failed", "err", err)
	}
	c.apply(attempt, nil)
}

func (c *Controller) setLoading(v bool) {
	c.mu.Lock()
	c.loading = v
	c.mu.Unlock()
}
