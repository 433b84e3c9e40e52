// Package session maps browser cookies onto per-user-agent auth state. Each
// cookie token owns one provider client and one auth controller; the registry
// caches them between requests and evicts idle entries.
package session

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/Sonu113077/rider-earnings-navigator/internal/auth"
	"github.com/Sonu113077/rider-earnings-navigator/internal/idp/local"
)

// CookieName is the session cookie carrying the provider session token.
const CookieName = "ren_session"

// Navigator records the path the auth controller last asked to navigate to.
// Handlers drain it into an HTTP redirect.
type Navigator struct {
	mu   sync.Mutex
	path string
}

func (n *Navigator) Navigate(path string) {
	n.mu.Lock()
	n.path = path
	n.mu.Unlock()
}

// Take returns the pending navigation target and clears it. "" when none.
func (n *Navigator) Take() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	p := n.path
	n.path = ""
	return p
}

// Entry is the per-user-agent state behind one session cookie.
type Entry struct {
	Client     *local.Client
	Controller *auth.Controller
	Nav        *Navigator

	lastSeen time.Time // guarded by the registry mutex
}

// Registry caches entries by session token and evicts idle ones.
type Registry struct {
	svc      *local.Service
	resolver auth.Resolver
	notifier auth.Notifier
	logger   *slog.Logger
	idleTTL  time.Duration

	mu      sync.Mutex
	entries map[string]*Entry
	now     func() time.Time
}

func NewRegistry(svc *local.Service, resolver auth.Resolver, notifier auth.Notifier, idleTTL time.Duration, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		svc:      svc,
		resolver: resolver,
		notifier: notifier,
		logger:   logger,
		idleTTL:  idleTTL,
		entries:  map[string]*Entry{},
		now:      time.Now,
	}
}

// NewEntry builds an unbound entry for flows that start without a cookie,
// i.e. login and the OAuth callback. Bind it once it holds a token.
func (reg *Registry) NewEntry() *Entry {
	return reg.build(local.NewClient(reg.svc))
}

// Lookup returns the entry for token, constructing and initializing one when
// the token arrives on a cookie the registry has not seen (fresh process,
// evicted entry).
func (reg *Registry) Lookup(ctx context.Context, token string) *Entry {
	reg.mu.Lock()
	if e, ok := reg.entries[token]; ok {
		e.lastSeen = reg.now()
		reg.mu.Unlock()
		return e
	}
	reg.mu.Unlock()

	e := reg.build(local.NewClientWithToken(reg.svc, token))
	e.Controller.Initialize(ctx)

	reg.mu.Lock()
	defer reg.mu.Unlock()
	if existing, ok := reg.entries[token]; ok {
		e.Controller.Close()
		existing.lastSeen = reg.now()
		return existing
	}
	e.lastSeen = reg.now()
	reg.entries[token] = e
	return e
}

// Bind registers an entry under its token after a successful sign-in.
func (reg *Registry) Bind(token string, e *Entry) {
	if token == "" {
		return
	}
	reg.mu.Lock()
	e.lastSeen = reg.now()
	reg.entries[token] = e
	reg.mu.Unlock()
}

// Remove drops the entry for token and releases its event subscription.
func (reg *Registry) Remove(token string) {
	reg.mu.Lock()
	e, ok := reg.entries[token]
	delete(reg.entries, token)
	reg.mu.Unlock()
	if ok {
		e.Controller.Close()
	}
}

// Sweep evicts entries idle longer than the TTL. Run it periodically.
func (reg *Registry) Sweep() {
	cutoff := reg.now().Add(-reg.idleTTL)
	var evicted []*Entry
	reg.mu.Lock()
	for token, e := range reg.entries {
		if e.lastSeen.Before(cutoff) {
			delete(reg.entries, token)
			evicted = append(evicted, e)
		}
	}
	reg.mu.Unlock()
	for _, e := range evicted {
		e.Controller.Close()
	}
	if len(evicted) > 0 {
		reg.logger.Debug("evicted idle sessions", "count", len(evicted))
	}
}

// RunSweeper sweeps every interval until ctx is done.
func (reg *Registry) RunSweeper(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			reg.Sweep()
		}
	}
}

func (reg *Registry) build(client *local.Client) *Entry {
	nav := &Navigator{}
	ctrl := auth.NewController(client, reg.resolver, nav, reg.notifier, reg.logger)
	ctrl.SubscribeToSessionChanges()
	return &Entry{Client: client, Controller: ctrl, Nav: nav}
}

// SetCookie writes the session cookie. remember extends it past the browser
// session; maxAge applies only then.
func SetCookie(w http.ResponseWriter, token string, remember bool, maxAge time.Duration, secure bool) {
	c := &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	if remember {
		c.MaxAge = int(maxAge.Seconds())
	}
	http.SetCookie(w, c)
}

// ClearCookie expires the session cookie.
func ClearCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

// TokenFromRequest reads the session token off the request cookie, "" when absent.
func TokenFromRequest(r *http.Request) string {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return ""
	}
	return c.Value
}
