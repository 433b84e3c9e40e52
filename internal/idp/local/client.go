package local

import (
	"context"
	"sync"

	"github.com/Sonu113077/rider-earnings-navigator/internal/idp"
)

// Client is the per-user-agent handle onto the local provider. It tracks one
// session token and its identity, and delivers auth-state events to
// subscribers synchronously, in the goroutine that caused the transition.
type Client struct {
	svc *Service

	mu       sync.Mutex
	token    string
	identity *idp.RawIdentity
	subs     map[int]func(idp.Event)
	nextSub  int
}

var _ idp.Client = (*Client)(nil)

// NewClient returns a client with no session.
func NewClient(svc *Service) *Client {
	return &Client{svc: svc, subs: map[int]func(idp.Event){}}
}

// NewClientWithToken returns a client resuming a persisted session token,
// typically read back from a cookie. The token is revalidated lazily on the
// first GetSession call.
func NewClientWithToken(svc *Service, token string) *Client {
	c := NewClient(svc)
	c.token = token
	return c
}

// Token returns the current session token, or "" when signed out. The HTTP
// layer persists it in the session cookie.
func (c *Client) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

func (c *Client) SignInWithPassword(ctx context.Context, email, password string, remember bool) (*idp.RawIdentity, error) {
	token, identity, err := c.svc.Authenticate(ctx, email, password, remember)
	if err != nil {
		return nil, err
	}
	c.setSession(token, identity)
	c.emit(idp.Event{Kind: idp.SignedIn, Identity: identity})
	return identity, nil
}

func (c *Client) SignInWithOAuth(ctx context.Context, provider, redirectTo string) (string, error) {
	return c.svc.AuthorizeURL(provider, redirectTo)
}

// CompleteOAuth finishes the redirect flow using the code delivered to the
// callback endpoint. Not part of idp.Client; the callback handler calls it on
// the concrete type.
func (c *Client) CompleteOAuth(ctx context.Context, provider, code string) (*idp.RawIdentity, error) {
	token, identity, err := c.svc.CompleteOAuth(ctx, provider, code)
	if err != nil {
		return nil, err
	}
	c.setSession(token, identity)
	c.emit(idp.Event{Kind: idp.SignedIn, Identity: identity})
	return identity, nil
}

// SignOut revokes the session and always clears local state, emitting
// SignedOut even when revocation fails.
func (c *Client) SignOut(ctx context.Context) error {
	c.mu.Lock()
	token := c.token
	hadSession := token != "" || c.identity != nil
	c.token = ""
	c.identity = nil
	c.mu.Unlock()

	var err error
	if token != "" {
		err = c.svc.Revoke(ctx, token)
	}
	if hadSession {
		c.emit(idp.Event{Kind: idp.SignedOut})
	}
	return err
}

// GetSession returns the signed-in identity, revalidating a resumed token on
// first use. A token that no longer maps to a live session is discarded and
// (nil, nil) is returned; database failures are returned as errors.
func (c *Client) GetSession(ctx context.Context) (*idp.RawIdentity, error) {
	c.mu.Lock()
	if c.identity != nil {
		identity := c.identity
		c.mu.Unlock()
		return identity, nil
	}
	token := c.token
	c.mu.Unlock()
	if token == "" {
		return nil, nil
	}

	identity, err := c.svc.SessionIdentity(ctx, token)
	if err == ErrSessionExpired {
		c.mu.Lock()
		if c.token == token {
			c.token = ""
		}
		c.mu.Unlock()
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	if c.token == token {
		c.identity = identity
	}
	c.mu.Unlock()
	return identity, nil
}

func (c *Client) OnAuthStateChange(fn func(idp.Event)) func() {
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs, id)
			c.mu.Unlock()
		})
	}
}

func (c *Client) UpdateUser(ctx context.Context, attrs idp.UserAttributes) error {
	c.mu.Lock()
	identity := c.identity
	c.mu.Unlock()
	if identity == nil {
		return idp.ErrNoSession
	}
	return c.svc.UpdateUser(ctx, identity.ID, attrs)
}

func (c *Client) setSession(token string, identity *idp.RawIdentity) {
	c.mu.Lock()
	c.token = token
	c.identity = identity
	c.mu.Unlock()
}

func (c *Client) emit(ev idp.Event) {
	c.mu.Lock()
	fns := make([]func(idp.Event), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.mu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}
