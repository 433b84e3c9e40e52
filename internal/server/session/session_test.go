package session

import (
	"context"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Sonu113077/rider-earnings-navigator/internal/idp"
	"github.com/Sonu113077/rider-earnings-navigator/internal/idp/local"
	"github.com/Sonu113077/rider-earnings-navigator/internal/principal"
	profiledomain "github.com/Sonu113077/rider-earnings-navigator/internal/profile/domain"
	"github.com/Sonu113077/rider-earnings-navigator/internal/security"
)

type memStore struct {
	mu       sync.Mutex
	users    map[string]*local.User
	sessions map[string]*local.Session
}

func newMemStore() *memStore {
	return &memStore{users: map[string]*local.User{}, sessions: map[string]*local.Session{}}
}

func (m *memStore) GetUserByEmail(_ context.Context, email string) (*local.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memStore) GetUserByID(_ context.Context, id string) (*local.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (m *memStore) CreateUser(_ context.Context, u *local.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *memStore) UpdateUser(_ context.Context, u *local.User) error {
	return m.CreateUser(context.Background(), u)
}

func (m *memStore) CreateSession(_ context.Context, s *local.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.sessions[s.ID] = &cp
	return nil
}

func (m *memStore) GetSession(_ context.Context, id string) (*local.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (m *memStore) RevokeSession(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok && s.RevokedAt == nil {
		now := time.Now().UTC()
		s.RevokedAt = &now
	}
	return nil
}

type passthroughResolver struct{}

func (passthroughResolver) Resolve(_ context.Context, raw *idp.RawIdentity) *principal.Principal {
	if raw == nil {
		return nil
	}
	return &principal.Principal{
		ID:         raw.ID,
		Email:      raw.Email,
		FullName:   raw.Metadata["full_name"],
		Role:       profiledomain.RoleUser,
		IsApproved: true,
	}
}

type nopNotifier struct{}

func (nopNotifier) Success(context.Context, string, string) {}
func (nopNotifier) Error(context.Context, string, string)   {}

func newTestRegistry(t *testing.T) (*Registry, *local.Service) {
	t.Helper()
	tokens, err := security.NewTestTokenProvider()
	if err != nil {
		t.Fatalf("test token provider: %v", err)
	}
	svc := local.NewService(newMemStore(), security.NewHasher(4), tokens, nil, nil, time.Hour, 24*time.Hour, nil)
	if _, err := svc.Register(context.Background(), "rider@example.com", "hunter2hunter2", "Ravi", ""); err != nil {
		t.Fatalf("register: %v", err)
	}
	return NewRegistry(svc, passthroughResolver{}, nopNotifier{}, time.Minute, nil), svc
}

func signIn(t *testing.T, reg *Registry) (*Entry, string) {
	t.Helper()
	entry := reg.NewEntry()
	if err := entry.Controller.Login(context.Background(), "rider@example.com", "hunter2hunter2", false); err != nil {
		t.Fatalf("login: %v", err)
	}
	token := entry.Client.Token()
	reg.Bind(token, entry)
	return entry, token
}

func TestLookupReturnsBoundEntry(t *testing.T) {
	reg, _ := newTestRegistry(t)
	entry, token := signIn(t, reg)

	got := reg.Lookup(context.Background(), token)
	if got != entry {
		t.Fatal("expected the bound entry back")
	}
}

func TestLookupRebuildsAfterEviction(t *testing.T) {
	reg, _ := newTestRegistry(t)
	_, token := signIn(t, reg)
	reg.Remove(token)

	entry := reg.Lookup(context.Background(), token)
	p := entry.Controller.Principal()
	if p == nil || p.Email != "rider@example.com" {
		t.Fatalf("rebuilt entry not initialized: %+v", p)
	}

	if reg.Lookup(context.Background(), token) != entry {
		t.Fatal("rebuilt entry not cached")
	}
}

func TestLookupDeadTokenYieldsSignedOutEntry(t *testing.T) {
	reg, svc := newTestRegistry(t)
	_, token := signIn(t, reg)
	reg.Remove(token)
	if err := svc.Revoke(context.Background(), token); err != nil {
		t.Fatalf("revoke: %v", err)
	}

	entry := reg.Lookup(context.Background(), token)
	if entry.Controller.Principal() != nil {
		t.Fatal("revoked token must not resolve a principal")
	}
	if entry.Controller.IsLoading() {
		t.Fatal("entry must finish loading even for a dead token")
	}
}

func TestSweepEvictsIdleEntries(t *testing.T) {
	reg, _ := newTestRegistry(t)
	_, token := signIn(t, reg)

	// Push lastSeen past the idle TTL.
	reg.mu.Lock()
	reg.entries[token].lastSeen = time.Now().Add(-2 * time.Minute)
	reg.mu.Unlock()

	reg.Sweep()

	reg.mu.Lock()
	_, ok := reg.entries[token]
	reg.mu.Unlock()
	if ok {
		t.Fatal("idle entry survived sweep")
	}
}

func TestNavigatorTakeClears(t *testing.T) {
	n := &Navigator{}
	if n.Take() != "" {
		t.Fatal("empty navigator must return empty path")
	}
	n.Navigate("/dashboard")
	if n.Take() != "/dashboard" {
		t.Fatal("expected recorded path")
	}
	if n.Take() != "" {
		t.Fatal("take must clear the pending path")
	}
}

func TestCookieRoundTrip(t *testing.T) {
	rec := httptest.NewRecorder()
	SetCookie(rec, "tok-123", true, time.Hour, false)

	req := httptest.NewRequest("GET", "/", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	if got := TokenFromRequest(req); got != "tok-123" {
		t.Fatalf("expected tok-123, got %q", got)
	}

	rec = httptest.NewRecorder()
	ClearCookie(rec, false)
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].MaxAge != -1 {
		t.Fatalf("expected expired cookie, got %+v", cookies)
	}
}

func TestRememberControlsPersistence(t *testing.T) {
	rec := httptest.NewRecorder()
	SetCookie(rec, "tok", false, time.Hour, false)
	if c := rec.Result().Cookies()[0]; c.MaxAge != 0 {
		t.Fatalf("session cookie must have no max-age, got %d", c.MaxAge)
	}

	rec = httptest.NewRecorder()
	SetCookie(rec, "tok", true, time.Hour, false)
	if c := rec.Result().Cookies()[0]; c.MaxAge != 3600 {
		t.Fatalf("remembered cookie must carry max-age, got %d", c.MaxAge)
	}
}
