package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Sonu113077/rider-earnings-navigator/internal/audit"
	"github.com/Sonu113077/rider-earnings-navigator/internal/config"
	"github.com/Sonu113077/rider-earnings-navigator/internal/idp"
	"github.com/Sonu113077/rider-earnings-navigator/internal/idp/local"
	"github.com/Sonu113077/rider-earnings-navigator/internal/principal"
	profiledomain "github.com/Sonu113077/rider-earnings-navigator/internal/profile/domain"
	profilesvc "github.com/Sonu113077/rider-earnings-navigator/internal/profile/service"
	"github.com/Sonu113077/rider-earnings-navigator/internal/security"
	"github.com/Sonu113077/rider-earnings-navigator/internal/server/middleware"
	"github.com/Sonu113077/rider-earnings-navigator/internal/server/session"
)

type memUserStore struct {
	mu       sync.Mutex
	users    map[string]*local.User
	sessions map[string]*local.Session
}

func newMemUserStore() *memUserStore {
	return &memUserStore{users: map[string]*local.User{}, sessions: map[string]*local.Session{}}
}

func (m *memUserStore) GetUserByEmail(_ context.Context, email string) (*local.User, error) {
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

func (m *memUserStore) GetUserByID(_ context.Context, id string) (*local.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (m *memUserStore) CreateUser(_ context.Context, u *local.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *memUserStore) UpdateUser(ctx context.Context, u *local.User) error {
	return m.CreateUser(ctx, u)
}

func (m *memUserStore) CreateSession(_ context.Context, s *local.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.sessions[s.ID] = &cp
	return nil
}

func (m *memUserStore) GetSession(_ context.Context, id string) (*local.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (m *memUserStore) RevokeSession(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok && s.RevokedAt == nil {
		now := time.Now().UTC()
		s.RevokedAt = &now
	}
	return nil
}

type memProfileRepo struct {
	mu       sync.Mutex
	profiles map[string]*profiledomain.Profile
}

func newMemProfileRepo() *memProfileRepo {
	return &memProfileRepo{profiles: map[string]*profiledomain.Profile{}}
}

func (m *memProfileRepo) GetByID(_ context.Context, id string) (*profiledomain.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (m *memProfileRepo) GetByEmail(_ context.Context, email string) (*profiledomain.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.profiles {
		if strings.EqualFold(p.Email, email) {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memProfileRepo) Create(_ context.Context, p *profiledomain.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.profiles[p.ID] = &cp
	return nil
}

func (m *memProfileRepo) Update(ctx context.Context, p *profiledomain.Profile) error {
	return m.Create(ctx, p)
}

func (m *memProfileRepo) UpdateRole(_ context.Context, id string, role profiledomain.Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.profiles[id]; ok {
		p.Role = role
	}
	return nil
}

func (m *memProfileRepo) SetFlags(_ context.Context, id string, approved, blocked bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.profiles[id]; ok {
		p.IsApproved = approved
		p.IsBlocked = blocked
	}
	return nil
}

func (m *memProfileRepo) List(_ context.Context, limit, offset int32) ([]*profiledomain.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*profiledomain.Profile
	for _, p := range m.profiles {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

type nopNotifier struct{}

func (nopNotifier) Success(context.Context, string, string) {}
func (nopNotifier) Error(context.Context, string, string)   {}

type fixture struct {
	handler     *Handler
	idpsvc      *local.Service
	profiles    *profilesvc.Service
	profileRepo *memProfileRepo
	registry    *session.Registry
	cfg         *config.Config
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	tokens, err := security.NewTestTokenProvider()
	if err != nil {
		t.Fatalf("test token provider: %v", err)
	}
	store := newMemUserStore()
	idpsvc := local.NewService(store, security.NewHasher(4), tokens, nil, nil, time.Hour, 24*time.Hour, nil)

	profileRepo := newMemProfileRepo()
	profiles := profilesvc.NewService(profileRepo, nil)
	resolver := principal.NewResolver(profileRepo, principal.NewAllowList(nil), nil)
	registry := session.NewRegistry(idpsvc, resolver, nopNotifier{}, time.Minute, nil)
	cfg := &config.Config{Env: "development", ResetReturnToClient: true}

	return &fixture{
		handler:     NewHandler(registry, idpsvc, profiles, audit.NewLogger(nil, nil), cfg, nil),
		idpsvc:      idpsvc,
		profiles:    profiles,
		profileRepo: profileRepo,
		registry:    registry,
		cfg:         cfg,
	}
}

func (f *fixture) register(t *testing.T, email, password string) string {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/register", strings.NewReader(
		`{"email":"`+email+`","password":"`+password+`","full_name":"Ravi Kumar","mobile":"9999999999"}`))
	f.handler.Register(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: status %d body %s", rec.Code, rec.Body.String())
	}
	var body map[string]string
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	return body["id"]
}

func (f *fixture) login(t *testing.T, email, password string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/login", strings.NewReader(
		`{"email":"`+email+`","password":"`+password+`","remember":false}`))
	f.handler.Login(rec, req)
	return rec
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == session.CookieName {
			return c
		}
	}
	return nil
}

func TestRegisterCreatesAccountAndProfile(t *testing.T) {
	f := newFixture(t)
	id := f.register(t, "ravi@example.com", "hunter2hunter2")
	if id == "" {
		t.Fatal("expected user id in response")
	}
	p, err := f.profiles.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("profile after register: %v", err)
	}
	if p.Email != "ravi@example.com" || p.FullName != "Ravi Kumar" {
		t.Fatalf("unexpected profile %+v", p)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	f := newFixture(t)
	f.register(t, "ravi@example.com", "hunter2hunter2")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/register", strings.NewReader(
		`{"email":"ravi@example.com","password":"hunter2hunter2","full_name":"","mobile":""}`))
	f.handler.Register(rec, req)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestLoginSuccess(t *testing.T) {
	f := newFixture(t)
	f.register(t, "ravi@example.com", "hunter2hunter2")

	rec := f.login(t, "ravi@example.com", "hunter2hunter2")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	c := sessionCookie(rec)
	if c == nil || c.Value == "" {
		t.Fatal("expected session cookie")
	}
	var body struct {
		Redirect string                 `json:"redirect"`
		User     map[string]interface{} `json:"user"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Redirect != "/dashboard" {
		t.Fatalf("expected /dashboard redirect, got %q", body.Redirect)
	}
	if body.User["email"] != "ravi@example.com" {
		t.Fatalf("unexpected user %+v", body.User)
	}

	// The cookie token must resolve through the registry.
	entry := f.registry.Lookup(context.Background(), c.Value)
	if p := entry.Controller.Principal(); p == nil || p.Email != "ravi@example.com" {
		t.Fatalf("cookie token did not resolve: %+v", p)
	}
}

func TestLoginInvalidPassword(t *testing.T) {
	f := newFixture(t)
	f.register(t, "ravi@example.com", "hunter2hunter2")

	rec := f.login(t, "ravi@example.com", "wrong-password")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if sessionCookie(rec) != nil {
		t.Fatal("failed login must not set a cookie")
	}
}

func TestLoginLosingToConcurrentSignOut(t *testing.T) {
	f := newFixture(t)
	f.register(t, "ravi@example.com", "hunter2hunter2")

	// A second subscriber on the same entry signs out as soon as the sign-in
	// lands, so the entry's principal is already gone when the handler reads
	// it back.
	entry := f.registry.NewEntry()
	unsub := entry.Client.OnAuthStateChange(func(ev idp.Event) {
		if ev.Kind == idp.SignedIn {
			_ = entry.Client.SignOut(context.Background())
		}
	})
	defer unsub()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/login", strings.NewReader(
		`{"email":"ravi@example.com","password":"hunter2hunter2","remember":false}`))
	req = req.WithContext(middleware.WithEntry(req.Context(), entry))
	f.handler.Login(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d: %s", rec.Code, rec.Body.String())
	}
	if sessionCookie(rec) != nil {
		t.Fatal("login that lost to a sign-out must not set a cookie")
	}
}

func TestLoginBlockedAccount(t *testing.T) {
	f := newFixture(t)
	id := f.register(t, "ravi@example.com", "hunter2hunter2")
	if _, err := f.profiles.SetBlocked(context.Background(), id, true); err != nil {
		t.Fatalf("block: %v", err)
	}

	rec := f.login(t, "ravi@example.com", "hunter2hunter2")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", rec.Code, rec.Body.String())
	}
	if sessionCookie(rec) != nil {
		t.Fatal("blocked login must not set a cookie")
	}
}

func TestLoginPendingApproval(t *testing.T) {
	f := newFixture(t)
	id := f.register(t, "ravi@example.com", "hunter2hunter2")
	if _, err := f.profiles.SetApproval(context.Background(), id, false); err != nil {
		t.Fatalf("unapprove: %v", err)
	}

	rec := f.login(t, "ravi@example.com", "hunter2hunter2")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestLogoutClearsCookieAndRegistry(t *testing.T) {
	f := newFixture(t)
	f.register(t, "ravi@example.com", "hunter2hunter2")
	loginRec := f.login(t, "ravi@example.com", "hunter2hunter2")
	token := sessionCookie(loginRec).Value
	entry := f.registry.Lookup(context.Background(), token)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/logout", nil)
	req = req.WithContext(middleware.WithEntry(req.Context(), entry))
	f.handler.Logout(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	c := sessionCookie(rec)
	if c == nil || c.MaxAge != -1 {
		t.Fatal("expected expired session cookie")
	}
	if entry.Controller.Principal() != nil {
		t.Fatal("principal not cleared on logout")
	}

	// The old token must now resolve to a signed-out entry.
	fresh := f.registry.Lookup(context.Background(), token)
	if fresh.Controller.Principal() != nil {
		t.Fatal("revoked token still resolves a principal")
	}
}

func TestLogoutWithoutSession(t *testing.T) {
	f := newFixture(t)
	rec := httptest.NewRecorder()
	f.handler.Logout(rec, httptest.NewRequest("POST", "/logout", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestPasswordResetFlow(t *testing.T) {
	f := newFixture(t)
	f.register(t, "ravi@example.com", "hunter2hunter2")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/forgot-password", strings.NewReader(`{"email":"ravi@example.com"}`))
	f.handler.ForgotPassword(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("forgot: expected 200, got %d", rec.Code)
	}
	var body map[string]string
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	token := body["reset_token"]
	if token == "" {
		t.Fatal("dev mode must return the reset token")
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest("POST", "/reset-password", strings.NewReader(
		`{"token":"`+token+`","password":"brand-new-password"}`))
	f.handler.ResetPassword(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("reset: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	if rec := f.login(t, "ravi@example.com", "hunter2hunter2"); rec.Code != http.StatusUnauthorized {
		t.Fatal("old password still accepted")
	}
	if rec := f.login(t, "ravi@example.com", "brand-new-password"); rec.Code != http.StatusOK {
		t.Fatalf("new password rejected: %d", rec.Code)
	}
}

func TestForgotPasswordUnknownEmailLeaksNothing(t *testing.T) {
	f := newFixture(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/forgot-password", strings.NewReader(`{"email":"ghost@example.com"}`))
	f.handler.ForgotPassword(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]string
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	if _, ok := body["reset_token"]; ok {
		t.Fatal("unknown email must not yield a token")
	}
}

func TestResetPasswordBadToken(t *testing.T) {
	f := newFixture(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/reset-password", strings.NewReader(
		`{"token":"garbage","password":"brand-new-password"}`))
	f.handler.ResetPassword(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestOAuthStartUnknownProvider(t *testing.T) {
	f := newFixture(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/login/oauth", strings.NewReader(`{"provider":"myspace"}`))
	f.handler.OAuthStart(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
