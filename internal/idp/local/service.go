package local

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/Sonu113077/rider-earnings-navigator/internal/idp"
	"github.com/Sonu113077/rider-earnings-navigator/internal/security"
)

var (
	// ErrWeakPassword is returned when a password fails the minimum policy.
	ErrWeakPassword = errors.New("password must be at least 8 characters")
	// ErrInvalidEmail is returned when an email address is malformed.
	ErrInvalidEmail = errors.New("invalid email address")
	// ErrSessionExpired is returned when a presented session token no longer
	// maps to a live session.
	ErrSessionExpired = errors.New("session expired or revoked")
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

const minPasswordLength = 8

// Exchanger completes an OAuth authorization-code exchange with a federated
// provider and returns the identity attributes asserted by it.
type Exchanger interface {
	Exchange(ctx context.Context, provider, code string) (email, fullName string, err error)
}

// Service owns provider users and sessions. It verifies bcrypt credentials,
// persists session rows, and issues signed session tokens whose lifetime
// depends on whether the user asked to be remembered.
type Service struct {
	store       Store
	hasher      *security.Hasher
	tokens      *security.TokenProvider
	exchanger   Exchanger         // may be nil when no federated providers are configured
	authorizers map[string]string // provider name -> authorize endpoint
	sessionTTL  time.Duration
	rememberTTL time.Duration
	logger      *slog.Logger
	now         func() time.Time
}

// NewService wires a Service. authorizers maps provider names to their
// authorize endpoints; exchanger may be nil, in which case OAuth callbacks fail.
func NewService(store Store, hasher *security.Hasher, tokens *security.TokenProvider, exchanger Exchanger, authorizers map[string]string, sessionTTL, rememberTTL time.Duration, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:       store,
		hasher:      hasher,
		tokens:      tokens,
		exchanger:   exchanger,
		authorizers: authorizers,
		sessionTTL:  sessionTTL,
		rememberTTL: rememberTTL,
		logger:      logger,
		now:         time.Now,
	}
}

// Register creates a credentialed user. Returns idp.ErrEmailAlreadyRegistered
// when the email is taken.
func (s *Service) Register(ctx context.Context, email, password, fullName, phone string) (*idp.RawIdentity, error) {
	if !emailPattern.MatchString(email) {
		return nil, ErrInvalidEmail
	}
	if len(password) < minPasswordLength {
		return nil, ErrWeakPassword
	}
	existing, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if existing != nil {
		return nil, idp.ErrEmailAlreadyRegistered
	}
	hash, err := s.hasher.Hash([]byte(password))
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	now := s.now().UTC()
	u := &User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		Phone:        phone,
		FullName:     fullName,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	return identityOf(u), nil
}

// Authenticate verifies email/password and starts a session. remember selects
// the longer session lifetime. Returns the session token alongside the identity.
func (s *Service) Authenticate(ctx context.Context, email, password string, remember bool) (string, *idp.RawIdentity, error) {
	u, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return "", nil, fmt.Errorf("lookup user: %w", err)
	}
	if u == nil || u.PasswordHash == "" {
		return "", nil, idp.ErrInvalidCredentials
	}
	if err := s.hasher.Compare(u.PasswordHash, []byte(password)); err != nil {
		return "", nil, idp.ErrInvalidCredentials
	}
	token, err := s.startSession(ctx, u, remember)
	if err != nil {
		return "", nil, err
	}
	return token, identityOf(u), nil
}

// SessionIdentity revalidates a persisted session token and returns the
// identity behind it. Returns ErrSessionExpired for tokens that no longer map
// to a live session, including tampered or revoked ones.
func (s *Service) SessionIdentity(ctx context.Context, token string) (*idp.RawIdentity, error) {
	_, u, err := s.liveSession(ctx, token)
	if err != nil {
		return nil, err
	}
	return identityOf(u), nil
}

// Revoke ends the session behind the token. Unknown or already-revoked tokens
// are treated as success; the caller's goal is a dead session either way.
func (s *Service) Revoke(ctx context.Context, token string) error {
	sessionID, _, _, err := s.tokens.ValidateSession(token)
	if err != nil {
		return nil
	}
	return s.store.RevokeSession(ctx, sessionID)
}

// UpdateUser applies non-zero attributes to the given user. Password changes
// re-hash with the configured cost.
func (s *Service) UpdateUser(ctx context.Context, userID string, attrs idp.UserAttributes) error {
	u, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("lookup user: %w", err)
	}
	if u == nil {
		return idp.ErrNoSession
	}
	if attrs.Password != "" {
		if len(attrs.Password) < minPasswordLength {
			return ErrWeakPassword
		}
		hash, err := s.hasher.Hash([]byte(attrs.Password))
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		u.PasswordHash = hash
	}
	if attrs.FullName != "" {
		u.FullName = attrs.FullName
	}
	if attrs.Phone != "" {
		u.Phone = attrs.Phone
	}
	u.UpdatedAt = s.now().UTC()
	return s.store.UpdateUser(ctx, u)
}

// IssueResetToken issues a short-lived password reset token for the account
// behind email. Returns idp.ErrNoSession when no such account exists; callers
// decide whether to surface that distinction.
func (s *Service) IssueResetToken(ctx context.Context, email string) (string, error) {
	u, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return "", fmt.Errorf("lookup user: %w", err)
	}
	if u == nil {
		return "", idp.ErrNoSession
	}
	token, _, err := s.tokens.IssueReset(u.ID, u.Email)
	return token, err
}

// ResetPassword validates the reset token and sets a new password.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	userID, _, err := s.tokens.ValidateReset(token)
	if err != nil {
		return idp.ErrInvalidCredentials
	}
	return s.UpdateUser(ctx, userID, idp.UserAttributes{Password: newPassword})
}

// AuthorizeURL returns the federated authorize URL for provider, carrying
// redirectTo as the post-login return target.
func (s *Service) AuthorizeURL(provider, redirectTo string) (string, error) {
	base, ok := s.authorizers[provider]
	if !ok {
		return "", idp.ErrUnknownProvider
	}
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("authorize endpoint for %s: %w", provider, err)
	}
	q := u.Query()
	q.Set("redirect_to", redirectTo)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// CompleteOAuth exchanges an authorization code, upserts the asserted user,
// and starts a session for them. OAuth users have no local password.
func (s *Service) CompleteOAuth(ctx context.Context, provider, code string) (string, *idp.RawIdentity, error) {
	if _, ok := s.authorizers[provider]; !ok {
		return "", nil, idp.ErrUnknownProvider
	}
	if s.exchanger == nil {
		return "", nil, idp.ErrUnknownProvider
	}
	email, fullName, err := s.exchanger.Exchange(ctx, provider, code)
	if err != nil {
		return "", nil, fmt.Errorf("exchange code with %s: %w", provider, err)
	}
	u, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return "", nil, fmt.Errorf("lookup user: %w", err)
	}
	if u == nil {
		now := s.now().UTC()
		u = &User{
			ID:        uuid.NewString(),
			Email:     email,
			FullName:  fullName,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.store.CreateUser(ctx, u); err != nil {
			return "", nil, err
		}
	}
	token, err := s.startSession(ctx, u, false)
	if err != nil {
		return "", nil, err
	}
	return token, identityOf(u), nil
}

func (s *Service) startSession(ctx context.Context, u *User, remember bool) (string, error) {
	ttl := s.sessionTTL
	if remember {
		ttl = s.rememberTTL
	}
	sessionID := uuid.NewString()
	token, expiresAt, err := s.tokens.IssueSession(sessionID, u.ID, u.Email, ttl)
	if err != nil {
		return "", fmt.Errorf("issue session token: %w", err)
	}
	sess := &Session{
		ID:        sessionID,
		UserID:    u.ID,
		TokenHash: security.HashSessionToken(token),
		Remember:  remember,
		ExpiresAt: expiresAt,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.CreateSession(ctx, sess); err != nil {
		return "", err
	}
	return token, nil
}

func (s *Service) liveSession(ctx context.Context, token string) (*Session, *User, error) {
	sessionID, userID, _, err := s.tokens.ValidateSession(token)
	if err != nil {
		return nil, nil, ErrSessionExpired
	}
	sess, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, nil, fmt.Errorf("lookup session: %w", err)
	}
	if sess == nil || sess.RevokedAt != nil || s.now().UTC().After(sess.ExpiresAt) {
		return nil, nil, ErrSessionExpired
	}
	if !security.SessionTokenHashEqual(token, sess.TokenHash) {
		return nil, nil, ErrSessionExpired
	}
	u, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("lookup user: %w", err)
	}
	if u == nil {
		return nil, nil, ErrSessionExpired
	}
	return sess, u, nil
}

func identityOf(u *User) *idp.RawIdentity {
	md := map[string]string{}
	if u.FullName != "" {
		md["full_name"] = u.FullName
	}
	return &idp.RawIdentity{
		ID:       u.ID,
		Email:    u.Email,
		Phone:    u.Phone,
		Metadata: md,
	}
}
