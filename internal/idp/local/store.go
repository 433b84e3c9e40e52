// Package local implements the identity-provider contract on top of the
// app's own Postgres tables, bcrypt credentials, and signed session tokens.
package local

import (
	"context"
	"time"
)

// User is the provider-side user record (credentials plus a few attributes).
type User struct {
	ID           string
	Email        string
	PasswordHash string // empty for OAuth-only users
	Phone        string
	FullName     string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Session is a persisted provider session. The raw token is never stored;
// only its hash is.
type Session struct {
	ID        string
	UserID    string
	TokenHash string
	Remember  bool
	ExpiresAt time.Time
	RevokedAt *time.Time // nil when not revoked
	CreatedAt time.Time
}

// Store is the persistence contract for provider users and sessions.
// Get methods return (nil, nil) for missing rows; errors are reserved for
// database failures.
type Store interface {
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByID(ctx context.Context, id string) (*User, error)
	CreateUser(ctx context.Context, u *User) error
	UpdateUser(ctx context.Context, u *User) error

	CreateSession(ctx context.Context, s *Session) error
	GetSession(ctx context.Context, id string) (*Session, error)
	RevokeSession(ctx context.Context, id string) error
}
