package domain

import (
	"errors"
	"time"
)

// Role is the application role stored on a profile.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Profile is the backing-store row holding user-editable profile and role data.
// It is independent of the identity provider; a signed-in identity may have no
// profile row yet.
type Profile struct {
	ID         string
	Username   string
	FullName   string
	Email      string
	Mobile     string
	Role       Role
	IsApproved bool
	IsBlocked  bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Validate validates the profile for persistence. Returns an error describing the first validation failure.
func (p *Profile) Validate() error {
	if p.ID == "" {
		return errors.New("profile id is required")
	}
	if p.Role == "" {
		p.Role = RoleUser
	}
	if !p.Role.Valid() {
		return errors.New("invalid role")
	}
	return nil
}
