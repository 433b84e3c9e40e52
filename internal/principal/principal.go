// Package principal resolves the identity provider's raw session into the
// application's notion of who is signed in and with what role.
package principal

import (
	"strings"
	"time"

	"github.com/Sonu113077/rider-earnings-navigator/internal/profile/domain"
)

// Principal is the resolved authenticated user. It is rebuilt wholesale on
// every resolution and never mutated in place; consumers treat it as
// read-only.
type Principal struct {
	ID         string
	Username   string
	FullName   string
	Email      string
	Mobile     string
	Role       domain.Role
	IsApproved bool
	IsBlocked  bool
	// LastActive is the resolution time. Not persisted.
	LastActive time.Time
}

// IsAdmin reports whether the principal carries the admin role.
func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role == domain.RoleAdmin
}

// AllowList is the static set of administrator emails. Read-only after
// construction; membership is case-insensitive.
type AllowList struct {
	emails map[string]struct{}
}

// NewAllowList builds an AllowList from the configured emails. Entries are
// lowercased and trimmed; empty entries are dropped.
func NewAllowList(emails []string) *AllowList {
	m := make(map[string]struct{}, len(emails))
	for _, e := range emails {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" {
			m[e] = struct{}{}
		}
	}
	return &AllowList{emails: m}
}

// Contains reports whether email is on the allow-list.
func (a *AllowList) Contains(email string) bool {
	if a == nil {
		return false
	}
	_, ok := a.emails[strings.ToLower(strings.TrimSpace(email))]
	return ok
}

// displayNameFromEmail derives a fallback display name from the local part of
// an email address ("ravi.k@example.com" -> "ravi.k").
func displayNameFromEmail(email string) string {
	if i := strings.IndexByte(email, '@'); i > 0 {
		return email[:i]
	}
	return email
}
