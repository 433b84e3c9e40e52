package principal

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Sonu113077/rider-earnings-navigator/internal/idp"
	"github.com/Sonu113077/rider-earnings-navigator/internal/profile/domain"
)

// ProfileStore is the minimal profile repository needed by the resolver.
type ProfileStore interface {
	// GetByID returns (nil, nil) when no profile row exists for id.
	GetByID(ctx context.Context, id string) (*domain.Profile, error)
	UpdateRole(ctx context.Context, id string, role domain.Role) error
}

// Resolver maps a raw identity-provider session to a Principal.
//
// Resolution never fails: a missing profile row falls back to permissive
// defaults, and a profile-store outage degrades to an identity-only
// Principal so a transient outage never blocks sign-in. The admin allow-list
// is authoritative for the role; the stored profile role is treated as a
// cache and corrected in the background when it disagrees.
type Resolver struct {
	profiles     ProfileStore
	allowList    *AllowList
	logger       *slog.Logger
	correctTTL   time.Duration
	correctEvery time.Duration
	now          func() time.Time

	mu        sync.Mutex
	corrected map[string]time.Time
}

// NewResolver returns a Resolver over the given profile store and admin
// allow-list. logger may be nil.
func NewResolver(profiles ProfileStore, allowList *AllowList, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		profiles:     profiles,
		allowList:    allowList,
		logger:       logger,
		correctTTL:   5 * time.Second,
		correctEvery: time.Minute,
		now:          time.Now,
		corrected:    map[string]time.Time{},
	}
}

// Resolve builds the Principal for the given raw identity. A nil identity
// resolves to nil. The returned Principal is always fully populated;
// Resolve does not return an error.
func (r *Resolver) Resolve(ctx context.Context, raw *idp.RawIdentity) *Principal {
	if raw == nil {
		return nil
	}

	isAdminEmail := r.allowList.Contains(raw.Email)

	prof, err := r.profiles.GetByID(ctx, raw.ID)
	if err != nil {
		// Transient store outage: degrade to an identity-only principal
		// rather than failing the sign-in.
		r.logger.Warn("profile fetch failed; resolving degraded principal",
			"user_id", raw.ID, "err", err)
		return r.fromIdentityOnly(raw, isAdminEmail)
	}

	role := domain.RoleUser
	if prof != nil && prof.Role.Valid() {
		role = prof.Role
	}
	if isAdminEmail {
		role = domain.RoleAdmin
		// Missing row counts as stale too: the correction write is attempted
		// either way, and whether it lands is the store's business.
		if prof == nil || prof.Role != domain.RoleAdmin {
			r.correctStoredRole(raw.ID)
		}
	}

	p := &Principal{
		ID:         raw.ID,
		Email:      raw.Email,
		Mobile:     raw.Phone,
		Role:       role,
		IsApproved: true,
		IsBlocked:  false,
		LastActive: r.now().UTC(),
	}
	if prof != nil {
		p.Username = prof.Username
		p.FullName = prof.FullName
		p.IsApproved = prof.IsApproved
		p.IsBlocked = prof.IsBlocked
		if prof.Mobile != "" {
			p.Mobile = prof.Mobile
		}
	}
	fillNameDefaults(p, raw)
	return p
}

// fromIdentityOnly builds the degraded Principal used when the profile store
// is unavailable. Role comes from the allow-list alone.
func (r *Resolver) fromIdentityOnly(raw *idp.RawIdentity, isAdminEmail bool) *Principal {
	role := domain.RoleUser
	if isAdminEmail {
		role = domain.RoleAdmin
	}
	p := &Principal{
		ID:         raw.ID,
		Email:      raw.Email,
		Mobile:     raw.Phone,
		Role:       role,
		IsApproved: true,
		IsBlocked:  false,
		LastActive: r.now().UTC(),
	}
	fillNameDefaults(p, raw)
	return p
}

// correctStoredRole issues the fire-and-forget write that brings the cached
// profile role in line with the allow-list, at most once per correctEvery per
// user. Failures are swallowed; the role shown for the current session is
// already correct.
func (r *Resolver) correctStoredRole(id string) {
	r.mu.Lock()
	if last, ok := r.corrected[id]; ok && r.now().Sub(last) < r.correctEvery {
		r.mu.Unlock()
		return
	}
	r.corrected[id] = r.now()
	r.mu.Unlock()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), r.correctTTL)
		defer cancel()
		if err := r.profiles.UpdateRole(ctx, id, domain.RoleAdmin); err != nil {
			r.logger.Debug("admin role correction write failed", "user_id", id, "err", err)
		}
	}()
}

func fillNameDefaults(p *Principal, raw *idp.RawIdentity) {
	if p.FullName == "" {
		p.FullName = raw.Metadata["full_name"]
	}
	if p.FullName == "" {
		p.FullName = displayNameFromEmail(raw.Email)
	}
	if p.Username == "" {
		p.Username = displayNameFromEmail(raw.Email)
	}
}
