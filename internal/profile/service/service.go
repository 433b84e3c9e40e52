// Package service implements profile use cases: bootstrap on first sign-in,
// self-service edits, and the admin moderation surface.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/Sonu113077/rider-earnings-navigator/internal/profile/domain"
	"github.com/Sonu113077/rider-earnings-navigator/internal/profile/repository"
)

var (
	// ErrProfileNotFound is returned when an operation targets a missing profile.
	ErrProfileNotFound = errors.New("profile not found")
	// ErrInvalidRole is returned when a role change names an unknown role.
	ErrInvalidRole = errors.New("invalid role")
)

type Service struct {
	repo   repository.Repository
	logger *slog.Logger
	now    func() time.Time
}

func NewService(repo repository.Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger, now: time.Now}
}

// Ensure returns the profile for id, creating a default row on first sign-in.
// New profiles start as approved, unblocked riders.
func (s *Service) Ensure(ctx context.Context, id, email, fullName, mobile string) (*domain.Profile, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p != nil {
		return p, nil
	}
	now := s.now().UTC()
	p = &domain.Profile{
		ID:         id,
		Username:   usernameFromEmail(email),
		FullName:   fullName,
		Email:      email,
		Mobile:     mobile,
		Role:       domain.RoleUser,
		IsApproved: true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	s.logger.Info("created profile", "user_id", id, "email", email)
	return p, nil
}

// Get returns the profile for id, or ErrProfileNotFound.
func (s *Service) Get(ctx context.Context, id string) (*domain.Profile, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrProfileNotFound
	}
	return p, nil
}

// UpdateSelf applies user-editable fields. Role and moderation flags are not
// touchable through this path.
func (s *Service) UpdateSelf(ctx context.Context, id, username, fullName, mobile string) (*domain.Profile, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if username != "" {
		p.Username = username
	}
	if fullName != "" {
		p.FullName = fullName
	}
	if mobile != "" {
		p.Mobile = mobile
	}
	p.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// List pages through all profiles for the admin surface.
func (s *Service) List(ctx context.Context, limit, offset int32) ([]*domain.Profile, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.repo.List(ctx, limit, offset)
}

// SetApproval flips the approval flag, preserving the block flag.
func (s *Service) SetApproval(ctx context.Context, id string, approved bool) (*domain.Profile, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetFlags(ctx, id, approved, p.IsBlocked); err != nil {
		return nil, err
	}
	p.IsApproved = approved
	return p, nil
}

// SetBlocked flips the block flag, preserving the approval flag.
func (s *Service) SetBlocked(ctx context.Context, id string, blocked bool) (*domain.Profile, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetFlags(ctx, id, p.IsApproved, blocked); err != nil {
		return nil, err
	}
	p.IsBlocked = blocked
	return p, nil
}

// SetRole changes a profile's role.
func (s *Service) SetRole(ctx context.Context, id string, role domain.Role) error {
	if !role.Valid() {
		return ErrInvalidRole
	}
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.repo.UpdateRole(ctx, id, role)
}

// IDByEmail resolves a rider email to a profile ID, "" when none exists.
// Satisfies the earnings import directory.
func (s *Service) IDByEmail(ctx context.Context, email string) (string, error) {
	p, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if p == nil {
		return "", nil
	}
	return p.ID, nil
}

func usernameFromEmail(email string) string {
	if at := strings.IndexByte(email, '@'); at > 0 {
		return email[:at]
	}
	return email
}
