package repository

import (
	"context"

	"github.com/Sonu113077/rider-earnings-navigator/internal/profile/domain"
)

// Repository is the profile persistence contract.
// Get methods return (nil, nil) when the row does not exist; errors are
// reserved for database failures.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Profile, error)
	GetByEmail(ctx context.Context, email string) (*domain.Profile, error)
	Create(ctx context.Context, p *domain.Profile) error
	Update(ctx context.Context, p *domain.Profile) error
	UpdateRole(ctx context.Context, id string, role domain.Role) error
	SetFlags(ctx context.Context, id string, approved, blocked bool) error
	List(ctx context.Context, limit, offset int32) ([]*domain.Profile, error)
}
