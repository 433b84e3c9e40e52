package repository

import (
	"context"

	"github.com/Sonu113077/rider-earnings-navigator/internal/audit/domain"
)

// Repository is the persistence contract for audit entries.
type Repository interface {
	Create(ctx context.Context, e *domain.Entry) error
	// ListRecent returns the newest entries, capped at limit.
	ListRecent(ctx context.Context, limit int) ([]*domain.Entry, error)
}
