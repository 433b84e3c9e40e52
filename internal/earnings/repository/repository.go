package repository

import (
	"context"
	"time"

	"github.com/Sonu113077/rider-earnings-navigator/internal/earnings/domain"
)

// Filter narrows earnings queries. Zero-value fields are ignored.
type Filter struct {
	UserID string
	From   time.Time
	To     time.Time
}

// Repository is the persistence contract for earnings.
type Repository interface {
	Create(ctx context.Context, e *domain.Earning) error
	// CreateBatch inserts a batch atomically; either all rows land or none do.
	CreateBatch(ctx context.Context, es []*domain.Earning) error
	// ListByUser returns one user's earnings, newest first.
	ListByUser(ctx context.Context, userID string, from, to time.Time) ([]*domain.Earning, error)
	// ListAll returns earnings across riders with rider fields joined in,
	// newest first. For the admin surface.
	ListAll(ctx context.Context, f Filter) ([]*domain.RiderEarning, error)
}
