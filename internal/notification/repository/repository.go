package repository

import (
	"context"

	"github.com/Sonu113077/rider-earnings-navigator/internal/notification/domain"
)

// Repository is the persistence contract for notifications.
type Repository interface {
	Create(ctx context.Context, n *domain.Notification) error
	// ListByUser returns a user's notifications, newest first, capped at limit
	// (no cap when limit <= 0).
	ListByUser(ctx context.Context, userID string, limit int) ([]*domain.Notification, error)
	// MarkRead marks one notification as read. Marking an unknown or foreign
	// notification is a no-op.
	MarkRead(ctx context.Context, userID, id string) error
	CountUnread(ctx context.Context, userID string) (int, error)
}
