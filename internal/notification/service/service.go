// Package service persists user-facing notices and satisfies the auth
// controller's Notifier. Writes are best-effort: a down notifications table
// never blocks login or logout.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Sonu113077/rider-earnings-navigator/internal/notification/domain"
	"github.com/Sonu113077/rider-earnings-navigator/internal/notification/repository"
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

// Success records a success notice for userID. Notices without a user are
// logged only; there is nowhere durable to put them.
func (s *Service) Success(ctx context.Context, userID, message string) {
	s.notify(ctx, userID, domain.LevelSuccess, message)
}

// Error records an error notice for userID.
func (s *Service) Error(ctx context.Context, userID, message string) {
	s.notify(ctx, userID, domain.LevelError, message)
}

// Notify records a notice with an explicit title, e.g. admin announcements.
func (s *Service) Notify(ctx context.Context, userID, title, message string) error {
	n := &domain.Notification{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     title,
		Body:      message,
		CreatedAt: s.now().UTC(),
	}
	return s.repo.Create(ctx, n)
}

// List returns the user's notifications, newest first.
func (s *Service) List(ctx context.Context, userID string, limit int) ([]*domain.Notification, error) {
	return s.repo.ListByUser(ctx, userID, limit)
}

// MarkRead marks one of the user's notifications as read.
func (s *Service) MarkRead(ctx context.Context, userID, id string) error {
	return s.repo.MarkRead(ctx, userID, id)
}

// UnreadCount returns how many of the user's notifications are unread.
func (s *Service) UnreadCount(ctx context.Context, userID string) (int, error) {
	return s.repo.CountUnread(ctx, userID)
}

func (s *Service) notify(ctx context.Context, userID string, level domain.Level, message string) {
	s.logger.Info("notice", "level", level, "user_id", userID, "message", message)
	if userID == "" {
		return
	}
	if err := s.Notify(ctx, userID, titleFor(level), message); err != nil {
		s.logger.Warn("failed to persist notice", "user_id", userID, "err", err)
	}
}

func titleFor(level domain.Level) string {
	switch level {
	case domain.LevelSuccess:
		return "Success"
	case domain.LevelError:
		return "Something went wrong"
	default:
		return "Notice"
	}
}
