// Package audit records who changed what on the admin surface.
package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/Sonu113077/rider-earnings-navigator/internal/audit/domain"
	auditrepo "github.com/Sonu113077/rider-earnings-navigator/internal/audit/repository"
)

// Recorder writes a single audit entry. Recording is best-effort: failures are
// logged and do not affect the caller.
type Recorder interface {
	Record(ctx context.Context, actorID, actorEmail, action, target, detail string)
}

// Logger implements Recorder using the audit repository.
type Logger struct {
	repo   auditrepo.Repository
	logger *slog.Logger
	now    func() time.Time
}

// NewLogger returns a Recorder that persists to repo. repo may be nil, which
// disables recording.
func NewLogger(repo auditrepo.Repository, logger *slog.Logger) *Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Logger{repo: repo, logger: logger, now: time.Now}
}

// Record writes one audit entry. Best-effort: errors are logged and not returned.
func (l *Logger) Record(ctx context.Context, actorID, actorEmail, action, target, detail string) {
	if l.repo == nil {
		return
	}
	entry := &domain.Entry{
		ActorID:    actorID,
		ActorEmail: actorEmail,
		Action:     action,
		Target:     target,
		Detail:     detail,
		CreatedAt:  l.now().UTC(),
	}
	if err := l.repo.Create(ctx, entry); err != nil {
		l.logger.Warn("failed to record audit entry", "action", action, "target", target, "err", err)
	}
}
