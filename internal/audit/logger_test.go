package audit

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/Sonu113077/rider-earnings-navigator/internal/audit/domain"
)

type memRepo struct {
	mu      sync.Mutex
	entries []*domain.Entry
	fail    bool
}

func (m *memRepo) Create(_ context.Context, e *domain.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("db down")
	}
	cp := *e
	m.entries = append(m.entries, &cp)
	return nil
}

func (m *memRepo) ListRecent(_ context.Context, limit int) ([]*domain.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.Entry, 0, limit)
	for i := len(m.entries) - 1; i >= 0 && len(out) < limit; i-- {
		cp := *m.entries[i]
		out = append(out, &cp)
	}
	return out, nil
}

func TestRecordPersistsEntry(t *testing.T) {
	repo := &memRepo{}
	l := NewLogger(repo, nil)

	l.Record(context.Background(), "admin-1", "admin@example.com", "user.block", "rider-9", "blocked by admin")

	if len(repo.entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(repo.entries))
	}
	e := repo.entries[0]
	if e.Action != "user.block" || e.Target != "rider-9" || e.ActorEmail != "admin@example.com" {
		t.Fatalf("unexpected entry %+v", e)
	}
	if e.CreatedAt.IsZero() {
		t.Fatal("created_at not set")
	}
}

func TestRecordIsBestEffort(t *testing.T) {
	l := NewLogger(&memRepo{fail: true}, nil)
	l.Record(context.Background(), "a", "a@example.com", "user.approve", "b", "")
}

func TestNilRepositoryDisablesRecording(t *testing.T) {
	l := NewLogger(nil, nil)
	l.Record(context.Background(), "a", "a@example.com", "user.approve", "b", "")
}
