// Package service implements earnings use cases: per-rider history with
// totals, the admin view across riders, and bulk import keyed by rider email.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Sonu113077/rider-earnings-navigator/internal/earnings/domain"
	"github.com/Sonu113077/rider-earnings-navigator/internal/earnings/repository"
)

var (
	// ErrUnknownRider is returned when an import row names an email with no profile.
	ErrUnknownRider = errors.New("unknown rider email")
)

// RiderDirectory resolves rider emails to profile IDs for bulk import.
type RiderDirectory interface {
	// IDByEmail returns the profile ID for email, or "" when none exists.
	IDByEmail(ctx context.Context, email string) (string, error)
}

// ImportRow is one row of an admin bulk upload, keyed by rider email.
type ImportRow struct {
	Email  string    `json:"email"`
	Date   time.Time `json:"date"`
	Amount float64   `json:"amount"`
	Trips  int       `json:"trips"`
	Hours  float64   `json:"hours"`
}

type Service struct {
	repo   repository.Repository
	riders RiderDirectory
	logger *slog.Logger
	now    func() time.Time
}

func NewService(repo repository.Repository, riders RiderDirectory, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, riders: riders, logger: logger, now: time.Now}
}

// Record inserts one earning for a rider.
func (s *Service) Record(ctx context.Context, userID string, date time.Time, amount float64, trips int, hours float64) (*domain.Earning, error) {
	e := &domain.Earning{
		ID:        uuid.NewString(),
		UserID:    userID,
		Date:      dayOf(date),
		Amount:    amount,
		Trips:     trips,
		Hours:     hours,
		CreatedAt: s.now().UTC(),
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// History returns one rider's earnings in the range, newest first, with totals.
func (s *Service) History(ctx context.Context, userID string, from, to time.Time) ([]*domain.Earning, domain.Summary, error) {
	es, err := s.repo.ListByUser(ctx, userID, from, to)
	if err != nil {
		return nil, domain.Summary{}, err
	}
	return es, summarize(es), nil
}

// All returns earnings across riders for the admin surface, with totals.
func (s *Service) All(ctx context.Context, f repository.Filter) ([]*domain.RiderEarning, domain.Summary, error) {
	es, err := s.repo.ListAll(ctx, f)
	if err != nil {
		return nil, domain.Summary{}, err
	}
	plain := make([]*domain.Earning, len(es))
	for i := range es {
		plain[i] = &es[i].Earning
	}
	return es, summarize(plain), nil
}

// Import resolves each row's email to a rider and inserts the batch
// atomically. A single unknown email fails the whole import so a partial
// upload cannot slip in unnoticed.
func (s *Service) Import(ctx context.Context, rows []ImportRow) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	now := s.now().UTC()
	es := make([]*domain.Earning, 0, len(rows))
	for i, row := range rows {
		id, err := s.riders.IDByEmail(ctx, row.Email)
		if err != nil {
			return 0, fmt.Errorf("resolve rider %s: %w", row.Email, err)
		}
		if id == "" {
			return 0, fmt.Errorf("row %d (%s): %w", i+1, row.Email, ErrUnknownRider)
		}
		e := &domain.Earning{
			ID:        uuid.NewString(),
			UserID:    id,
			Date:      dayOf(row.Date),
			Amount:    row.Amount,
			Trips:     row.Trips,
			Hours:     row.Hours,
			CreatedAt: now,
		}
		if err := e.Validate(); err != nil {
			return 0, fmt.Errorf("row %d (%s): %w", i+1, row.Email, err)
		}
		es = append(es, e)
	}
	if err := s.repo.CreateBatch(ctx, es); err != nil {
		return 0, err
	}
	s.logger.Info("imported earnings", "rows", len(es))
	return len(es), nil
}

func summarize(es []*domain.Earning) domain.Summary {
	var sum domain.Summary
	sum.Days = len(es)
	for _, e := range es {
		sum.TotalAmount += e.Amount
		sum.TotalTrips += e.Trips
		sum.TotalHours += e.Hours
	}
	return sum
}

func dayOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
