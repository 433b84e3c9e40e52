package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/Sonu113077/rider-earnings-navigator/internal/earnings/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, e *domain.Earning) error {
	const query = `
		INSERT INTO earnings (id, user_id, date, amount, trips, hours, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.ExecContext(ctx, query,
		e.ID, e.UserID, e.Date, e.Amount, e.Trips, e.Hours, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert earning: %w", err)
	}
	return nil
}

func (r *PostgresRepository) CreateBatch(ctx context.Context, es []*domain.Earning) error {
	if len(es) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch insert: %w", err)
	}
	defer tx.Rollback()

	const query = `
		INSERT INTO earnings (id, user_id, date, amount, trips, hours, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	for _, e := range es {
		if _, err := tx.ExecContext(ctx, query,
			e.ID, e.UserID, e.Date, e.Amount, e.Trips, e.Hours, e.CreatedAt); err != nil {
			return fmt.Errorf("insert earning for %s on %s: %w", e.UserID, e.Date.Format("2006-01-02"), err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch insert: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string, from, to time.Time) ([]*domain.Earning, error) {
	query := `
		SELECT id, user_id, date, amount, trips, hours, created_at
		FROM earnings
		WHERE user_id = $1
	`
	args := []interface{}{userID}
	if !from.IsZero() {
		args = append(args, from)
		query += fmt.Sprintf(" AND date >= $%d", len(args))
	}
	if !to.IsZero() {
		args = append(args, to)
		query += fmt.Sprintf(" AND date <= $%d", len(args))
	}
	query += " ORDER BY date DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query earnings: %w", err)
	}
	defer rows.Close()

	var out []*domain.Earning
	for rows.Next() {
		var e domain.Earning
		if err := rows.Scan(&e.ID, &e.UserID, &e.Date, &e.Amount, &e.Trips, &e.Hours, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan earning: %w", err)
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) ListAll(ctx context.Context, f Filter) ([]*domain.RiderEarning, error) {
	query := `
		SELECT e.id, e.user_id, e.date, e.amount, e.trips, e.hours, e.created_at,
		       COALESCE(p.full_name, ''), COALESCE(p.email, '')
		FROM earnings e
		LEFT JOIN profiles p ON p.id = e.user_id
	`
	var (
		conds []string
		args  []interface{}
	)
	if f.UserID != "" {
		args = append(args, f.UserID)
		conds = append(conds, fmt.Sprintf("e.user_id = $%d", len(args)))
	}
	if !f.From.IsZero() {
		args = append(args, f.From)
		conds = append(conds, fmt.Sprintf("e.date >= $%d", len(args)))
	}
	if !f.To.IsZero() {
		args = append(args, f.To)
		conds = append(conds, fmt.Sprintf("e.date <= $%d", len(args)))
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY e.date DESC, p.full_name ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query rider earnings: %w", err)
	}
	defer rows.Close()

	var out []*domain.RiderEarning
	for rows.Next() {
		var e domain.RiderEarning
		if err := rows.Scan(&e.ID, &e.UserID, &e.Date, &e.Amount, &e.Trips, &e.Hours, &e.CreatedAt,
			&e.RiderName, &e.RiderEmail); err != nil {
			return nil, fmt.Errorf("scan rider earning: %w", err)
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}
