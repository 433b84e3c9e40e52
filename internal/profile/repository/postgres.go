package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Sonu113077/rider-earnings-navigator/internal/profile/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a profile repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const profileColumns = `id, username, full_name, email, mobile, role, is_approved, is_blocked, created_at, updated_at`

// GetByID returns the profile for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Profile, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = $1`, id)
	return scanProfile(row)
}

// GetByEmail returns the profile with the given email, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*domain.Profile, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM profiles WHERE email = $1`, email)
	return scanProfile(row)
}

// Create persists the profile. The profile must have ID set; it is not assigned by this method.
func (r *PostgresRepository) Create(ctx context.Context, p *domain.Profile) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO profiles (id, username, full_name, email, mobile, role, is_approved, is_blocked, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		p.ID, p.Username, p.FullName, p.Email, p.Mobile, string(p.Role), p.IsApproved, p.IsBlocked, p.CreatedAt, p.UpdatedAt,
	)
	return err
}

// Update updates the existing profile row. Missing rows are not an error.
func (r *PostgresRepository) Update(ctx context.Context, p *domain.Profile) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE profiles
		SET username = $2, full_name = $3, email = $4, mobile = $5, role = $6, is_approved = $7, is_blocked = $8, updated_at = $9
		WHERE id = $1`,
		p.ID, p.Username, p.FullName, p.Email, p.Mobile, string(p.Role), p.IsApproved, p.IsBlocked, time.Now().UTC(),
	)
	return err
}

// UpdateRole sets only the role column. Used by the resolver's allow-list
// correction write; missing rows are not an error.
func (r *PostgresRepository) UpdateRole(ctx context.Context, id string, role domain.Role) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE profiles SET role = $2, updated_at = $3 WHERE id = $1`,
		id, string(role), time.Now().UTC(),
	)
	return err
}

// SetFlags sets the approval and blocked flags. Used by the admin surface.
func (r *PostgresRepository) SetFlags(ctx context.Context, id string, approved, blocked bool) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE profiles SET is_approved = $2, is_blocked = $3, updated_at = $4 WHERE id = $1`,
		id, approved, blocked, time.Now().UTC(),
	)
	return err
}

// List returns profiles ordered by creation time, paginated by limit and offset.
func (r *PostgresRepository) List(ctx context.Context, limit, offset int32) ([]*domain.Profile, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+profileColumns+` FROM profiles ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (*domain.Profile, error) {
	var p domain.Profile
	var role string
	err := row.Scan(&p.ID, &p.Username, &p.FullName, &p.Email, &p.Mobile, &role, &p.IsApproved, &p.IsBlocked, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	p.Role = domain.Role(role)
	return &p, nil
}
