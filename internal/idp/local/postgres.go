package local

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (r *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	const query = `
		SELECT id, email, password_hash, phone, full_name, created_at, updated_at
		FROM auth_users
		WHERE lower(email) = lower($1)
	`
	return r.scanUser(r.db.QueryRowContext(ctx, query, email))
}

func (r *PostgresStore) GetUserByID(ctx context.Context, id string) (*User, error) {
	const query = `
		SELECT id, email, password_hash, phone, full_name, created_at, updated_at
		FROM auth_users
		WHERE id = $1
	`
	return r.scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresStore) CreateUser(ctx context.Context, u *User) error {
	const query = `
		INSERT INTO auth_users (id, email, password_hash, phone, full_name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.ExecContext(ctx, query,
		u.ID, u.Email, u.PasswordHash, u.Phone, u.FullName, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert auth user: %w", err)
	}
	return nil
}

func (r *PostgresStore) UpdateUser(ctx context.Context, u *User) error {
	const query = `
		UPDATE auth_users
		SET email = $2, password_hash = $3, phone = $4, full_name = $5, updated_at = $6
		WHERE id = $1
	`
	_, err := r.db.ExecContext(ctx, query,
		u.ID, u.Email, u.PasswordHash, u.Phone, u.FullName, u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update auth user: %w", err)
	}
	return nil
}

func (r *PostgresStore) CreateSession(ctx context.Context, s *Session) error {
	const query = `
		INSERT INTO auth_sessions (id, user_id, token_hash, remember, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query,
		s.ID, s.UserID, s.TokenHash, s.Remember, s.ExpiresAt, s.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert auth session: %w", err)
	}
	return nil
}

func (r *PostgresStore) GetSession(ctx context.Context, id string) (*Session, error) {
	const query = `
		SELECT id, user_id, token_hash, remember, expires_at, revoked_at, created_at
		FROM auth_sessions
		WHERE id = $1
	`
	var (
		s       Session
		revoked sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&s.ID, &s.UserID, &s.TokenHash, &s.Remember, &s.ExpiresAt, &revoked, &s.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query auth session: %w", err)
	}
	if revoked.Valid {
		t := revoked.Time
		s.RevokedAt = &t
	}
	return &s, nil
}

func (r *PostgresStore) RevokeSession(ctx context.Context, id string) error {
	const query = `
		UPDATE auth_sessions
		SET revoked_at = $2
		WHERE id = $1 AND revoked_at IS NULL
	`
	_, err := r.db.ExecContext(ctx, query, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("revoke auth session: %w", err)
	}
	return nil
}

func (r *PostgresStore) scanUser(row *sql.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Phone, &u.FullName, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query auth user: %w", err)
	}
	return &u, nil
}
