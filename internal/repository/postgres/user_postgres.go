package postgres

import (
	"context"
	"database/sql"
	"time"

	"gatewayapi/internal/model"
	"gatewayapi/internal/repository"
)

// UserPostgres is a PostgreSQL implementation of repository.UserRepository.
type UserPostgres struct {
	db *sql.DB
}

// NewUserPostgres creates a new UserPostgres repository.
func NewUserPostgres(db *sql.DB) *UserPostgres {
	return &UserPostgres{db: db}
}

var _ repository.UserRepository = (*UserPostgres)(nil)

const userColumns = `id, email, display_name, password_hash, created_at, last_login_at`

func scanUser(s scanner) (*model.User, error) {
	var u model.User
	if err := s.Scan(
		&u.ID,
		&u.Email,
		&u.DisplayName,
		&u.PasswordHash,
		&u.CreatedAt,
		&u.LastLoginAt,
	); err != nil {
		return nil, mapError(err)
	}
	return &u, nil
}

// Create inserts a user row. A duplicate email yields repository.ErrConflict.
func (r *UserPostgres) Create(ctx context.Context, u *model.User) (*model.User, error) {
	const q = `
		INSERT INTO users (id, email, display_name, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + userColumns
	row := r.db.QueryRowContext(ctx, q,
		u.ID,
		u.Email,
		u.DisplayName,
		u.PasswordHash,
		u.CreatedAt,
	)
	return scanUser(row)
}

// FindByEmail fetches a user by email, ignoring case. The predicate matches
// the idx_users_email expression index.
func (r *UserPostgres) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1)`
	return scanUser(r.db.QueryRowContext(ctx, q, email))
}

// FindByID fetches a user by ID.
func (r *UserPostgres) FindByID(ctx context.Context, id string) (*model.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRowContext(ctx, q, id))
}

// TouchLastLogin records a successful login.
func (r *UserPostgres) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	const q = `UPDATE users SET last_login_at = $1 WHERE id = $2`
	res, err := r.db.ExecContext(ctx, q, at, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}
