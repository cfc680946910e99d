package postgres

import (
	"context"
	"errors"

	"github.com/foodfellow/gatekeeper/internal/errs"
	"github.com/foodfellow/gatekeeper/internal/model"
	"github.com/jackc/pgx/v5"
)

// UserRepo implements UserRepository using PostgreSQL.
type UserRepo struct{ db *DB }

// NewUserRepo constructs a user repository.
func NewUserRepo(db *DB) *UserRepo { return &UserRepo{db: db} }

// Exists checks for a stored credential by username.
func (r *UserRepo) Exists(ctx context.Context, username string) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM users WHERE username=$1)`
	var exists bool
	if err := r.db.Pool.QueryRow(ctx, q, username).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// Get selects a credential by username.
func (r *UserRepo) Get(ctx context.Context, username string) (*model.Credential, error) {
	const q = `
SELECT username, password_hash, password_salt, created_at
FROM users WHERE username=$1`
	row := r.db.Pool.QueryRow(ctx, q, username)
	var c model.Credential
	if err := row.Scan(&c.Username, &c.PasswordHash, &c.PasswordSalt, &c.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// Insert stores a new credential row.
func (r *UserRepo) Insert(ctx context.Context, c *model.Credential) error {
	const q = `
INSERT INTO users (username, password_hash, password_salt)
VALUES ($1, $2, $3)`
	_, err := r.db.Pool.Exec(ctx, q, c.Username, c.PasswordHash, c.PasswordSalt)
	if isUniqueViolation(err) {
		return errs.ErrAlreadyExists
	}
	return err
}
