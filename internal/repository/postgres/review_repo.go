package postgres

import (
	"context"
	"errors"

	"github.com/foodfellow/gatekeeper/internal/errs"
	"github.com/foodfellow/gatekeeper/internal/model"
	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
)

// ReviewRepo implements ReviewRepository using PostgreSQL.
type ReviewRepo struct{ db *DB }

// NewReviewRepo constructs a review repository.
func NewReviewRepo(db *DB) *ReviewRepo { return &ReviewRepo{db: db} }

// Create inserts a new review row.
func (r *ReviewRepo) Create(ctx context.Context, rev *model.Review) error {
	const q = `
INSERT INTO reviews (id, author, body)
VALUES ($1, $2, $3)`
	_, err := r.db.Pool.Exec(ctx, q, rev.ID, rev.Author, rev.Body)
	if isUniqueViolation(err) {
		return errs.ErrAlreadyExists
	}
	return err
}

// Get selects a review by ID.
func (r *ReviewRepo) Get(ctx context.Context, id uuid.UUID) (*model.Review, error) {
	const q = `
SELECT id, author, body, created_at
FROM reviews WHERE id=$1`
	row := r.db.Pool.QueryRow(ctx, q, id)
	var rev model.Review
	if err := row.Scan(&rev.ID, &rev.Author, &rev.Body, &rev.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &rev, nil
}

// Exists checks for a review by ID.
func (r *ReviewRepo) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM reviews WHERE id=$1)`
	var exists bool
	if err := r.db.Pool.QueryRow(ctx, q, id).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// Delete removes a review row.
func (r *ReviewRepo) Delete(ctx context.Context, id uuid.UUID) error {
	const q = `DELETE FROM reviews WHERE id=$1`
	tag, err := r.db.Pool.Exec(ctx, q, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}
