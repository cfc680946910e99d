package repository

import (
	"context"

	"github.com/foodfellow/gatekeeper/internal/model"
	"github.com/gofrs/uuid/v5"
)

// ReviewRepository provides the narrow review access the removal workflow
// needs. Search, ratings and bookmarks live in a sibling service.
type ReviewRepository interface {
	// Create inserts a new review.
	Create(ctx context.Context, r *model.Review) error
	// Get loads a review by ID; errs.ErrNotFound if absent.
	Get(ctx context.Context, id uuid.UUID) (*model.Review, error)
	// Exists reports whether a review with the given ID is stored.
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	// Delete removes a review; errs.ErrNotFound if already gone.
	Delete(ctx context.Context, id uuid.UUID) error
}
