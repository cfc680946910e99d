package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid/v5"

	"github.com/foodfellow/gatekeeper/internal/model"
	"github.com/foodfellow/gatekeeper/internal/repository"
)

// ReviewService exposes the minimal review operations the gatekeeper
// surface needs; the full review domain lives in a sibling service.
type ReviewService interface {
	// Create stores a new review authored by the given user.
	Create(ctx context.Context, author, body string) (*model.Review, error)
	// Get returns a review by ID.
	Get(ctx context.Context, id uuid.UUID) (*model.Review, error)
}

type ReviewServiceImpl struct {
	reviews repository.ReviewRepository
	maxBody int
}

// NewReviewService constructs ReviewService with a body size limit.
func NewReviewService(reviews repository.ReviewRepository, maxBody int) *ReviewServiceImpl {
	if maxBody <= 0 {
		maxBody = 10000
	}
	return &ReviewServiceImpl{reviews: reviews, maxBody: maxBody}
}

// Create validates input and inserts the review.
func (s *ReviewServiceImpl) Create(ctx context.Context, author, body string) (*model.Review, error) {
	if author == "" {
		return nil, errors.New("validation: empty author")
	}
	if body == "" {
		return nil, errors.New("validation: empty body")
	}
	if len(body) > s.maxBody {
		return nil, fmt.Errorf("validation: body too large (%d > %d)", len(body), s.maxBody)
	}
	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	rev := &model.Review{ID: id, Author: author, Body: body}
	if err := s.reviews.Create(ctx, rev); err != nil {
		return nil, err
	}
	return rev, nil
}

// Get fetches a single review by ID.
func (s *ReviewServiceImpl) Get(ctx context.Context, id uuid.UUID) (*model.Review, error) {
	if id == uuid.Nil {
		return nil, errors.New("validation: empty id")
	}
	return s.reviews.Get(ctx, id)
}
