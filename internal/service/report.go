package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid/v5"

	"github.com/foodfellow/gatekeeper/internal/capability"
	"github.com/foodfellow/gatekeeper/internal/errs"
	"github.com/foodfellow/gatekeeper/internal/mail"
	"github.com/foodfellow/gatekeeper/internal/repository"
)

// RemovalPayload identifies the review a removal link authorizes deleting.
// It carries no expiry; the token stays valid as long as the review exists.
type RemovalPayload struct {
	ReviewID string `json:"review_id"`
}

const reportSubject = "Food-Fellow Review Report"

// ReportService defines the flagged-content workflows: submitting a report
// and consuming the removal link it produces.
type ReportService interface {
	// Report mails the moderator a removal link for the flagged review.
	// Returns false if the review does not exist or the mail was refused.
	Report(ctx context.Context, reviewID uuid.UUID, reporter string) (bool, error)
	// Respond consumes a removal token, deleting the referenced review.
	// Returns false for an invalid token or an already-removed review.
	Respond(ctx context.Context, token string) (bool, error)
}

type ReportServiceImpl struct {
	reviews    repository.ReviewRepository
	codec      *capability.Codec
	sender     mail.Sender
	adminEmail string
	baseURL    string
}

// NewReportService constructs ReportService with required dependencies.
// The codec instance is shared with the access service; removal and
// activation tokens are sealed under the same process key.
func NewReportService(
	reviews repository.ReviewRepository,
	codec *capability.Codec,
	sender mail.Sender,
	adminEmail, baseURL string,
) *ReportServiceImpl {
	return &ReportServiceImpl{
		reviews:    reviews,
		codec:      codec,
		sender:     sender,
		adminEmail: adminEmail,
		baseURL:    baseURL,
	}
}

// Report validates the flagged review still exists, then mails the
// moderator a link embedding the removal token.
func (s *ReportServiceImpl) Report(ctx context.Context, reviewID uuid.UUID, reporter string) (bool, error) {
	exists, err := s.reviews.Exists(ctx, reviewID)
	if err != nil {
		return false, fmt.Errorf("existence check: %w", err)
	}
	if !exists {
		return false, nil
	}

	token, err := s.codec.Encode(RemovalPayload{ReviewID: reviewID.String()})
	if err != nil {
		return false, fmt.Errorf("encode removal token: %w", err)
	}

	link := fmt.Sprintf("%s/api/reports/respond?key=%s", s.baseURL, token)
	body := fmt.Sprintf("User: %s\nReview: %s\nRemoval Link: %s", reporter, reviewID, link)
	if err := s.sender.Send(ctx, s.adminEmail, reportSubject, body); err != nil {
		return false, fmt.Errorf("send report mail: %w", err)
	}
	return true, nil
}

// Respond consumes a removal token: decrypt, re-validate the review still
// exists, then delete it. A token whose review is already gone is rejected,
// not an error, so approving the same link twice is a safe no-op.
func (s *ReportServiceImpl) Respond(ctx context.Context, token string) (bool, error) {
	var p RemovalPayload
	if err := s.codec.Decode(token, &p); err != nil {
		return false, nil
	}
	id, err := uuid.FromString(p.ReviewID)
	if err != nil {
		return false, nil
	}

	err = s.reviews.Delete(ctx, id)
	if errors.Is(err, errs.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("delete review: %w", err)
	}
	return true, nil
}
