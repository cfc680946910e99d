package repository

import (
	"context"

	"github.com/foodfellow/gatekeeper/internal/model"
)

// RecordRepository is the append-only store of login-attempt records plus
// the blacklist set. Records are inserted and bulk-deleted, never updated;
// recency filtering is the caller's job.
type RecordRepository interface {
	// Append inserts one attempt record.
	Append(ctx context.Context, rec *model.IPRecord) error
	// QueryFailures returns all failure records for address, unordered.
	QueryFailures(ctx context.Context, address string) ([]model.IPRecord, error)
	// ListFailures returns all failure records across addresses, unordered.
	ListFailures(ctx context.Context) ([]model.IPRecord, error)
	// BulkDelete removes the records with the given IDs.
	BulkDelete(ctx context.Context, ids []string) error

	// IsBlacklisted reports whether address is in the blacklist set.
	IsBlacklisted(ctx context.Context, address string) (bool, error)
	// Blacklist adds address to the blacklist set; idempotent.
	Blacklist(ctx context.Context, address string) error
}
