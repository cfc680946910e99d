// Package guard suppresses brute-force login attempts by counting failures
// per origin address over a trailing window and blacklisting past a threshold.
package guard

import (
	"context"
	"time"

	"github.com/foodfellow/gatekeeper/internal/clock"
	"github.com/foodfellow/gatekeeper/internal/ids"
	"github.com/foodfellow/gatekeeper/internal/model"
	"github.com/foodfellow/gatekeeper/internal/repository"
)

// Defaults for the production guard.
const (
	DefaultWindow      = time.Hour
	DefaultMaxFailures = 5
)

// Guard tracks failed logins per origin address. An address moves from
// clean to flagged to blacklisted and never back; nothing here removes a
// blacklist entry.
type Guard interface {
	// IsBlacklisted reports whether address has been blacklisted.
	IsBlacklisted(ctx context.Context, address string) (bool, error)
	// RecordFailure appends one failure record for address at the current time.
	RecordFailure(ctx context.Context, address string) error
	// CountRecentFailures counts failures younger than the window.
	CountRecentFailures(ctx context.Context, address string) (int, error)
	// Blacklist adds address to the blacklist; idempotent.
	Blacklist(ctx context.Context, address string) error
	// Prune deletes failure records that have aged out of the window.
	Prune(ctx context.Context) (int, error)
}

// RecordGuard is a Guard over an append-only record store. Failure counting
// filters by recency in memory, so the store needs no time predicates.
type RecordGuard struct {
	records repository.RecordRepository
	clk     clock.Clock
	window  time.Duration
}

// New constructs a record-backed guard.
func New(records repository.RecordRepository, clk clock.Clock, window time.Duration) *RecordGuard {
	if window <= 0 {
		window = DefaultWindow
	}
	return &RecordGuard{records: records, clk: clk, window: window}
}

// IsBlacklisted checks the blacklist set.
func (g *RecordGuard) IsBlacklisted(ctx context.Context, address string) (bool, error) {
	return g.records.IsBlacklisted(ctx, address)
}

// RecordFailure appends a failure record stamped with the guard's clock.
func (g *RecordGuard) RecordFailure(ctx context.Context, address string) error {
	return g.records.Append(ctx, &model.IPRecord{
		ID:         ids.New(),
		Address:    address,
		IsFailure:  true,
		RecordedAt: g.clk.Now(),
	})
}

// CountRecentFailures counts failure records strictly younger than the
// window. A record aged exactly one window is not recent.
func (g *RecordGuard) CountRecentFailures(ctx context.Context, address string) (int, error) {
	recs, err := g.records.QueryFailures(ctx, address)
	if err != nil {
		return 0, err
	}
	now := g.clk.Now()
	count := 0
	for _, rec := range recs {
		if now.Sub(rec.RecordedAt) < g.window {
			count++
		}
	}
	return count, nil
}

// Blacklist adds address to the blacklist set.
func (g *RecordGuard) Blacklist(ctx context.Context, address string) error {
	return g.records.Blacklist(ctx, address)
}

// Prune deletes every failure record aged one window or more and returns
// how many were removed. Housekeeping only; invoked by an external
// scheduler, never by the login path.
func (g *RecordGuard) Prune(ctx context.Context) (int, error) {
	recs, err := g.records.ListFailures(ctx)
	if err != nil {
		return 0, err
	}
	now := g.clk.Now()
	var stale []string
	for _, rec := range recs {
		if now.Sub(rec.RecordedAt) >= g.window {
			stale = append(stale, rec.ID)
		}
	}
	if len(stale) == 0 {
		return 0, nil
	}
	if err := g.records.BulkDelete(ctx, stale); err != nil {
		return 0, err
	}
	return len(stale), nil
}
