package postgres

import (
	"context"

	"github.com/foodfellow/gatekeeper/internal/model"
)

// RecordRepo implements RecordRepository using PostgreSQL.
type RecordRepo struct{ db *DB }

// NewRecordRepo constructs a login-record repository.
func NewRecordRepo(db *DB) *RecordRepo { return &RecordRepo{db: db} }

// Append inserts one attempt record.
func (r *RecordRepo) Append(ctx context.Context, rec *model.IPRecord) error {
	const q = `
INSERT INTO ip_history (id, address, is_failure, recorded_at)
VALUES ($1, $2, $3, $4)`
	_, err := r.db.Pool.Exec(ctx, q, rec.ID, rec.Address, rec.IsFailure, rec.RecordedAt)
	return err
}

// QueryFailures returns all failure records for one address.
func (r *RecordRepo) QueryFailures(ctx context.Context, address string) ([]model.IPRecord, error) {
	const q = `
SELECT id, address, is_failure, recorded_at
FROM ip_history WHERE address=$1 AND is_failure`
	rows, err := r.db.Pool.Query(ctx, q, address)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.IPRecord
	for rows.Next() {
		var rec model.IPRecord
		if err := rows.Scan(&rec.ID, &rec.Address, &rec.IsFailure, &rec.RecordedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// ListFailures returns all failure records across addresses.
func (r *RecordRepo) ListFailures(ctx context.Context) ([]model.IPRecord, error) {
	const q = `
SELECT id, address, is_failure, recorded_at
FROM ip_history WHERE is_failure`
	rows, err := r.db.Pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.IPRecord
	for rows.Next() {
		var rec model.IPRecord
		if err := rows.Scan(&rec.ID, &rec.Address, &rec.IsFailure, &rec.RecordedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// BulkDelete removes records by ID.
func (r *RecordRepo) BulkDelete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	const q = `DELETE FROM ip_history WHERE id = ANY($1)`
	_, err := r.db.Pool.Exec(ctx, q, ids)
	return err
}

// IsBlacklisted checks membership in the blacklist set.
func (r *RecordRepo) IsBlacklisted(ctx context.Context, address string) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM ip_blacklist WHERE address=$1)`
	var listed bool
	if err := r.db.Pool.QueryRow(ctx, q, address).Scan(&listed); err != nil {
		return false, err
	}
	return listed, nil
}

// Blacklist inserts address into the blacklist; duplicate inserts are no-ops.
func (r *RecordRepo) Blacklist(ctx context.Context, address string) error {
	const q = `INSERT INTO ip_blacklist (address) VALUES ($1) ON CONFLICT (address) DO NOTHING`
	_, err := r.db.Pool.Exec(ctx, q, address)
	return err
}
