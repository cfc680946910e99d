package postgres

import (
	"context"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"github.com/foodfellow/gatekeeper/internal/model"
)

func TestRecordRepo_Append(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewRecordRepo(db)
	ctx := context.Background()

	rec := &model.IPRecord{
		ID:         "01HZX0000000000000000000000",
		Address:    "10.0.0.1",
		IsFailure:  true,
		RecordedAt: time.Now(),
	}
	mock.ExpectExec(`INSERT INTO ip_history \(id, address, is_failure, recorded_at\)`).
		WithArgs(rec.ID, rec.Address, rec.IsFailure, rec.RecordedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	require.NoError(t, r.Append(ctx, rec))
}

func TestRecordRepo_QueryFailures(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewRecordRepo(db)
	ctx := context.Background()
	now := time.Now()

	mock.ExpectQuery(`FROM ip_history WHERE address=\$1 AND is_failure`).
		WithArgs("10.0.0.1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "address", "is_failure", "recorded_at"}).
			AddRow("id1", "10.0.0.1", true, now).
			AddRow("id2", "10.0.0.1", true, now.Add(-time.Minute)))
	recs, err := r.QueryFailures(ctx, "10.0.0.1")
	require.NoError(t, err)
	require.Len(t, recs, 2)
	require.Equal(t, "id1", recs[0].ID)
	require.True(t, recs[1].IsFailure)
}

func TestRecordRepo_BulkDelete(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewRecordRepo(db)
	ctx := context.Background()

	ids := []string{"id1", "id2"}
	mock.ExpectExec(`DELETE FROM ip_history WHERE id = ANY\(\$1\)`).
		WithArgs(ids).
		WillReturnResult(pgxmock.NewResult("DELETE", 2))
	require.NoError(t, r.BulkDelete(ctx, ids))

	// empty id list skips the round trip entirely
	require.NoError(t, r.BulkDelete(ctx, nil))
}

func TestRecordRepo_Blacklist(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewRecordRepo(db)
	ctx := context.Background()

	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM ip_blacklist WHERE address=\$1\)`).
		WithArgs("10.0.0.1").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
	listed, err := r.IsBlacklisted(ctx, "10.0.0.1")
	require.NoError(t, err)
	require.False(t, listed)

	mock.ExpectExec(`INSERT INTO ip_blacklist \(address\) VALUES \(\$1\) ON CONFLICT \(address\) DO NOTHING`).
		WithArgs("10.0.0.1").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	require.NoError(t, r.Blacklist(ctx, "10.0.0.1"))

	// duplicate insert is a no-op, not an error
	mock.ExpectExec(`INSERT INTO ip_blacklist \(address\) VALUES \(\$1\) ON CONFLICT \(address\) DO NOTHING`).
		WithArgs("10.0.0.1").
		WillReturnResult(pgxmock.NewResult("INSERT", 0))
	require.NoError(t, r.Blacklist(ctx, "10.0.0.1"))

	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM ip_blacklist WHERE address=\$1\)`).
		WithArgs("10.0.0.1").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
	listed, err = r.IsBlacklisted(ctx, "10.0.0.1")
	require.NoError(t, err)
	require.True(t, listed)
}
