package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	store, err := NewStorage(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func sampleRun(id string, createdAt time.Time) *AnalysisRun {
	return &AnalysisRun{
		ID:                  id,
		Source:              "Amex",
		CreatedAt:           createdAt,
		SimilarityThreshold: 70,
		MinOccurrences:      2,
		MaxGapDays:          35,
		AmountVariance:      0.1,
		TransactionCount:    6,
		GroupCount:          3,
		TotalMonthlyCost:    decimal.RequireFromString("34.98"),
		Charges: []RecurringCharge{
			{
				Merchant:    "Netflix #123",
				MonthlyCost: decimal.RequireFromString("19.99"),
				Occurrences: 2,
				FirstDate:   day(2024, 1, 15),
				LastDate:    day(2024, 2, 15),
				CancelLink:  "https://www.netflix.com/cancelplan",
				Transactions: []ChargeTransaction{
					{Date: day(2024, 1, 15), Merchant: "Netflix #123", Amount: decimal.RequireFromString("19.99")},
					{Date: day(2024, 2, 15), Merchant: "NETFLIX SUBSCRIPTION", Amount: decimal.RequireFromString("19.99")},
				},
			},
			{
				Merchant:    "Amazon Prime*123",
				MonthlyCost: decimal.RequireFromString("14.99"),
				Occurrences: 3,
				FirstDate:   day(2024, 1, 20),
				LastDate:    day(2024, 3, 20),
			},
		},
	}
}

func TestStorage_SaveAndGetRun(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()
	created := time.Date(2024, 4, 1, 12, 30, 0, 0, time.UTC)

	require.NoError(t, store.SaveRun(ctx, sampleRun("run-1", created)))

	got, err := store.GetRun(ctx, "run-1")
	require.NoError(t, err)

	assert.Equal(t, "Amex", got.Source)
	assert.True(t, created.Equal(got.CreatedAt))
	assert.Equal(t, 70, got.SimilarityThreshold)
	assert.Equal(t, 0.1, got.AmountVariance)
	assert.True(t, decimal.RequireFromString("34.98").Equal(got.TotalMonthlyCost))

	require.Len(t, got.Charges, 2)
	netflix := got.Charges[0]
	assert.Equal(t, "Netflix #123", netflix.Merchant)
	assert.True(t, decimal.RequireFromString("19.99").Equal(netflix.MonthlyCost))
	assert.Equal(t, day(2024, 1, 15), netflix.FirstDate)
	assert.Equal(t, day(2024, 2, 15), netflix.LastDate)
	assert.Equal(t, "https://www.netflix.com/cancelplan", netflix.CancelLink)
	require.Len(t, netflix.Transactions, 2)
	assert.Equal(t, "NETFLIX SUBSCRIPTION", netflix.Transactions[1].Merchant)
	assert.True(t, netflix.Transactions[1].Date.Equal(day(2024, 2, 15)))

	assert.Equal(t, "Amazon Prime*123", got.Charges[1].Merchant)
	assert.Empty(t, got.Charges[1].Transactions)
}

func TestStorage_SaveRunReplaces(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()
	run := sampleRun("run-1", time.Now())
	require.NoError(t, store.SaveRun(ctx, run))

	run.Charges = run.Charges[:1]
	run.TotalMonthlyCost = decimal.RequireFromString("19.99")
	require.NoError(t, store.SaveRun(ctx, run))

	got, err := store.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Len(t, got.Charges, 1)

	var charges int
	require.NoError(t, store.db.QueryRow("SELECT COUNT(*) FROM recurring_charges").Scan(&charges))
	assert.Equal(t, 1, charges)
}

func TestStorage_GetRunNotFound(t *testing.T) {
	store := newTestStorage(t)

	_, err := store.GetRun(context.Background(), "missing")

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStorage_ListRuns(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()
	base := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"a", "b", "c"} {
		run := sampleRun(id, base.Add(time.Duration(i)*time.Hour))
		if id == "c" {
			run.Source = "Chase"
		}
		require.NoError(t, store.SaveRun(ctx, run))
	}

	result, err := store.ListRuns(ctx, RunFilters{})
	require.NoError(t, err)
	assert.Equal(t, 3, result.TotalCount)
	assert.Equal(t, 50, result.Limit)
	require.Len(t, result.Runs, 3)
	assert.Equal(t, "c", result.Runs[0].ID, "newest first")
	assert.Empty(t, result.Runs[0].Charges)

	page, err := store.ListRuns(ctx, RunFilters{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page.Runs, 1)
	assert.Equal(t, "b", page.Runs[0].ID)

	amex, err := store.ListRuns(ctx, RunFilters{Source: "Amex"})
	require.NoError(t, err)
	assert.Equal(t, 2, amex.TotalCount)
}

func TestStorage_DeleteRunCascades(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()
	require.NoError(t, store.SaveRun(ctx, sampleRun("run-1", time.Now())))

	require.NoError(t, store.DeleteRun(ctx, "run-1"))

	var charges int
	require.NoError(t, store.db.QueryRow("SELECT COUNT(*) FROM recurring_charges").Scan(&charges))
	assert.Equal(t, 0, charges)
	assert.ErrorIs(t, store.DeleteRun(ctx, "run-1"), ErrNotFound)
}

func TestMigrations_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	store, err := NewStorage(path)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	store, err = NewStorage(path)
	require.NoError(t, err)
	defer store.Close()

	var version int
	require.NoError(t, store.db.QueryRow("SELECT MAX(version_id) FROM goose_db_version").Scan(&version))
	assert.Equal(t, 2, version)
}

func TestMockRepository(t *testing.T) {
	mock := NewMockRepository()
	ctx := context.Background()
	base := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, mock.SaveRun(ctx, sampleRun("old", base)))
	require.NoError(t, mock.SaveRun(ctx, sampleRun("new", base.Add(time.Hour))))
	assert.True(t, mock.SaveRunCalled)
	assert.Equal(t, "new", mock.LastSavedRun.ID)

	got, err := mock.GetRun(ctx, "old")
	require.NoError(t, err)
	assert.Len(t, got.Charges, 2)

	list, err := mock.ListRuns(ctx, RunFilters{Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, list.TotalCount)
	require.Len(t, list.Runs, 1)
	assert.Equal(t, "new", list.Runs[0].ID)

	require.NoError(t, mock.DeleteRun(ctx, "old"))
	_, err = mock.GetRun(ctx, "old")
	assert.ErrorIs(t, err, ErrNotFound)
}
