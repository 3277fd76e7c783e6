package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/eshaffer321/recurring-finder/internal/domain/analysis"
	"github.com/eshaffer321/recurring-finder/internal/domain/grouper"
	"github.com/eshaffer321/recurring-finder/internal/domain/recurrence"
	"github.com/eshaffer321/recurring-finder/internal/domain/transaction"
	"github.com/eshaffer321/recurring-finder/internal/infrastructure/storage"
	"github.com/eshaffer321/recurring-finder/internal/observability"
)

type stubLinks map[string]string

func (s stubLinks) Resolve(merchant string) string { return s[merchant] }

// MockLinkResolver records which merchants were looked up.
type MockLinkResolver struct {
	mock.Mock
}

func (m *MockLinkResolver) Resolve(merchant string) string {
	args := m.Called(merchant)
	return args.String(0)
}

func makeTransaction(merchant, amount, date string) transaction.Transaction {
	d, err := time.Parse("01/02/2006", date)
	if err != nil {
		panic(err)
	}
	return transaction.New(d, merchant, decimal.RequireFromString(amount))
}

func scenario() []transaction.Transaction {
	return []transaction.Transaction{
		makeTransaction("Netflix #123", "19.99", "01/15/2024"),
		makeTransaction("NETFLIX SUBSCRIPTION", "19.99", "02/15/2024"),
		makeTransaction("Amazon Prime*123", "14.99", "01/20/2024"),
		makeTransaction("Amazon Prime Mem", "14.99", "02/20/2024"),
		makeTransaction("AMZN Prime", "14.99", "03/20/2024"),
		makeTransaction("Grocery Store", "52.47", "01/25/2024"),
	}
}

func newService(store storage.Repository, metrics *observability.Metrics) *AnalysisService {
	links := stubLinks{"Netflix #123": "https://www.netflix.com/cancelplan"}
	return NewAnalysisService(analysis.DefaultConfig(), store, links, metrics, nil)
}

func TestAnalysisService_Analyze(t *testing.T) {
	repo := storage.NewMockRepository()
	metrics := observability.NewMetrics()
	svc := newService(repo, metrics)

	report, err := svc.Analyze(context.Background(), AnalyzeRequest{Source: "Amex", Transactions: scenario()})

	require.NoError(t, err)
	_, err = uuid.Parse(report.RunID)
	assert.NoError(t, err)
	assert.Equal(t, "Amex", report.Source)
	assert.Equal(t, 6, report.TransactionCount)
	assert.Equal(t, 3, report.Groups.Len())
	assert.Equal(t, analysis.DefaultConfig(), report.Config)
	assert.True(t, decimal.RequireFromString("34.98").Equal(report.TotalMonthlyCost))

	require.Len(t, report.Subscriptions, 2)
	assert.Equal(t, "Netflix #123", report.Subscriptions[0].Merchant)
	assert.Equal(t, "https://www.netflix.com/cancelplan", report.Subscriptions[0].CancelLink)
	assert.Equal(t, "Amazon Prime*123", report.Subscriptions[1].Merchant)
	assert.Empty(t, report.Subscriptions[1].CancelLink)

	require.True(t, repo.SaveRunCalled)
	saved := repo.LastSavedRun
	assert.Equal(t, report.RunID, saved.ID)
	assert.Equal(t, 3, saved.GroupCount)
	require.Len(t, saved.Charges, 2)
	assert.Equal(t, 3, saved.Charges[1].Occurrences)
	assert.Equal(t, time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC), saved.Charges[1].LastDate)

	assert.Equal(t, 34.98, gaugeValue(t, metrics, "recurring_last_monthly_cost_dollars"))
}

func gaugeValue(t *testing.T, m *observability.Metrics, name string) float64 {
	t.Helper()
	families, err := m.Registry.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() == name {
			return f.GetMetric()[0].GetGauge().GetValue()
		}
	}
	t.Fatalf("metric %s not registered", name)
	return 0
}

func TestAnalysisService_Analyze_RequestConfigOverridesDefaults(t *testing.T) {
	svc := newService(nil, nil)
	cfg := analysis.DefaultConfig()
	cfg.MinOccurrences = 3

	report, err := svc.Analyze(context.Background(), AnalyzeRequest{Transactions: scenario(), Config: &cfg})

	require.NoError(t, err)
	require.Len(t, report.Subscriptions, 1)
	assert.Equal(t, "Amazon Prime*123", report.Subscriptions[0].Merchant)
}

func TestAnalysisService_Analyze_InvalidInput(t *testing.T) {
	svc := newService(nil, nil)

	t.Run("config", func(t *testing.T) {
		cfg := analysis.DefaultConfig()
		cfg.AmountVariance = 1.5
		_, err := svc.Analyze(context.Background(), AnalyzeRequest{Transactions: scenario(), Config: &cfg})
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("negative amount", func(t *testing.T) {
		records := []transaction.Transaction{makeTransaction("Refund", "-5.00", "01/01/2024")}
		_, err := svc.Analyze(context.Background(), AnalyzeRequest{Transactions: records})
		assert.ErrorIs(t, err, ErrInvalidTransaction)
	})

	t.Run("canceled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := svc.Analyze(ctx, AnalyzeRequest{Transactions: scenario()})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestAnalysisService_Analyze_SaveError(t *testing.T) {
	repo := storage.NewMockRepository()
	repo.SaveRunErr = errors.New("disk full")
	svc := newService(repo, observability.NewMetrics())

	_, err := svc.Analyze(context.Background(), AnalyzeRequest{Transactions: scenario()})

	assert.ErrorContains(t, err, "disk full")
}

func TestAnalysisService_Group(t *testing.T) {
	svc := newService(nil, nil)

	groups, err := svc.Group(scenario(), 70)
	require.NoError(t, err)
	assert.Equal(t, []string{"Netflix #123", "Amazon Prime*123", "Grocery Store"}, groups.Names())

	_, err = svc.Group(scenario(), 101)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestAnalysisService_FindRecurring(t *testing.T) {
	svc := newService(nil, nil)
	groups := grouper.NewGroups()
	groups.Add(grouper.NewGroup("Netflix #123",
		makeTransaction("Netflix #123", "19.99", "01/15/2024"),
		makeTransaction("Netflix #123", "19.99", "02/15/2024"),
	))

	subs, err := svc.FindRecurring(groups, recurrence.DefaultConfig())
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "https://www.netflix.com/cancelplan", subs[0].CancelLink)

	bad := recurrence.DefaultConfig()
	bad.MinOccurrences = 1
	_, err = svc.FindRecurring(groups, bad)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestAnalysisService_Runs(t *testing.T) {
	ctx := context.Background()

	t.Run("without storage", func(t *testing.T) {
		svc := newService(nil, nil)
		_, err := svc.ListRuns(ctx, storage.RunFilters{})
		assert.ErrorIs(t, err, ErrNoStorage)
		_, err = svc.GetRun(ctx, "x")
		assert.ErrorIs(t, err, ErrNoStorage)
		assert.ErrorIs(t, svc.DeleteRun(ctx, "x"), ErrNoStorage)
	})

	t.Run("with storage", func(t *testing.T) {
		svc := newService(storage.NewMockRepository(), nil)
		report, err := svc.Analyze(ctx, AnalyzeRequest{Transactions: scenario()})
		require.NoError(t, err)

		runs, err := svc.ListRuns(ctx, storage.RunFilters{})
		require.NoError(t, err)
		assert.Equal(t, 1, runs.TotalCount)

		run, err := svc.GetRun(ctx, report.RunID)
		require.NoError(t, err)
		assert.Len(t, run.Charges, 2)

		require.NoError(t, svc.DeleteRun(ctx, report.RunID))
		_, err = svc.GetRun(ctx, report.RunID)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}

func TestAnalysisService_Analyze_ResolvesLinksOncePerSubscription(t *testing.T) {
	// Arrange
	links := new(MockLinkResolver)
	links.On("Resolve", "Netflix #123").Return("https://www.netflix.com/cancelplan").Once()
	links.On("Resolve", "Amazon Prime*123").Return("").Once()
	svc := NewAnalysisService(analysis.DefaultConfig(), nil, links, nil, nil)

	// Act
	report, err := svc.Analyze(context.Background(), AnalyzeRequest{Transactions: scenario()})

	// Assert
	require.NoError(t, err)
	links.AssertExpectations(t)
	links.AssertNotCalled(t, "Resolve", "Grocery Store")
	assert.Equal(t, "https://www.netflix.com/cancelplan", report.Subscriptions[0].CancelLink)
}
