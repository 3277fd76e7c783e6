package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eshaffer321/recurring-finder/internal/application/service"
	"github.com/eshaffer321/recurring-finder/internal/domain/analysis"
	"github.com/eshaffer321/recurring-finder/internal/domain/transaction"
)

func day(month, d int) time.Time {
	return time.Date(2024, time.Month(month), d, 0, 0, 0, 0, time.UTC)
}

func TestPrintReport(t *testing.T) {
	svc := service.NewAnalysisService(analysis.DefaultConfig(), nil, nil, nil, nil)
	report, err := svc.Analyze(context.Background(), service.AnalyzeRequest{
		Transactions: []transaction.Transaction{
			transaction.New(day(1, 5), "Spotify USA", decimal.RequireFromString("10.99")),
			transaction.New(day(2, 5), "Spotify USA", decimal.RequireFromString("10.99")),
			transaction.New(day(3, 5), "Spotify USA", decimal.RequireFromString("10.99")),
		},
	})
	require.NoError(t, err)
	var out bytes.Buffer

	PrintReport(&out, report)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "Merchant"))
	assert.Contains(t, lines[1], "Spotify USA")
	assert.Contains(t, lines[1], "$10.99")
	assert.Contains(t, lines[1], "3")
	assert.Equal(t, strings.Repeat("-", 60), lines[2])
	assert.Equal(t, "Recurring charges: 1 | Total monthly cost: $10.99", lines[3])
}

func TestPrintReport_Empty(t *testing.T) {
	var out bytes.Buffer

	PrintReport(&out, &service.Report{})

	assert.Equal(t, "No recurring charges found.\n", out.String())
}

func TestPrintHeader(t *testing.T) {
	var out bytes.Buffer

	PrintHeader(&out, []string{"amex.csv", "chase.csv"}, 12)

	assert.Equal(t, "find-recurring: 12 transactions from amex.csv, chase.csv\n\n", out.String())
}
