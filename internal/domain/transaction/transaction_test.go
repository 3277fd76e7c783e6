package transaction

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tx, err := Parse("01/01/2024", " Test Merchant ", "$99.99")

	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), tx.Date)
	assert.Equal(t, "Test Merchant", tx.Merchant)
	assert.True(t, decimal.RequireFromString("99.99").Equal(tx.Amount))
}

func TestParseAmount_Cleaning(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"$1,234.56", "1234.56"},
		{"1234.56", "1234.56"},
		{"$0.99", "0.99"},
		{"1,000", "1000"},
		{" -12.50 ", "-12.5"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			amount, err := ParseAmount(tt.input)
			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tt.expected).Equal(amount), "got %s", amount)
		})
	}
}

func TestParse_NegativeAmountStoredAbsolute(t *testing.T) {
	tx, err := Parse("01/01/2024", "Refund", "-15.00")

	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(15).Equal(tx.Amount))
}

func TestParse_InvalidDate(t *testing.T) {
	_, err := Parse("2024/01/01", "Test", "$99.99")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid date format")
}

func TestParse_InvalidAmount(t *testing.T) {
	_, err := Parse("01/01/2024", "Test", "invalid")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid amount format")

	_, err = Parse("01/01/2024", "Test", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid amount format")
}

func TestParseDate_Layouts(t *testing.T) {
	want := time.Date(2025, 1, 16, 0, 0, 0, 0, time.UTC)

	for _, s := range []string{"01/16/2025", "01/16/25", "2025-01-16"} {
		got, err := ParseDate(s)
		require.NoError(t, err, s)
		assert.Equal(t, want, got, s)
	}
}

func TestDaysBetween(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("tzdata not available")
	}

	// Crosses the March DST change; calendar days must not be affected.
	a := time.Date(2024, 3, 1, 23, 30, 0, 0, ny)
	b := time.Date(2024, 4, 1, 0, 15, 0, 0, ny)

	assert.Equal(t, 31, DaysBetween(a, b))
	assert.Equal(t, -31, DaysBetween(b, a))
	assert.Equal(t, 0, DaysBetween(a, a))
}

func TestString(t *testing.T) {
	tx := New(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), "Test Merchant", decimal.RequireFromString("99.9"))
	tx.Description = "Test Description"

	assert.Equal(t, "01/01/2024 | Test Merchant | $99.90 - Test Description", tx.String())
}

func TestIsZero(t *testing.T) {
	assert.True(t, New(time.Now(), "x", decimal.Zero).IsZero())
	assert.False(t, New(time.Now(), "x", decimal.NewFromFloat(0.01)).IsZero())
}
