// Package transaction defines the Transaction record consumed by the
// recurrence engine and the helpers ingestion adapters use to build one.
//
// A Transaction is a value: the engine copies it into groups and clusters
// and never modifies it. Amounts are always stored as absolute values;
// deciding whether a statement line is a charge or a credit is the
// ingestion adapter's job.
package transaction

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DisplayDateLayout is the layout used when a transaction is printed.
const DisplayDateLayout = "01/02/2006"

// dateLayouts are tried in order by ParseDate.
var dateLayouts = []string{
	"01/02/2006",
	"01/02/06",
	"2006-01-02",
}

// Transaction is a single charge extracted from a statement.
type Transaction struct {
	Date        time.Time
	Merchant    string
	Amount      decimal.Decimal
	Description string // optional free text from the statement
	Source      string // statement or card the record came from
}

// New builds a transaction for the given calendar day. The time of day and
// location of date are discarded.
func New(date time.Time, merchant string, amount decimal.Decimal) Transaction {
	return Transaction{
		Date:     Day(date),
		Merchant: merchant,
		Amount:   amount,
	}
}

// Parse builds a transaction from raw statement strings.
// The amount may carry a currency symbol and thousands separators; its sign
// is dropped.
func Parse(dateStr, merchant, amountStr string) (Transaction, error) {
	date, err := ParseDate(dateStr)
	if err != nil {
		return Transaction{}, err
	}

	amount, err := ParseAmount(amountStr)
	if err != nil {
		return Transaction{}, err
	}

	return New(date, strings.TrimSpace(merchant), amount.Abs()), nil
}

// ParseDate parses MM/DD/YYYY, MM/DD/YY or YYYY-MM-DD.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date format: %q (expected MM/DD/YYYY)", s)
}

// ParseAmount parses an amount such as "$1,234.56" or "-12.00".
func ParseAmount(s string) (decimal.Decimal, error) {
	if strings.TrimSpace(s) == "" {
		return decimal.Zero, fmt.Errorf("invalid amount format: amount cannot be empty")
	}

	clean := strings.NewReplacer("$", "", ",", "", " ", "").Replace(strings.TrimSpace(s))
	amount, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount format: %q: %w", s, err)
	}
	return amount, nil
}

// Day truncates t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of calendar days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(Day(b).Sub(Day(a)).Hours() / 24)
}

// IsZero reports whether the transaction carries a zero amount.
func (t Transaction) IsZero() bool {
	return t.Amount.IsZero()
}

// String renders the transaction as "MM/DD/YYYY | Merchant | $12.34".
func (t Transaction) String() string {
	desc := ""
	if t.Description != "" {
		desc = " - " + t.Description
	}
	return fmt.Sprintf("%s | %s | $%s%s", t.Date.Format(DisplayDateLayout), t.Merchant, t.Amount.StringFixed(2), desc)
}
