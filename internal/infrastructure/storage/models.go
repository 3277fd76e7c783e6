package storage

import (
	"time"

	"github.com/shopspring/decimal"
)

// AnalysisRun is one persisted analysis with its detected charges.
type AnalysisRun struct {
	ID                  string          `json:"id"`
	Source              string          `json:"source"`
	CreatedAt           time.Time       `json:"created_at"`
	SimilarityThreshold int             `json:"similarity_threshold"`
	MinOccurrences      int             `json:"min_occurrences"`
	MaxGapDays          int             `json:"max_gap_days"`
	AmountVariance      float64         `json:"amount_variance"`
	TransactionCount    int             `json:"transaction_count"`
	GroupCount          int             `json:"group_count"`
	TotalMonthlyCost    decimal.Decimal `json:"total_monthly_cost"`

	// Charges is empty in list results.
	Charges []RecurringCharge `json:"charges,omitempty"`
}

// RecurringCharge is one detected subscription within a run.
type RecurringCharge struct {
	Merchant     string              `json:"merchant"`
	MonthlyCost  decimal.Decimal     `json:"monthly_cost"`
	Occurrences  int                 `json:"occurrences"`
	FirstDate    time.Time           `json:"first_date"`
	LastDate     time.Time           `json:"last_date"`
	CancelLink   string              `json:"cancel_link,omitempty"`
	Transactions []ChargeTransaction `json:"transactions"`
}

// ChargeTransaction is a statement line that belongs to a charge.
type ChargeTransaction struct {
	Date     time.Time       `json:"date"`
	Merchant string          `json:"merchant"`
	Amount   decimal.Decimal `json:"amount"`
	Source   string          `json:"source,omitempty"`
}

// RunFilters pages through runs, newest first.
type RunFilters struct {
	Source string // empty = all
	Limit  int    // 0 = default 50
	Offset int
}

// RunListResult contains paginated run results
type RunListResult struct {
	Runs       []*AnalysisRun `json:"runs"`
	TotalCount int            `json:"total_count"`
	Limit      int            `json:"limit"`
	Offset     int            `json:"offset"`
}

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

func (f RunFilters) normalized() RunFilters {
	if f.Limit <= 0 {
		f.Limit = defaultListLimit
	}
	if f.Limit > maxListLimit {
		f.Limit = maxListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}
