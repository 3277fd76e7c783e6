package dto

import "github.com/shopspring/decimal"

// TransactionRequest is one statement line in a request body.
// Date accepts MM/DD/YYYY, MM/DD/YY or YYYY-MM-DD. Amount may be a JSON
// number or string and must not be negative.
type TransactionRequest struct {
	Date        string          `json:"date"`
	Merchant    string          `json:"merchant"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description,omitempty"`
	Source      string          `json:"source,omitempty"`
}

// ConfigRequest overrides individual engine parameters. Omitted fields keep
// the server defaults.
type ConfigRequest struct {
	SimilarityThreshold *int     `json:"similarity_threshold,omitempty"`
	MinOccurrences      *int     `json:"min_occurrences,omitempty"`
	MaxGapDays          *int     `json:"max_gap_days,omitempty"`
	AmountVariance      *float64 `json:"amount_variance,omitempty"`
}

// GroupRequest is the body of POST /api/group.
type GroupRequest struct {
	Transactions        []TransactionRequest `json:"transactions"`
	SimilarityThreshold *int                 `json:"similarity_threshold,omitempty"`
}

// AnalyzeRequest is the body of POST /api/analyze.
type AnalyzeRequest struct {
	Source       string               `json:"source,omitempty"`
	Transactions []TransactionRequest `json:"transactions"`
	Config       *ConfigRequest       `json:"config,omitempty"`
}

// GroupInput is a caller-built merchant group.
type GroupInput struct {
	Name         string               `json:"name"`
	Transactions []TransactionRequest `json:"transactions"`
}

// RecurringRequest is the body of POST /api/recurring.
type RecurringRequest struct {
	Groups []GroupInput   `json:"groups"`
	Config *ConfigRequest `json:"config,omitempty"`
}

// RunListParams represents query parameters for listing runs.
type RunListParams struct {
	Source string `json:"source"`
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
}

// DefaultRunListParams returns default values for run list params.
func DefaultRunListParams() RunListParams {
	return RunListParams{Limit: 20}
}
