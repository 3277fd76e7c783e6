package dto

import "time"

// HealthResponse is returned by the health check endpoint.
type HealthResponse struct {
	Status    string `json:"status"`
	Storage   string `json:"storage"`
	Timestamp string `json:"timestamp"`
}

// NewHealthResponse creates a health response with current timestamp.
func NewHealthResponse() HealthResponse {
	return HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// TransactionResponse represents a statement line in API responses.
// Dates are YYYY-MM-DD; amounts are fixed to two decimals.
type TransactionResponse struct {
	Date     string `json:"date"`
	Merchant string `json:"merchant"`
	Amount   string `json:"amount"`
	Source   string `json:"source,omitempty"`
}

// ConfigResponse echoes the engine parameters a result was computed with.
type ConfigResponse struct {
	SimilarityThreshold int     `json:"similarity_threshold"`
	MinOccurrences      int     `json:"min_occurrences"`
	MaxGapDays          int     `json:"max_gap_days"`
	AmountVariance      float64 `json:"amount_variance"`
}

// GroupResponse represents one merchant group.
type GroupResponse struct {
	Name         string                `json:"name"`
	Key          string                `json:"key"`
	Transactions []TransactionResponse `json:"transactions"`
}

// GroupListResponse is returned by POST /api/group.
type GroupListResponse struct {
	Groups           []GroupResponse `json:"groups"`
	Count            int             `json:"count"`
	TransactionCount int             `json:"transaction_count"`
}

// SubscriptionResponse represents a detected recurring charge.
type SubscriptionResponse struct {
	Merchant     string                `json:"merchant"`
	MonthlyCost  string                `json:"monthly_cost"`
	Occurrences  int                   `json:"occurrences"`
	FirstDate    string                `json:"first_date"`
	LastDate     string                `json:"last_date"`
	CancelLink   string                `json:"cancel_link,omitempty"`
	Transactions []TransactionResponse `json:"transactions"`
}

// RecurringResponse is returned by POST /api/recurring.
type RecurringResponse struct {
	Recurring        []SubscriptionResponse `json:"recurring"`
	Count            int                    `json:"count"`
	TotalMonthlyCost string                 `json:"total_monthly_cost"`
}

// AnalyzeResponse is returned by POST /api/analyze.
type AnalyzeResponse struct {
	RunID            string                 `json:"run_id"`
	Source           string                 `json:"source,omitempty"`
	CreatedAt        string                 `json:"created_at"`
	Config           ConfigResponse         `json:"config"`
	TransactionCount int                    `json:"transaction_count"`
	GroupCount       int                    `json:"group_count"`
	Recurring        []SubscriptionResponse `json:"recurring"`
	TotalMonthlyCost string                 `json:"total_monthly_cost"`
}

// RunResponse represents a persisted analysis run.
type RunResponse struct {
	ID               string                 `json:"id"`
	Source           string                 `json:"source,omitempty"`
	CreatedAt        string                 `json:"created_at"`
	Config           ConfigResponse         `json:"config"`
	TransactionCount int                    `json:"transaction_count"`
	GroupCount       int                    `json:"group_count"`
	TotalMonthlyCost string                 `json:"total_monthly_cost"`
	Recurring        []SubscriptionResponse `json:"recurring,omitempty"`
}

// RunListResponse is returned when listing runs.
type RunListResponse struct {
	Runs       []RunResponse `json:"runs"`
	TotalCount int           `json:"total_count"`
	Limit      int           `json:"limit"`
	Offset     int           `json:"offset"`
}
