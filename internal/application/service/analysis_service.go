// Package service runs analyses on behalf of the CLI and the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/eshaffer321/recurring-finder/internal/domain/analysis"
	"github.com/eshaffer321/recurring-finder/internal/domain/grouper"
	"github.com/eshaffer321/recurring-finder/internal/domain/recurrence"
	"github.com/eshaffer321/recurring-finder/internal/domain/transaction"
	"github.com/eshaffer321/recurring-finder/internal/infrastructure/storage"
	"github.com/eshaffer321/recurring-finder/internal/observability"
)

var (
	// ErrInvalidConfig wraps engine parameters that fail validation.
	ErrInvalidConfig = errors.New("invalid analysis config")
	// ErrInvalidTransaction wraps input records the engine cannot accept.
	ErrInvalidTransaction = errors.New("invalid transaction")
	// ErrNoStorage is returned by run queries when no repository is configured.
	ErrNoStorage = errors.New("run storage is not configured")
)

// LinkResolver finds a cancellation link for a merchant.
type LinkResolver interface {
	Resolve(merchant string) string
}

// AnalyzeRequest holds one analysis input.
type AnalyzeRequest struct {
	Source       string
	Transactions []transaction.Transaction
	Config       *analysis.Config // nil uses the service defaults
}

// Subscription is a detected recurring charge with its cancellation link.
type Subscription struct {
	*recurrence.Record
	CancelLink string
}

// Report is the outcome of Analyze.
type Report struct {
	RunID            string
	Source           string
	CreatedAt        time.Time
	Config           analysis.Config
	TransactionCount int
	Groups           *grouper.Groups
	Subscriptions    []Subscription // group creation order
	TotalMonthlyCost decimal.Decimal
}

// AnalysisService wires the engine to links, metrics and storage.
// Every dependency except the defaults is optional.
type AnalysisService struct {
	defaults analysis.Config
	storage  storage.Repository
	links    LinkResolver
	metrics  *observability.Metrics
	logger   *slog.Logger
	now      func() time.Time
}

// NewAnalysisService creates a new analysis service.
func NewAnalysisService(
	defaults analysis.Config,
	store storage.Repository,
	links LinkResolver,
	metrics *observability.Metrics,
	logger *slog.Logger,
) *AnalysisService {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &AnalysisService{
		defaults: defaults,
		storage:  store,
		links:    links,
		metrics:  metrics,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Defaults returns the config used when a request carries none.
func (s *AnalysisService) Defaults() analysis.Config {
	return s.defaults
}

// Analyze groups the request's transactions, detects recurring charges,
// resolves their cancellation links and persists the run when storage is
// configured. Invalid input is reported as an error instead of reaching the
// engine.
func (s *AnalysisService) Analyze(ctx context.Context, req AnalyzeRequest) (*Report, error) {
	cfg := s.defaults
	if req.Config != nil {
		cfg = *req.Config
	}

	report, err := s.analyze(ctx, req, cfg)
	if err != nil {
		if s.metrics != nil {
			s.metrics.IncrAnalysisError()
		}
		return nil, err
	}
	return report, nil
}

func (s *AnalysisService) analyze(ctx context.Context, req AnalyzeRequest, cfg analysis.Config) (*Report, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := validateTransactions(req.Transactions); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	result := analysis.Analyze(req.Transactions, cfg, s.logger)
	s.observe("analyze", start)

	report := &Report{
		RunID:            uuid.NewString(),
		Source:           req.Source,
		CreatedAt:        s.now(),
		Config:           cfg,
		TransactionCount: len(req.Transactions),
		Groups:           result.Groups,
		Subscriptions:    s.withLinks(result.Recurring),
		TotalMonthlyCost: result.Recurring.TotalMonthlyCost(),
	}

	s.logger.Info("analysis complete",
		"run_id", report.RunID,
		"source", report.Source,
		"transactions", report.TransactionCount,
		"groups", result.Groups.Len(),
		"recurring", len(report.Subscriptions),
		"monthly_total", report.TotalMonthlyCost.StringFixed(2),
	)

	if s.storage != nil {
		if err := s.storage.SaveRun(ctx, toRun(report)); err != nil {
			return nil, fmt.Errorf("save run: %w", err)
		}
	}

	if s.metrics != nil {
		total, _ := report.TotalMonthlyCost.Float64()
		s.metrics.RecordAnalysis(report.TransactionCount, len(report.Subscriptions), total)
	}
	return report, nil
}

// Group partitions transactions by merchant at threshold.
func (s *AnalysisService) Group(records []transaction.Transaction, threshold int) (*grouper.Groups, error) {
	if threshold < 0 || threshold > 100 {
		return nil, fmt.Errorf("%w: similarity threshold must be within 0..100, got %d", ErrInvalidConfig, threshold)
	}

	start := time.Now()
	groups := analysis.GroupTransactions(records, threshold, s.logger)
	s.observe("group", start)
	return groups, nil
}

// FindRecurring detects recurring charges in groups the caller already built.
func (s *AnalysisService) FindRecurring(groups *grouper.Groups, cfg recurrence.Config) ([]Subscription, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if groups != nil {
		for _, g := range groups.List() {
			if err := validateTransactions(g.Members); err != nil {
				return nil, fmt.Errorf("group %q: %w", g.Name, err)
			}
		}
	}

	start := time.Now()
	records := analysis.FindRecurring(groups, cfg, s.logger)
	s.observe("find_recurring", start)
	return s.withLinks(records), nil
}

// ListRuns returns persisted runs, newest first.
func (s *AnalysisService) ListRuns(ctx context.Context, filters storage.RunFilters) (*storage.RunListResult, error) {
	if s.storage == nil {
		return nil, ErrNoStorage
	}
	return s.storage.ListRuns(ctx, filters)
}

// GetRun returns one persisted run with its charges.
func (s *AnalysisService) GetRun(ctx context.Context, id string) (*storage.AnalysisRun, error) {
	if s.storage == nil {
		return nil, ErrNoStorage
	}
	return s.storage.GetRun(ctx, id)
}

// DeleteRun removes a persisted run.
func (s *AnalysisService) DeleteRun(ctx context.Context, id string) error {
	if s.storage == nil {
		return ErrNoStorage
	}
	return s.storage.DeleteRun(ctx, id)
}

func (s *AnalysisService) withLinks(records *recurrence.Records) []Subscription {
	list := records.List()
	subs := make([]Subscription, 0, len(list))
	for _, r := range list {
		sub := Subscription{Record: r}
		if s.links != nil {
			sub.CancelLink = s.links.Resolve(r.Merchant)
		}
		subs = append(subs, sub)
	}
	return subs
}

func (s *AnalysisService) observe(operation string, start time.Time) {
	if s.metrics != nil {
		s.metrics.RecordDuration(operation, time.Since(start))
	}
}

func validateTransactions(records []transaction.Transaction) error {
	for i, r := range records {
		if r.Amount.IsNegative() {
			return fmt.Errorf("%w: record %d (%s) has negative amount %s", ErrInvalidTransaction, i, r.Merchant, r.Amount)
		}
		if r.Date.IsZero() {
			return fmt.Errorf("%w: record %d (%s) has no date", ErrInvalidTransaction, i, r.Merchant)
		}
	}
	return nil
}

func toRun(r *Report) *storage.AnalysisRun {
	run := &storage.AnalysisRun{
		ID:                  r.RunID,
		Source:              r.Source,
		CreatedAt:           r.CreatedAt,
		SimilarityThreshold: r.Config.SimilarityThreshold,
		MinOccurrences:      r.Config.MinOccurrences,
		MaxGapDays:          r.Config.MaxGapDays,
		AmountVariance:      r.Config.AmountVariance,
		TransactionCount:    r.TransactionCount,
		GroupCount:          r.Groups.Len(),
		TotalMonthlyCost:    r.TotalMonthlyCost,
	}
	for _, sub := range r.Subscriptions {
		charge := storage.RecurringCharge{
			Merchant:    sub.Merchant,
			MonthlyCost: sub.MonthlyCost,
			Occurrences: len(sub.Transactions),
			FirstDate:   sub.FirstDate(),
			LastDate:    sub.LastDate(),
			CancelLink:  sub.CancelLink,
		}
		for _, tx := range sub.Transactions {
			charge.Transactions = append(charge.Transactions, storage.ChargeTransaction{
				Date:     tx.Date,
				Merchant: tx.Merchant,
				Amount:   tx.Amount,
				Source:   tx.Source,
			})
		}
		run.Charges = append(run.Charges, charge)
	}
	return run
}
