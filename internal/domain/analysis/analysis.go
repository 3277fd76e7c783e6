// Package analysis is the entry point to the recurrence engine.
//
// It wires the normalizer, grouper, clusterer and detector together behind
// one explicit Config. Every call is synchronous, performs no I/O and owns
// all of its intermediate state, so concurrent calls are safe as long as
// each call gets its own input slice.
//
// Grouping depends on a single ordered pass over all records. Callers that
// read several statements in parallel must merge the records into one
// slice before calling GroupTransactions; grouping each statement on its
// own and merging the groups afterwards gives different results.
//
// Example usage:
//
//	cfg := analysis.DefaultConfig()
//	result := analysis.Analyze(transactions, cfg, logger)
//	for _, r := range result.Recurring.List() {
//		fmt.Printf("%s: $%s/month\n", r.Merchant, r.MonthlyCost.StringFixed(2))
//	}
package analysis

import (
	"fmt"
	"log/slog"

	"github.com/eshaffer321/recurring-finder/internal/domain/clusterer"
	"github.com/eshaffer321/recurring-finder/internal/domain/grouper"
	"github.com/eshaffer321/recurring-finder/internal/domain/normalizer"
	"github.com/eshaffer321/recurring-finder/internal/domain/recurrence"
	"github.com/eshaffer321/recurring-finder/internal/domain/transaction"
)

// Config holds every tunable of the engine.
type Config struct {
	SimilarityThreshold int     // Default: 70 (0-100)
	MinOccurrences      int     // Default: 2
	MaxGapDays          int     // Default: 35
	AmountVariance      float64 // Default: 0.10
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	rc := recurrence.DefaultConfig()
	return Config{
		SimilarityThreshold: grouper.DefaultThreshold,
		MinOccurrences:      rc.MinOccurrences,
		MaxGapDays:          rc.MaxGapDays,
		AmountVariance:      clusterer.DefaultVariance,
	}
}

// Validate reports parameters the engine cannot work with.
func (c Config) Validate() error {
	if c.SimilarityThreshold < 0 || c.SimilarityThreshold > 100 {
		return fmt.Errorf("similarity threshold must be within 0..100, got %d", c.SimilarityThreshold)
	}
	return c.Recurrence().Validate()
}

// Recurrence returns the detector part of the config.
func (c Config) Recurrence() recurrence.Config {
	return recurrence.Config{
		MinOccurrences: c.MinOccurrences,
		MaxGapDays:     c.MaxGapDays,
		AmountVariance: c.AmountVariance,
	}
}

// Result is the outcome of one analysis.
type Result struct {
	Groups    *grouper.Groups
	Recurring *recurrence.Records
}

// NormalizeMerchant returns the canonical comparison key for raw merchant text.
func NormalizeMerchant(raw string) string {
	return normalizer.Normalize(raw)
}

// GroupTransactions partitions records into merchant groups.
func GroupTransactions(records []transaction.Transaction, threshold int, logger *slog.Logger) *grouper.Groups {
	return grouper.NewGrouper(threshold, logger).Group(records)
}

// FindRecurring returns the surfaced recurrence record per merchant.
func FindRecurring(groups *grouper.Groups, cfg recurrence.Config, logger *slog.Logger) *recurrence.Records {
	return recurrence.FindRecurring(groups, cfg, logger)
}

// Analyze groups records and detects recurring charges in one call.
// An invalid cfg panics; validate user-supplied values with Config.Validate
// first.
func Analyze(records []transaction.Transaction, cfg Config, logger *slog.Logger) *Result {
	if err := cfg.Validate(); err != nil {
		panic("analysis: " + err.Error())
	}

	groups := GroupTransactions(records, cfg.SimilarityThreshold, logger)
	return &Result{
		Groups:    groups,
		Recurring: FindRecurring(groups, cfg.Recurrence(), logger),
	}
}
