// Package recurrence decides which amount clusters are subscriptions and
// estimates their monthly cost.
//
// A cluster is recurring when it has at least MinOccurrences members, at
// least MinOccurrences-1 gaps between consecutive charges that are each no
// longer than MaxGapDays, and at least one non-zero amount. Gaps longer than
// the window are dropped from the gap list rather than failing the cluster,
// so a subscription with one missed month still qualifies if enough regular
// gaps remain.
//
// Example usage:
//
//	cfg := recurrence.DefaultConfig()
//	records := recurrence.FindRecurring(groups, cfg, logger)
//	for _, r := range records.List() {
//		fmt.Println(r.Merchant, r.MonthlyCost)
//	}
package recurrence

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/eshaffer321/recurring-finder/internal/domain/clusterer"
	"github.com/eshaffer321/recurring-finder/internal/domain/grouper"
	"github.com/eshaffer321/recurring-finder/internal/domain/transaction"
)

// Config holds detector configuration
type Config struct {
	MinOccurrences int     // Default: 2
	MaxGapDays     int     // Default: 35
	AmountVariance float64 // Default: 0.10 (10%)
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		MinOccurrences: 2,
		MaxGapDays:     35,
		AmountVariance: clusterer.DefaultVariance,
	}
}

// Validate reports parameters the detector cannot work with.
func (c Config) Validate() error {
	if c.MinOccurrences < 2 {
		return fmt.Errorf("min occurrences must be at least 2, got %d", c.MinOccurrences)
	}
	if c.MaxGapDays < 1 {
		return fmt.Errorf("max gap days must be positive, got %d", c.MaxGapDays)
	}
	if c.AmountVariance < 0 || c.AmountVariance > 1 {
		return fmt.Errorf("amount variance must be within 0..1, got %v", c.AmountVariance)
	}
	return nil
}

// Record states that a cluster is a subscription.
type Record struct {
	Merchant     string
	Transactions []transaction.Transaction // chronological
	MonthlyCost  decimal.Decimal
}

// FirstDate returns the date of the earliest charge.
func (r *Record) FirstDate() time.Time {
	if len(r.Transactions) == 0 {
		return time.Time{}
	}
	return r.Transactions[0].Date
}

// LastDate returns the date of the latest charge.
func (r *Record) LastDate() time.Time {
	if len(r.Transactions) == 0 {
		return time.Time{}
	}
	return r.Transactions[len(r.Transactions)-1].Date
}

// Detect tests every cluster and returns one entry per cluster, in cluster
// order. A nil entry means the cluster is not recurring.
//
// An invalid cfg is a programming error and panics.
func Detect(merchant string, clusters []*clusterer.Cluster, cfg Config) []*Record {
	if err := cfg.Validate(); err != nil {
		panic("recurrence: " + err.Error())
	}

	out := make([]*Record, len(clusters))
	for i, c := range clusters {
		out[i] = detectCluster(merchant, c, cfg)
	}
	return out
}

func detectCluster(merchant string, c *clusterer.Cluster, cfg Config) *Record {
	if c == nil || len(c.Members) < cfg.MinOccurrences {
		return nil
	}

	gaps := Gaps(c.Members, cfg.MaxGapDays)
	if len(gaps) == 0 || len(gaps) < cfg.MinOccurrences-1 {
		return nil
	}
	if maxInt(gaps) > cfg.MaxGapDays {
		return nil
	}

	cost, ok := MeanAmount(c.Members)
	if !ok {
		return nil
	}

	return &Record{
		Merchant:     merchant,
		Transactions: append([]transaction.Transaction(nil), c.Members...),
		MonthlyCost:  cost,
	}
}

// Gaps returns the day gaps between consecutive members that are no longer
// than maxGapDays. Members must already be in date order.
func Gaps(members []transaction.Transaction, maxGapDays int) []int {
	var gaps []int
	for i := 1; i < len(members); i++ {
		days := transaction.DaysBetween(members[i-1].Date, members[i].Date)
		if days <= maxGapDays {
			gaps = append(gaps, days)
		}
	}
	return gaps
}

// MeanAmount averages the non-zero amounts. ok is false when there are none.
func MeanAmount(members []transaction.Transaction) (decimal.Decimal, bool) {
	sum := decimal.Zero
	n := 0
	for _, m := range members {
		if m.IsZero() {
			continue
		}
		sum = sum.Add(m.Amount)
		n++
	}
	if n == 0 {
		return decimal.Zero, false
	}
	return sum.Div(decimal.NewFromInt(int64(n))), true
}

// FindRecurring clusters every group and keeps, per merchant, the first
// qualifying cluster in cluster-creation order. Later qualifying clusters for
// the same merchant are computed and logged but not surfaced. A nil logger
// discards output. An invalid cfg panics even when no group is large enough
// to be tested.
func FindRecurring(groups *grouper.Groups, cfg Config, logger *slog.Logger) *Records {
	if err := cfg.Validate(); err != nil {
		panic("recurrence: " + err.Error())
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	records := NewRecords()
	if groups == nil {
		return records
	}

	for _, group := range groups.List() {
		if len(group.Members) < cfg.MinOccurrences {
			continue
		}

		clusters := clusterer.ClusterGroup(group, cfg.AmountVariance)
		for i, rec := range Detect(group.Name, clusters, cfg) {
			if rec == nil {
				continue
			}
			if _, exists := records.Get(group.Name); exists {
				logger.Debug("additional recurring cluster discarded",
					"merchant", group.Name,
					"cluster", i,
					"base_amount", clusters[i].BaseAmount.StringFixed(2),
				)
				continue
			}
			records.add(rec)
			logger.Info("identified subscription",
				"merchant", group.Name,
				"monthly_cost", rec.MonthlyCost.StringFixed(2),
				"charges", len(rec.Transactions),
			)
		}
	}

	return records
}

// Records is an ordered mapping from merchant name to Record, in group
// creation order.
type Records struct {
	list       []*Record
	byMerchant map[string]*Record
}

// NewRecords returns an empty mapping.
func NewRecords() *Records {
	return &Records{byMerchant: make(map[string]*Record)}
}

func (rs *Records) add(r *Record) {
	rs.list = append(rs.list, r)
	rs.byMerchant[r.Merchant] = r
}

// Get returns the record for merchant.
func (rs *Records) Get(merchant string) (*Record, bool) {
	r, ok := rs.byMerchant[merchant]
	return r, ok
}

// List returns the records in order.
func (rs *Records) List() []*Record {
	return append([]*Record(nil), rs.list...)
}

// Len returns the number of records.
func (rs *Records) Len() int {
	return len(rs.list)
}

// TotalMonthlyCost sums the monthly cost of every record.
func (rs *Records) TotalMonthlyCost() decimal.Decimal {
	total := decimal.Zero
	for _, r := range rs.list {
		total = total.Add(r.MonthlyCost)
	}
	return total
}

func maxInt(values []int) int {
	m := values[0]
	for _, v := range values[1:] {
		if v > m {
			m = v
		}
	}
	return m
}
