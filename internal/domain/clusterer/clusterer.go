// Package clusterer splits a merchant group into amount clusters.
//
// One merchant can bill several price points at once (two plans, a base
// subscription plus an add-on), so recurrence is decided per cluster of
// roughly equal amounts rather than per merchant.
package clusterer

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/eshaffer321/recurring-finder/internal/domain/grouper"
	"github.com/eshaffer321/recurring-finder/internal/domain/transaction"
)

// DefaultVariance is the default relative amount tolerance.
const DefaultVariance = 0.10

// Cluster is a subset of a group whose amounts agree with BaseAmount within
// the variance. BaseAmount is the amount of the first member and never moves.
type Cluster struct {
	BaseAmount decimal.Decimal
	Members    []transaction.Transaction
}

// ClusterGroup partitions the group's members into amount clusters.
//
// Members are visited in date order (stable, so same-day records keep their
// group order). Zero amounts never start or join a cluster. Each remaining
// record joins the first cluster, in creation order, whose base amount is
// within variance of its own amount; otherwise it opens a new cluster.
//
// A negative amount or a variance outside 0..1 means the caller broke the
// input contract and panics.
func ClusterGroup(group *grouper.Group, variance float64) []*Cluster {
	if variance < 0 || variance > 1 {
		panic(fmt.Sprintf("clusterer: amount variance %v outside 0..1", variance))
	}
	if group == nil {
		return nil
	}

	tolerance := decimal.NewFromFloat(variance)
	var clusters []*Cluster

	for _, tx := range SortByDate(group.Members) {
		if tx.Amount.IsNegative() {
			panic(fmt.Sprintf("clusterer: negative amount %s for %q reached the engine", tx.Amount, tx.Merchant))
		}
		if tx.IsZero() {
			continue
		}

		if c := firstWithin(clusters, tx.Amount, tolerance); c != nil {
			c.Members = append(c.Members, tx)
			continue
		}

		clusters = append(clusters, &Cluster{
			BaseAmount: tx.Amount,
			Members:    []transaction.Transaction{tx},
		})
	}

	return clusters
}

// RelativeDifference returns |amount-base|/base. ok is false when base is
// zero, in which case no comparison is possible.
func RelativeDifference(amount, base decimal.Decimal) (diff decimal.Decimal, ok bool) {
	if base.IsZero() {
		return decimal.Zero, false
	}
	return amount.Sub(base).Abs().Div(base), true
}

// SortByDate returns a date-ordered copy of records. Ties keep input order.
func SortByDate(records []transaction.Transaction) []transaction.Transaction {
	sorted := append([]transaction.Transaction(nil), records...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})
	return sorted
}

func firstWithin(clusters []*Cluster, amount, tolerance decimal.Decimal) *Cluster {
	for _, c := range clusters {
		diff, ok := RelativeDifference(amount, c.BaseAmount)
		if !ok {
			continue
		}
		if diff.LessThanOrEqual(tolerance) {
			return c
		}
	}
	return nil
}
