// Package grouper clusters transactions that belong to the same real-world
// merchant despite inconsistent statement text.
//
// Grouping is greedy and order-sensitive: each record is compared against
// the representative key of every existing group in creation order and
// joins the first one scoring at or above the threshold (first match, not
// best match). A record that matches nothing opens a new group named after
// its raw merchant text. Feeding the same records in a different order can
// therefore produce different groups.
//
// Example usage:
//
//	g := grouper.NewGrouper(grouper.DefaultThreshold, logger)
//	groups := g.Group(transactions)
//	for _, group := range groups.List() {
//		fmt.Println(group.Name, len(group.Members))
//	}
package grouper

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/eshaffer321/recurring-finder/internal/domain/normalizer"
	"github.com/eshaffer321/recurring-finder/internal/domain/transaction"
)

// DefaultThreshold is the default similarity threshold (0-100).
const DefaultThreshold = 70

// Grouper partitions transactions into merchant groups.
type Grouper struct {
	threshold int
	logger    *slog.Logger
}

// NewGrouper creates a grouper. A threshold outside 0..100 is a programming
// error and panics. A nil logger discards output.
func NewGrouper(threshold int, logger *slog.Logger) *Grouper {
	if threshold < 0 || threshold > 100 {
		panic(fmt.Sprintf("grouper: similarity threshold %d outside 0..100", threshold))
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Grouper{
		threshold: threshold,
		logger:    logger,
	}
}

// GroupRecords partitions records into merchant groups, processing them in
// input order. Empty input yields an empty Groups.
func GroupRecords(records []transaction.Transaction, threshold int) *Groups {
	return NewGrouper(threshold, nil).Group(records)
}

// Group partitions records into merchant groups. Every call builds its own
// Groups; nothing is shared between calls.
func (g *Grouper) Group(records []transaction.Transaction) *Groups {
	groups := NewGroups()

	for _, tx := range records {
		key := normalizer.Normalize(tx.Merchant)
		g.logger.Debug("normalized merchant name", "merchant", tx.Merchant, "key", key)

		if match := g.firstMatch(groups, key); match != nil {
			match.Members = append(match.Members, tx)
			g.logger.Debug("matched existing group", "merchant", tx.Merchant, "group", match.Name)
			continue
		}

		// Only blank keys can get here with a name already in use, since an
		// identical non-empty key always scores 100.
		if existing, ok := groups.Get(tx.Merchant); ok {
			existing.Members = append(existing.Members, tx)
			continue
		}

		groups.add(&Group{
			Name:    tx.Merchant,
			Key:     key,
			Members: []transaction.Transaction{tx},
		})
		g.logger.Debug("created new group", "merchant", tx.Merchant)
	}

	return groups
}

// firstMatch returns the first group, in creation order, whose
// representative key scores at least the threshold against key.
func (g *Grouper) firstMatch(groups *Groups, key string) *Group {
	if key == "" {
		return nil
	}
	for _, group := range groups.list {
		if group.Key == "" {
			continue
		}
		score := Similarity(key, group.Key)
		g.logger.Debug("compared merchant keys", "key", key, "group_key", group.Key, "score", score)
		if score >= g.threshold {
			return group
		}
	}
	return nil
}
