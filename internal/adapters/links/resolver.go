// Package links finds cancellation pages for subscription merchants.
//
// Known merchants live in a YAML file mapping a merchant name to the URL
// of its cancellation page:
//
//	Netflix: https://www.netflix.com/cancelplan
//	Amazon Prime: https://www.amazon.com/gp/primecentral
//
// Lookups compare normalized merchant keys, so "NETFLIX #123 NY" finds the
// Netflix entry. A merchant with no close entry gets a web search URL.
package links

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/eshaffer321/recurring-finder/internal/domain/grouper"
	"github.com/eshaffer321/recurring-finder/internal/domain/normalizer"
)

// DefaultThreshold is the minimum similarity for a known entry to match.
const DefaultThreshold = 80

const searchPrefix = "https://www.google.com/search?q="

// Entry is one known merchant.
type Entry struct {
	Merchant string
	URL      string
	key      string
}

// Resolver maps merchant names to cancellation links. Safe for concurrent use.
type Resolver struct {
	mu        sync.RWMutex
	path      string
	threshold int
	entries   []Entry
	logger    *slog.Logger
}

// New creates an empty resolver that is not backed by a file.
func New(threshold int, logger *slog.Logger) *Resolver {
	if threshold < 0 || threshold > 100 {
		panic(fmt.Sprintf("links: threshold must be within 0..100, got %d", threshold))
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Resolver{threshold: threshold, logger: logger}
}

// Load reads the known merchants file at path. A missing file yields an
// empty resolver that Save will create.
func Load(path string, threshold int, logger *slog.Logger) (*Resolver, error) {
	r := New(threshold, logger)
	r.path = path

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		r.logger.Warn("known merchants file not found", "path", path)
		return r, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read known merchants: %w", err)
	}

	var table map[string]string
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("parse known merchants %s: %w", path, err)
	}

	names := make([]string, 0, len(table))
	for name := range table {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		r.put(name, table[name])
	}

	r.logger.Info("loaded known merchants", "path", path, "count", len(r.entries))
	return r, nil
}

// SearchURL returns a web search for how to cancel merchant.
func SearchURL(merchant string) string {
	return searchPrefix + url.QueryEscape("how to cancel "+merchant)
}

// Match returns the best scoring known entry. Ties go to the earlier entry.
func (r *Resolver) Match(merchant string) (Entry, int, bool) {
	key := normalizer.Normalize(merchant)

	r.mu.RLock()
	defer r.mu.RUnlock()

	best, bestScore := -1, -1
	for i, e := range r.entries {
		if score := grouper.Similarity(key, e.key); score > bestScore {
			best, bestScore = i, score
		}
	}
	if best < 0 {
		return Entry{}, 0, false
	}
	return r.entries[best], bestScore, true
}

// Resolve returns the cancellation link for merchant: the best known entry
// when it scores at least the threshold, otherwise a search URL. An empty
// merchant or an empty table resolves to "".
func (r *Resolver) Resolve(merchant string) string {
	if merchant == "" || r.Len() == 0 {
		return ""
	}

	entry, score, ok := r.Match(merchant)
	if !ok {
		return ""
	}
	r.logger.Debug("best known merchant", "merchant", merchant, "match", entry.Merchant, "score", score)

	if score >= r.threshold {
		return entry.URL
	}
	return SearchURL(merchant)
}

// Add registers or replaces a known merchant.
func (r *Resolver) Add(merchant, link string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.put(merchant, link)
}

func (r *Resolver) put(merchant, link string) {
	for i := range r.entries {
		if r.entries[i].Merchant == merchant {
			r.entries[i].URL = link
			return
		}
	}
	r.entries = append(r.entries, Entry{
		Merchant: merchant,
		URL:      link,
		key:      normalizer.Normalize(merchant),
	})
}

// Entries returns a copy of the known merchants.
func (r *Resolver) Entries() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Entry(nil), r.entries...)
}

// Len returns the number of known merchants.
func (r *Resolver) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Save writes the table back to the file it was loaded from.
func (r *Resolver) Save() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.path == "" {
		return errors.New("links: resolver has no file")
	}

	table := make(map[string]string, len(r.entries))
	for _, e := range r.entries {
		table[e.Merchant] = e.URL
	}
	data, err := yaml.Marshal(table)
	if err != nil {
		return fmt.Errorf("encode known merchants: %w", err)
	}
	if err := os.WriteFile(r.path, data, 0644); err != nil {
		return fmt.Errorf("write known merchants: %w", err)
	}

	r.logger.Info("saved known merchants", "path", r.path, "count", len(table))
	return nil
}
