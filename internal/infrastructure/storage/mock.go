package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MockRepository is an in-memory implementation of Repository for testing.
type MockRepository struct {
	mu   sync.Mutex
	runs map[string]*AnalysisRun

	// Hooks for test assertions
	SaveRunCalled bool
	LastSavedRun  *AnalysisRun

	// Error injection for testing error paths
	SaveRunErr  error
	GetRunErr   error
	ListRunsErr error
}

// NewMockRepository creates a new mock repository for testing
func NewMockRepository() *MockRepository {
	return &MockRepository{runs: make(map[string]*AnalysisRun)}
}

// Compile-time check that MockRepository implements Repository
var _ Repository = (*MockRepository)(nil)

// Close does nothing for mock
func (m *MockRepository) Close() error {
	return nil
}

// SaveRun stores a copy of run in memory.
func (m *MockRepository) SaveRun(_ context.Context, run *AnalysisRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SaveRunCalled = true
	m.LastSavedRun = run
	if m.SaveRunErr != nil {
		return m.SaveRunErr
	}
	copied := *run
	copied.Charges = append([]RecurringCharge(nil), run.Charges...)
	m.runs[run.ID] = &copied
	return nil
}

// GetRun returns a stored run or ErrNotFound.
func (m *MockRepository) GetRun(_ context.Context, id string) (*AnalysisRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.GetRunErr != nil {
		return nil, m.GetRunErr
	}
	run, ok := m.runs[id]
	if !ok {
		return nil, fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	copied := *run
	return &copied, nil
}

// ListRuns returns stored runs newest first, without charges.
func (m *MockRepository) ListRuns(_ context.Context, filters RunFilters) (*RunListResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ListRunsErr != nil {
		return nil, m.ListRunsErr
	}
	filters = filters.normalized()

	var all []*AnalysisRun
	for _, run := range m.runs {
		if filters.Source != "" && run.Source != filters.Source {
			continue
		}
		copied := *run
		copied.Charges = nil
		all = append(all, &copied)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID < all[j].ID
	})

	result := &RunListResult{
		Runs:       []*AnalysisRun{},
		TotalCount: len(all),
		Limit:      filters.Limit,
		Offset:     filters.Offset,
	}
	if filters.Offset < len(all) {
		end := min(filters.Offset+filters.Limit, len(all))
		result.Runs = all[filters.Offset:end]
	}
	return result, nil
}

// DeleteRun removes a stored run or returns ErrNotFound.
func (m *MockRepository) DeleteRun(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.runs[id]; !ok {
		return fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	delete(m.runs, id)
	return nil
}
