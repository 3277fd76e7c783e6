package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a run does not exist.
var ErrNotFound = errors.New("not found")

// Repository defines the complete storage interface.
// This interface allows swapping implementations and makes testing with
// mocks straightforward.
type Repository interface {
	RunRepository
	Close() error
}

// RunRepository persists analysis runs
type RunRepository interface {
	// SaveRun stores a run and its charges. Saving an existing ID replaces it.
	SaveRun(ctx context.Context, run *AnalysisRun) error

	// GetRun retrieves a run with its charges, or ErrNotFound
	GetRun(ctx context.Context, id string) (*AnalysisRun, error)

	// ListRuns returns runs without charges, newest first
	ListRuns(ctx context.Context, filters RunFilters) (*RunListResult, error)

	// DeleteRun removes a run and its charges, or returns ErrNotFound
	DeleteRun(ctx context.Context, id string) error
}
