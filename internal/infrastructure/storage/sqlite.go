// Package storage persists analysis runs in SQLite.
package storage

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
	"github.com/shopspring/decimal"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

const dateLayout = "2006-01-02"

// Storage provides SQLite database access for analysis runs.
// It implements the Repository interface.
type Storage struct {
	db *sql.DB
}

// Compile-time check that Storage implements Repository
var _ Repository = (*Storage)(nil)

// NewStorage opens the database at dbPath and applies pending migrations.
func NewStorage(dbPath string) (*Storage, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	s := &Storage{db: db}

	if err := s.runMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

func (s *Storage) runMigrations(ctx context.Context) error {
	fsys, err := fs.Sub(embedMigrations, "migrations")
	if err != nil {
		return err
	}

	provider, err := goose.NewProvider(goose.DialectSQLite3, s.db, fsys)
	if err != nil {
		return fmt.Errorf("failed to create migration provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	return s.db.Close()
}

// SaveRun stores a run and its charges in one transaction.
func (s *Storage) SaveRun(ctx context.Context, run *AnalysisRun) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save run: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// Cascade removes charges of a replaced run.
	if _, err := tx.ExecContext(ctx, `DELETE FROM analysis_runs WHERE id = ?`, run.ID); err != nil {
		return fmt.Errorf("replace run %s: %w", run.ID, err)
	}

	_, err = tx.ExecContext(ctx, `
	INSERT INTO analysis_runs
	(id, source, created_at, similarity_threshold, min_occurrences, max_gap_days,
	 amount_variance, transaction_count, group_count, total_monthly_cost)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		run.Source,
		run.CreatedAt.UTC(),
		run.SimilarityThreshold,
		run.MinOccurrences,
		run.MaxGapDays,
		run.AmountVariance,
		run.TransactionCount,
		run.GroupCount,
		run.TotalMonthlyCost.String(),
	)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", run.ID, err)
	}

	for i, c := range run.Charges {
		txJSON, err := json.Marshal(c.Transactions)
		if err != nil {
			return fmt.Errorf("encode charge transactions: %w", err)
		}
		_, err = tx.ExecContext(ctx, `
		INSERT INTO recurring_charges
		(run_id, position, merchant, monthly_cost, occurrences, first_date, last_date,
		 cancel_link, transactions_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			run.ID,
			i,
			c.Merchant,
			c.MonthlyCost.String(),
			c.Occurrences,
			c.FirstDate.Format(dateLayout),
			c.LastDate.Format(dateLayout),
			c.CancelLink,
			string(txJSON),
		)
		if err != nil {
			return fmt.Errorf("insert charge %q: %w", c.Merchant, err)
		}
	}

	return tx.Commit()
}

// GetRun retrieves a run with its charges.
func (s *Storage) GetRun(ctx context.Context, id string) (*AnalysisRun, error) {
	row := s.db.QueryRowContext(ctx, `
	SELECT id, source, created_at, similarity_threshold, min_occurrences, max_gap_days,
	       amount_variance, transaction_count, group_count, total_monthly_cost
	FROM analysis_runs WHERE id = ?
	`, id)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	run.Charges, err = s.getCharges(ctx, id)
	if err != nil {
		return nil, err
	}
	return run, nil
}

func (s *Storage) getCharges(ctx context.Context, runID string) ([]RecurringCharge, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT merchant, monthly_cost, occurrences, first_date, last_date, cancel_link, transactions_json
	FROM recurring_charges WHERE run_id = ? ORDER BY position
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query charges: %w", err)
	}
	defer rows.Close()

	var charges []RecurringCharge
	for rows.Next() {
		var (
			c                      RecurringCharge
			cost, first, last, raw string
		)
		if err := rows.Scan(&c.Merchant, &cost, &c.Occurrences, &first, &last, &c.CancelLink, &raw); err != nil {
			return nil, err
		}
		if c.MonthlyCost, err = decimal.NewFromString(cost); err != nil {
			return nil, fmt.Errorf("charge %q cost: %w", c.Merchant, err)
		}
		if c.FirstDate, err = time.Parse(dateLayout, first); err != nil {
			return nil, fmt.Errorf("charge %q first date: %w", c.Merchant, err)
		}
		if c.LastDate, err = time.Parse(dateLayout, last); err != nil {
			return nil, fmt.Errorf("charge %q last date: %w", c.Merchant, err)
		}
		if err := json.Unmarshal([]byte(raw), &c.Transactions); err != nil {
			return nil, fmt.Errorf("charge %q transactions: %w", c.Merchant, err)
		}
		charges = append(charges, c)
	}
	return charges, rows.Err()
}

// ListRuns returns runs matching the filters, newest first.
func (s *Storage) ListRuns(ctx context.Context, filters RunFilters) (*RunListResult, error) {
	filters = filters.normalized()

	where := ""
	var args []any
	if filters.Source != "" {
		where = "WHERE source = ?"
		args = append(args, filters.Source)
	}

	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM analysis_runs "+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count runs: %w", err)
	}

	query := `
	SELECT id, source, created_at, similarity_threshold, min_occurrences, max_gap_days,
	       amount_variance, transaction_count, group_count, total_monthly_cost
	FROM analysis_runs ` + where + `
	ORDER BY created_at DESC, id
	LIMIT ? OFFSET ?`
	rows, err := s.db.QueryContext(ctx, query, append(args, filters.Limit, filters.Offset)...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	result := &RunListResult{
		Runs:       []*AnalysisRun{},
		TotalCount: total,
		Limit:      filters.Limit,
		Offset:     filters.Offset,
	}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		result.Runs = append(result.Runs, run)
	}
	return result, rows.Err()
}

// DeleteRun removes a run and, through the foreign key, its charges.
func (s *Storage) DeleteRun(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM analysis_runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete run %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*AnalysisRun, error) {
	var (
		run  AnalysisRun
		cost string
	)
	err := row.Scan(
		&run.ID,
		&run.Source,
		&run.CreatedAt,
		&run.SimilarityThreshold,
		&run.MinOccurrences,
		&run.MaxGapDays,
		&run.AmountVariance,
		&run.TransactionCount,
		&run.GroupCount,
		&cost,
	)
	if err != nil {
		return nil, err
	}
	if run.TotalMonthlyCost, err = decimal.NewFromString(cost); err != nil {
		return nil, fmt.Errorf("run %s total: %w", run.ID, err)
	}
	return &run, nil
}

// Ping checks that the database is reachable.
func (s *Storage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
