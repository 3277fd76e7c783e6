package statement

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/eshaffer321/recurring-finder/internal/domain/transaction"
)

// SupportedExtension reports whether LoadFiles can read path.
func SupportedExtension(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt":
		return true
	}
	return false
}

// SourceName derives a transaction source from a file path: its base name
// without extension.
func SourceName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ParseFile reads one .csv or .txt statement.
func (p *Parser) ParseFile(path string) ([]transaction.Transaction, error) {
	source := SourceName(path)

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open statement: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		txs, err := p.ParseCSV(f, source)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return txs, nil
	case ".txt":
		var lines []string
		scanner := bufio.NewScanner(f)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			lines = append(lines, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		return p.ExtractLines(lines, source), nil
	default:
		return nil, fmt.Errorf("%s: unsupported file type %q", path, filepath.Ext(path))
	}
}

// LoadFiles parses statements concurrently and merges the results in sorted
// path order, so the combined slice is the same on every run. Any failing
// file fails the load.
func (p *Parser) LoadFiles(ctx context.Context, paths []string) ([]transaction.Transaction, error) {
	return p.load(ctx, paths, false)
}

// LoadDir parses every .csv and .txt file directly inside dir. CSV files
// with an unrecognized layout are logged and skipped.
func (p *Parser) LoadDir(ctx context.Context, dir string) ([]transaction.Transaction, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read statement dir: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || !SupportedExtension(e.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	return p.load(ctx, paths, true)
}

func (p *Parser) load(ctx context.Context, paths []string, skipUnsupported bool) ([]transaction.Transaction, error) {
	sorted := append([]string(nil), paths...)
	sort.Strings(sorted)

	results := make([][]transaction.Transaction, len(sorted))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)

	for i, path := range sorted {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			txs, err := p.ParseFile(path)
			if err != nil {
				if skipUnsupported && errors.Is(err, ErrUnsupportedFormat) {
					p.logger.Warn("skipping statement", "path", path, "error", err)
					return nil
				}
				return err
			}
			p.logger.Info("extracted transactions", "path", path, "count", len(txs))
			results[i] = txs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []transaction.Transaction
	for _, txs := range results {
		out = append(out, txs...)
	}
	return out, nil
}
