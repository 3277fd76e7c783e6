// Package statement reads card statements into transactions.
//
// Two inputs are supported: CSV exports (Chase and Amex layouts, detected
// from the header row) and plain text with one charge per line, as produced
// by copying a PDF statement.
//
// Example usage:
//
//	parser := statement.NewParser(logger)
//	records, err := parser.LoadDir(ctx, "statements/")
package statement

import (
	"errors"
	"io"
	"log/slog"
)

// ErrUnsupportedFormat is returned when a CSV header matches no known layout.
var ErrUnsupportedFormat = errors.New("unsupported CSV format")

// Format identifies a CSV layout.
type Format string

const (
	FormatChase Format = "CHASE"
	FormatAmex  Format = "AMEX"
)

// DefaultConcurrency bounds how many files LoadFiles parses at once.
const DefaultConcurrency = 4

// Parser turns statement files into transactions.
type Parser struct {
	logger      *slog.Logger
	concurrency int
}

// NewParser creates a parser. A nil logger discards output.
func NewParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Parser{
		logger:      logger,
		concurrency: DefaultConcurrency,
	}
}

// WithConcurrency returns a copy of the parser that parses up to n files at once.
func (p *Parser) WithConcurrency(n int) *Parser {
	if n < 1 {
		n = 1
	}
	cp := *p
	cp.concurrency = n
	return &cp
}

var defaultParser = NewParser(nil)
