package statement

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/eshaffer321/recurring-finder/internal/domain/transaction"
)

var amexSkip = []string{"PAYMENT RECEIVED", "INTEREST CHARGE", "ANNUAL FEE"}

// Chase descriptions carry trailing noise after these markers.
var chaseCuts = []string{" null ", " XXXXXXXXXXXX"}

// DetectFormat identifies the layout from a header row.
func DetectFormat(header []string) (Format, error) {
	joined := strings.ToLower(strings.Join(header, ","))

	switch {
	case strings.Contains(joined, "status") && strings.Contains(joined, "debit") && strings.Contains(joined, "credit"):
		return FormatChase, nil
	case len(header) == 3 && strings.Contains(joined, "date") &&
		strings.Contains(joined, "description") && strings.Contains(joined, "amount"):
		return FormatAmex, nil
	default:
		return "", fmt.Errorf("%w: header %v", ErrUnsupportedFormat, header)
	}
}

// ParseCSV reads a statement export using the default parser.
func ParseCSV(r io.Reader, source string) ([]transaction.Transaction, error) {
	return defaultParser.ParseCSV(r, source)
}

// ParseCSV reads a statement export. Rows that are payments, fees or
// pending are dropped; malformed rows are logged and skipped. Only a
// missing or unrecognized header is an error.
func (p *Parser) ParseCSV(r io.Reader, source string) ([]transaction.Transaction, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty file", ErrUnsupportedFormat)
	}
	if err != nil {
		return nil, fmt.Errorf("read CSV header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	format, err := DetectFormat(header)
	if err != nil {
		return nil, err
	}
	p.logger.Info("detected statement format", "source", source, "format", string(format))

	columns := make(map[string]int, len(header))
	for i, h := range header {
		columns[strings.ToLower(strings.TrimSpace(h))] = i
	}

	var out []transaction.Transaction
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			p.logger.Warn("skipping unreadable row", "source", source, "line", line, "error", err)
			continue
		}

		row := csvRow{columns: columns, record: record}
		var (
			tx   transaction.Transaction
			keep bool
		)
		switch format {
		case FormatChase:
			tx, keep, err = parseChaseRow(row)
		case FormatAmex:
			tx, keep, err = parseAmexRow(row)
		}
		if err != nil {
			p.logger.Warn("skipping malformed row", "source", source, "line", line, "error", err)
			continue
		}
		if !keep {
			continue
		}
		tx.Source = source
		out = append(out, tx)
	}

	return out, nil
}

type csvRow struct {
	columns map[string]int
	record  []string
}

func (r csvRow) get(name string) (string, error) {
	i, ok := r.columns[name]
	if !ok || i >= len(r.record) {
		return "", fmt.Errorf("missing column %q", name)
	}
	return r.record[i], nil
}

func parseAmexRow(row csvRow) (transaction.Transaction, bool, error) {
	desc, err := row.get("description")
	if err != nil {
		return transaction.Transaction{}, false, err
	}
	upper := strings.ToUpper(desc)
	for _, skip := range amexSkip {
		if strings.Contains(upper, skip) {
			return transaction.Transaction{}, false, nil
		}
	}

	date, err := row.get("date")
	if err != nil {
		return transaction.Transaction{}, false, err
	}
	amount, err := row.get("amount")
	if err != nil {
		return transaction.Transaction{}, false, err
	}

	tx, err := transaction.Parse(date, desc, amount)
	if err != nil {
		return transaction.Transaction{}, false, err
	}
	tx.Description = desc
	return tx, true, nil
}

func parseChaseRow(row csvRow) (transaction.Transaction, bool, error) {
	status, err := row.get("status")
	if err != nil {
		return transaction.Transaction{}, false, err
	}
	desc, err := row.get("description")
	if err != nil {
		return transaction.Transaction{}, false, err
	}
	if !strings.EqualFold(strings.TrimSpace(status), "CLEARED") ||
		strings.Contains(strings.ToUpper(desc), "PAYMENT") {
		return transaction.Transaction{}, false, nil
	}

	date, err := row.get("date")
	if err != nil {
		return transaction.Transaction{}, false, err
	}
	amount, err := chaseAmount(row)
	if err != nil {
		return transaction.Transaction{}, false, err
	}

	tx, err := transaction.Parse(date, cleanChaseDescription(desc), amount)
	if err != nil {
		return transaction.Transaction{}, false, err
	}
	tx.Description = desc
	return tx, true, nil
}

// chaseAmount takes the debit column unless it is blank or zero, then the credit.
func chaseAmount(row csvRow) (string, error) {
	debit, _ := row.get("debit")
	if strings.TrimSpace(debit) != "" {
		d, err := transaction.ParseAmount(debit)
		if err != nil {
			return "", err
		}
		if !d.IsZero() {
			return debit, nil
		}
	}

	credit, _ := row.get("credit")
	if strings.TrimSpace(credit) == "" {
		return "0", nil
	}
	return credit, nil
}

func cleanChaseDescription(desc string) string {
	desc = strings.Trim(desc, `"`)
	for _, cut := range chaseCuts {
		if i := strings.Index(desc, cut); i >= 0 {
			desc = desc[:i]
		}
	}
	return strings.TrimSpace(desc)
}
