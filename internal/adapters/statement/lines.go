package statement

import (
	"regexp"
	"strings"

	"github.com/eshaffer321/recurring-finder/internal/domain/transaction"
)

var (
	lineDate = regexp.MustCompile(`\b(\d{2}/\d{2}/(?:\d{4}|\d{2}))\b`)
	// A foreign charge lists the original amount followed by the USD amount.
	foreignAmount = regexp.MustCompile(`(\d+\.\d{2})\s+\$([0-9,]+\.\d{2})`)
	usdAmount     = regexp.MustCompile(`\$([0-9,]+\.\d{2})`)
	whitespace    = regexp.MustCompile(`\s+`)
)

// Lines containing any of these are statement metadata, not charges.
var lineSkipKeywords = []string{
	"and/or Cash",
	"Advance",
	"Document Type",
	"Ticket Number",
	"From:",
	"To:",
	"Passenger Name",
	"MERCHANDISE",
	"RESTAURANT",
	"FAST FOOD",
	"GROCERY STORE",
}

// ExtractLines pulls charges out of statement text using the default parser.
func ExtractLines(lines []string, source string) []transaction.Transaction {
	return defaultParser.ExtractLines(lines, source)
}

// ExtractLines pulls charges out of statement text, one per line:
//
//	01/15/24 NETFLIX.COM $15.49
//	01/20/24 SPOTIFY STOCKHOLM 11.99 $12.87
//
// The merchant is the text between the date and the amount. When a foreign
// amount precedes the USD amount, the USD amount is used. Lines without a
// date, merchant or amount are ignored.
func (p *Parser) ExtractLines(lines []string, source string) []transaction.Transaction {
	var out []transaction.Transaction

	for n, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" || hasSkipKeyword(line) {
			continue
		}

		loc := lineDate.FindStringSubmatchIndex(line)
		if loc == nil {
			continue
		}
		dateStr := line[loc[2]:loc[3]]
		rest := line[loc[1]:]

		var merchant, amount string
		if m := foreignAmount.FindStringSubmatchIndex(rest); m != nil {
			merchant = rest[:m[2]]
			amount = rest[m[4]:m[5]]
		} else if m := usdAmount.FindStringSubmatchIndex(rest); m != nil {
			merchant = rest[:m[0]]
			amount = rest[m[2]:m[3]]
		} else {
			continue
		}

		merchant = strings.TrimSpace(whitespace.ReplaceAllString(merchant, " "))
		if merchant == "" {
			continue
		}

		tx, err := transaction.Parse(dateStr, merchant, amount)
		if err != nil {
			p.logger.Warn("skipping unparseable line", "source", source, "line", n+1, "error", err)
			continue
		}
		tx.Description = line
		tx.Source = source
		p.logger.Debug("found transaction", "date", tx.Date.Format(transaction.DisplayDateLayout),
			"merchant", tx.Merchant, "amount", tx.Amount.StringFixed(2))
		out = append(out, tx)
	}

	return out
}

func hasSkipKeyword(line string) bool {
	for _, kw := range lineSkipKeywords {
		if strings.Contains(line, kw) {
			return true
		}
	}
	return false
}
