// Package normalizer maps raw merchant strings to canonical comparison keys.
//
// Statement text for one merchant varies wildly ("Netflix #123",
// "NETFLIX SUBSCRIPTION", "AplPay NETFLIX.COM CA"). Normalize strips the
// noise so the grouper can compare what is left. The key is only ever
// compared, never displayed.
//
// Each step is exported so it can be tested on its own. A step that would
// erase everything that is left keeps its input instead, so the key is empty
// only when the raw text was empty or whitespace.
package normalizer

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	// Payment wrappers that prefix the real merchant name.
	walletPrefix = regexp.MustCompile(`(?i)^\s*(?:aplpay|apple\s+pay|gglpay|google\s+pay|sq\s*\*|tst\s*\*|paypal\s*\*|pp\s*\*)\s*`)

	// Legal-entity suffixes, store numbers and trailing plan words. Everything
	// from the first match to the end of the string is dropped.
	entitySuffix = regexp.MustCompile(`(?i)\s*(?:\binc\b\.?|\bllc\b|\bltd\b\.?|\bcorp\b\.?|#\s*\d+|\bsubscription\b|\bmem\b).*$`)

	// "... in Seattle", "... at Terminal 4".
	locationPhrase = regexp.MustCompile(`(?i)\s+(?:in|at)\s+.*$`)

	// Standalone two-letter upper-case region codes ("CA", "NY").
	regionCode = regexp.MustCompile(`\s+[A-Z]{2}(?:\s+|$)`)
)

// alias is one entry of the fixed alias table applied to collapsed keys.
type alias struct {
	from string
	to   string
}

// aliases are applied in order to the collapsed key.
var aliases = []alias{
	{from: "amzn", to: "amazon"},
	{from: "aplpay", to: ""},
}

// Normalize returns the canonical key for a raw merchant string.
func Normalize(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	name := StripPrefixes(raw)
	name = StripSuffixes(name)
	name = StripLocation(name)
	key := Collapse(name)
	if key == "" {
		// Nothing alphanumeric survived; fall back to the trimmed raw text.
		return strings.ToLower(strings.Join(strings.Fields(raw), ""))
	}
	return ApplyAliases(key)
}

// StripPrefixes removes payment-wrapper prefixes such as "AplPay " or "SQ *".
func StripPrefixes(name string) string {
	for {
		next := walletPrefix.ReplaceAllString(name, "")
		if next == name || strings.TrimSpace(next) == "" {
			return name
		}
		name = next
	}
}

// StripSuffixes removes legal-entity suffixes, "#123" store codes and
// trailing "Subscription"/"Mem" tokens.
func StripSuffixes(name string) string {
	return keep(name, entitySuffix.ReplaceAllString(name, ""))
}

// StripLocation removes trailing "in"/"at" location phrases and standalone
// two-letter region codes.
func StripLocation(name string) string {
	name = keep(name, locationPhrase.ReplaceAllString(name, ""))
	for {
		next := strings.TrimSpace(regionCode.ReplaceAllString(name, " "))
		if next == name || next == "" {
			return name
		}
		name = next
	}
}

// Collapse lowercases name and drops every non-alphanumeric rune.
func Collapse(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

// ApplyAliases rewrites known abbreviations and removes wallet markers.
func ApplyAliases(key string) string {
	for _, a := range aliases {
		key = keep(key, strings.ReplaceAll(key, a.from, a.to))
	}
	return key
}

// keep returns next unless it is blank, in which case prev survives.
func keep(prev, next string) string {
	if strings.TrimSpace(next) == "" {
		return prev
	}
	return next
}
