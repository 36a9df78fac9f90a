// Package normalize canonicalizes the raw string values that come back from
// the model: monetary amounts, dates, and free text.
package normalize

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// ErrNoAmount is returned by Money when the input contains no digit
// sequence to parse.
var ErrNoAmount = errors.New("no numeric amount")

// DefaultDateHints covers the date layouts commonly seen on bank
// statements. Detection may narrow this to the document's actual format.
var DefaultDateHints = []string{
	"2006-01-02",
	"02-01-2006",
	"02/01/2006",
	"01/02/2006",
	"02-Jan-2006",
	"02 Jan 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 06",
	"02.01.2006",
}

// Money parses a monetary string into a signed amount. It strips currency
// symbols, thousands separators, and whitespace, and honors both
// parenthesized and trailing-minus negative notation.
//
//	"$1,500.00"  -> 1500.00
//	"(200.50)"   -> -200.50
//	"Rs.1,250.5" -> 1250.50
//	"N/A"        -> ErrNoAmount
func Money(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, fmt.Errorf("money %q: %w", raw, ErrNoAmount)
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}
	if strings.HasSuffix(s, "-") {
		negative = true
		s = strings.TrimSuffix(s, "-")
	}

	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.':
			b.WriteRune(r)
		case r == '-' && b.Len() == 0:
			negative = true
		default:
			// Currency symbols, thousands separators, codes like "Rs" or
			// "USD", and stray whitespace all drop out here.
		}
	}

	cleaned := b.String()
	if !strings.ContainsAny(cleaned, "0123456789") {
		return 0, fmt.Errorf("money %q: %w", raw, ErrNoAmount)
	}

	// A period can survive from abbreviations like "Rs." with no digits
	// after it; strconv rejects "1250." style only when multiple dots stack
	// up, so collapse any dots that are not the decimal point.
	if strings.Count(cleaned, ".") > 1 {
		last := strings.LastIndex(cleaned, ".")
		cleaned = strings.ReplaceAll(cleaned[:last], ".", "") + cleaned[last:]
	}
	cleaned = strings.TrimSuffix(cleaned, ".")

	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("money %q: %w", raw, ErrNoAmount)
	}
	if negative {
		v = -v
	}
	return v, nil
}

// Date attempts each hint layout in order and returns the first successful
// conversion formatted as YYYY-MM-DD. It returns the empty string, not an
// error, when nothing matches: dates are legitimately blank on memo rows.
func Date(raw string, hints []string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	if len(hints) == 0 {
		hints = DefaultDateHints
	}
	for _, layout := range hints {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return ""
}

// Text trims and collapses internal whitespace runs to single spaces.
// Casing and punctuation are preserved verbatim.
func Text(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	inSpace := false
	for _, r := range strings.TrimSpace(raw) {
		if unicode.IsSpace(r) {
			inSpace = true
			continue
		}
		if inSpace && b.Len() > 0 {
			b.WriteByte(' ')
		}
		inSpace = false
		b.WriteRune(r)
	}
	return b.String()
}
