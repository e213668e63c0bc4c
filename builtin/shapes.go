package builtin

import (
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldKey lowercases a string, strips diacritics and collapses every run of
// non-alphanumeric characters to a single space, so header variants such as
// "E-Mail  Adresse" and "email adresse" compare equal.
func foldKey(s string) string {
	s = stripDiacritics(strings.ToLower(s))

	var b strings.Builder
	pending := false
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pending && b.Len() > 0 {
				b.WriteByte(' ')
			}
			pending = false
			b.WriteRune(r)
			continue
		}
		pending = true
	}
	return b.String()
}

// stripDiacritics removes combining marks: "Café" becomes "Cafe".
func stripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// defaultCurrency lists the currency markers stripped before number parsing.
const defaultCurrency = "$€£¥"

// canonNumber parses a human-formatted number. It strips spaces and
// currency markers, then decides the decimal separator: with both "," and
// "." present the one occurring later wins; a lone comma is decimal when
// followed by one or two digits at the end, and a thousands separator
// otherwise.
func canonNumber(s, currency string) (decimal.Decimal, bool) {
	if currency == "" {
		currency = defaultCurrency
	}
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || strings.ContainsRune(currency, r) {
			return -1
		}
		return r
	}, strings.TrimSpace(s))
	if cleaned == "" {
		return decimal.Decimal{}, false
	}

	lastComma := strings.LastIndexByte(cleaned, ',')
	lastDot := strings.LastIndexByte(cleaned, '.')
	switch {
	case lastComma >= 0 && lastDot >= 0:
		if lastComma > lastDot {
			cleaned = strings.ReplaceAll(cleaned, ".", "")
			cleaned = strings.Replace(cleaned, ",", ".", 1)
		} else {
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		}
	case lastComma >= 0:
		tail := len(cleaned) - lastComma - 1
		if strings.Count(cleaned, ",") == 1 && (tail == 1 || tail == 2) {
			cleaned = strings.Replace(cleaned, ",", ".", 1)
		} else {
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		}
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

// defaultDateLayouts are the input layouts tried by date parsing, most
// specific first.
var defaultDateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"02.01.2006",
	"02-Jan-2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 January 2006",
}

// parseDate tries each layout in order.
func parseDate(s string, layouts []string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range layouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// looksBool recognizes the common textual booleans.
func looksBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "false", "yes", "no":
		return true
	}
	return false
}
