package parser

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/insightdelivered/card-statement-converter/internal/models"
)

// DefaultFallbackYear is used when a statement carries no 4-digit year.
const DefaultFallbackYear = 2024

var (
	yearTokenPattern  = regexp.MustCompile(`\b20\d{2}\b`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

var englishMonths = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March, "apr": time.April,
	"may": time.May, "jun": time.June, "jul": time.July, "aug": time.August,
	"sep": time.September, "oct": time.October, "nov": time.November, "dec": time.December,
}

var spanishMonths = map[string]time.Month{
	"ene": time.January, "feb": time.February, "mar": time.March, "abr": time.April,
	"may": time.May, "jun": time.June, "jul": time.July, "ago": time.August,
	"sep": time.September, "set": time.September, "oct": time.October, "nov": time.November, "dic": time.December,
	"enero": time.January, "febrero": time.February, "marzo": time.March, "abril": time.April,
	"mayo": time.May, "junio": time.June, "julio": time.July, "agosto": time.August,
	"septiembre": time.September, "setiembre": time.September, "octubre": time.October,
	"noviembre": time.November, "diciembre": time.December,
}

// englishMonth resolves "Jan", "january", "Sept." and similar.
func englishMonth(s string) (time.Month, bool) {
	s = strings.ToLower(strings.TrimSuffix(strings.TrimSpace(s), "."))
	if len(s) < 3 {
		return 0, false
	}
	m, ok := englishMonths[s[:3]]
	return m, ok
}

// spanishMonth resolves Spanish abbreviations and full month names.
func spanishMonth(s string) (time.Month, bool) {
	s = strings.ToLower(strings.TrimSuffix(strings.TrimSpace(s), "."))
	if m, ok := spanishMonths[s]; ok {
		return m, true
	}
	if len(s) > 3 {
		m, ok := spanishMonths[s[:3]]
		return m, ok
	}
	return 0, false
}

// makeDate builds a date and rejects values time.Date would normalise
// (Feb 30, month 13).
func makeDate(year int, month time.Month, day int) (time.Time, bool) {
	if month < time.January || month > time.December || day < 1 || day > 31 {
		return time.Time{}, false
	}
	d := models.NewDate(year, month, day)
	if d.Month() != month || d.Day() != day {
		return time.Time{}, false
	}
	return d, true
}

// expandYear interprets 2-digit years as 2000+YY.
func expandYear(y int) int {
	if y < 100 {
		return 2000 + y
	}
	return y
}

func atoi(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	return n, err == nil
}

// firstYear returns the first 20xx token in the text.
func firstYear(text string) (int, bool) {
	m := yearTokenPattern.FindString(text)
	if m == "" {
		return 0, false
	}
	return atoi(m)
}

// maxYear returns the largest 20xx token in the text.
func maxYear(text string) (int, bool) {
	best, found := 0, false
	for _, m := range yearTokenPattern.FindAllString(text, -1) {
		if y, ok := atoi(m); ok && y > best {
			best, found = y, true
		}
	}
	return best, found
}

// parseUSAmount converts a matched amount like "$1,234.56 CR" or "-100.00".
// negative reports whether the text carried a minus sign.
func parseUSAmount(s string) (amount decimal.Decimal, negative bool, ok bool) {
	s = strings.TrimSpace(s)
	negative = strings.Contains(s, "-") || (strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")"))
	upper := strings.ToUpper(s)
	upper = strings.TrimSpace(strings.TrimSuffix(upper, "CR"))
	upper = strings.TrimSpace(strings.TrimSuffix(upper, "DB"))
	cleaned := strings.NewReplacer("$", "", ",", "", " ", "", "\u00A0", "", "-", "", "(", "", ")", "").Replace(upper)
	if cleaned == "" {
		return decimal.Zero, false, false
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, false, false
	}
	return d, negative, true
}

// ParseLocaleAmount converts an amount written with '.' thousands and ','
// decimals ("123.456,78") to a decimal.
func ParseLocaleAmount(s string) (decimal.Decimal, bool) {
	const sentinel = "|DECIMAL|"
	s = strings.TrimSpace(s)
	s = strings.NewReplacer("$", "", " ", "", "\u00A0", "").Replace(s)
	if s == "" {
		return decimal.Zero, false
	}
	s = strings.ReplaceAll(s, ",", sentinel)
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, sentinel, ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// collapseSpaces trims and folds runs of whitespace into single spaces.
func collapseSpaces(s string) string {
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(s, " "))
}

// maskAccount keeps the trailing digits behind a run of asterisks.
func maskAccount(digits string, stars int) string {
	return strings.Repeat("*", stars) + digits
}

// findFirst returns the first capture group of the first matching pattern.
func findFirst(text string, patterns ...*regexp.Regexp) string {
	for _, p := range patterns {
		if m := p.FindStringSubmatch(text); m != nil && len(m) > 1 {
			if v := strings.TrimSpace(m[1]); v != "" {
				return v
			}
		}
	}
	return ""
}
