// Package cleaner normalises parsed transactions: descriptions, merchant
// names, categories, amounts and dates. All functions are pure; callers log
// the returned Report.
package cleaner

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/insightdelivered/card-statement-converter/internal/models"
)

// DropReason explains why a transaction was removed during cleaning.
type DropReason string

const (
	DropNone             DropReason = ""
	DropEmptyDescription DropReason = "empty description after cleaning"
	DropInvalidDate      DropReason = "date outside the accepted window"
)

// Noise removed from descriptions, applied in order.
var noisePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\d{2}/\d{2}\s*`),   // date prefix
	regexp.MustCompile(`\s*\d{4}\s*$`),      // trailing year
	regexp.MustCompile(`[#*]+\d*`),          // reference numbers
	regexp.MustCompile(`\s*\$\d+\.?\d*\s*`), // embedded amounts
}

var whitespace = regexp.MustCompile(`\s+`)

// Dropped is a transaction removed by CleanStatement.
type Dropped struct {
	Transaction models.Transaction
	Reason      DropReason
}

// Rounded records an amount whose value changed when rounded to cents.
type Rounded struct {
	Description string
	From        decimal.Decimal
	To          decimal.Decimal
}

// Report summarises one CleanStatement call.
type Report struct {
	Input   int
	Output  int
	Dropped []Dropped
	Rounded []Rounded
}

// Cleaner applies the cleaning rules. The zero value is not usable; use New.
type Cleaner struct {
	now func() time.Time
}

// Option configures a Cleaner.
type Option func(*Cleaner)

// WithClock overrides the clock used for the date window.
func WithClock(now func() time.Time) Option {
	return func(c *Cleaner) {
		if now != nil {
			c.now = now
		}
	}
}

// New returns a Cleaner.
func New(opts ...Option) *Cleaner {
	c := &Cleaner{now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CleanStatement returns a copy of stmt holding only the cleaned, valid
// transactions, with a cleaning note appended. stmt itself is not modified.
func (c *Cleaner) CleanStatement(stmt *models.ProcessedStatement) (*models.ProcessedStatement, Report) {
	out := *stmt
	out.Transactions = make([]models.Transaction, 0, len(stmt.Transactions))
	out.Notes = append([]string(nil), stmt.Notes...)

	report := Report{Input: len(stmt.Transactions)}
	for _, txn := range stmt.Transactions {
		cleaned, reason := c.CleanTransaction(txn)
		if reason != DropNone {
			report.Dropped = append(report.Dropped, Dropped{Transaction: txn, Reason: reason})
			continue
		}
		if !cleaned.Amount.Equal(txn.Amount) {
			report.Rounded = append(report.Rounded, Rounded{Description: cleaned.Description, From: txn.Amount, To: cleaned.Amount})
		}
		out.Transactions = append(out.Transactions, cleaned)
	}
	report.Output = len(out.Transactions)

	out.AddNote(fmt.Sprintf("Data cleaning applied: %d transactions processed", report.Output))
	return &out, report
}

// CleanTransaction runs the per-transaction steps in order. A non-empty
// DropReason means the transaction should be discarded.
func (c *Cleaner) CleanTransaction(txn models.Transaction) (models.Transaction, DropReason) {
	desc := CleanDescription(txn.Description)
	if desc == "" {
		return models.Transaction{}, DropEmptyDescription
	}
	desc = StandardizeMerchant(desc)

	category := txn.Category
	if category == "" {
		category = Categorize(desc)
	}

	amount := CleanAmount(txn.Amount)

	if !c.IsValidDate(txn.Date) {
		return models.Transaction{}, DropInvalidDate
	}

	return models.Transaction{
		Date:        txn.Date,
		Description: desc,
		Amount:      amount,
		Type:        txn.Type,
		Category:    category,
		Reference:   txn.Reference,
	}, DropNone
}

// CleanDescription strips noise and re-cases the words of a description.
func CleanDescription(desc string) string {
	cleaned := collapse(desc)
	if cleaned == "" {
		return ""
	}
	for _, p := range noisePatterns {
		cleaned = p.ReplaceAllString(cleaned, " ")
	}
	cleaned = collapse(cleaned)
	if cleaned == "" {
		return ""
	}

	// Casers keep state, so each call gets its own.
	title := cases.Title(language.Und)
	words := strings.Fields(cleaned)
	for i, w := range words {
		upper := strings.ToUpper(w)
		switch {
		case keepUpper[upper]:
			words[i] = upper
		case len(w) == 2 && stateCodes[upper]:
			words[i] = upper
		default:
			words[i] = title.String(w)
		}
	}
	return strings.Join(words, " ")
}

// StandardizeMerchant replaces the first recognised merchant spelling with
// its canonical name.
func StandardizeMerchant(desc string) string {
	for _, m := range merchantRules {
		if m.re.MatchString(desc) {
			return collapse(m.re.ReplaceAllLiteralString(desc, m.name+" "))
		}
	}
	return desc
}

// Categorize returns the first matching category group, or "" when nothing
// matches.
func Categorize(desc string) string {
	for _, c := range categoryRules {
		for _, p := range c.patterns {
			if p.MatchString(desc) {
				return c.name
			}
		}
	}
	return ""
}

// CleanAmount rounds to cents with half-to-even rounding. It is idempotent.
func CleanAmount(amount decimal.Decimal) decimal.Decimal {
	return amount.RoundBank(2)
}

// IsValidDate reports whether d falls between January 1st ten years ago and
// December 31st next year, inclusive.
func (c *Cleaner) IsValidDate(d time.Time) bool {
	if d.IsZero() {
		return false
	}
	year := c.now().Year()
	lo := models.NewDate(year-10, time.January, 1)
	hi := models.NewDate(year+1, time.December, 31)
	day := models.NewDate(d.Year(), d.Month(), d.Day())
	return !day.Before(lo) && !day.After(hi)
}

// Deduplicate drops transactions sharing date, case-folded description and
// absolute amount with an earlier one. Order is preserved.
func Deduplicate(txns []models.Transaction) []models.Transaction {
	seen := make(map[string]struct{}, len(txns))
	out := make([]models.Transaction, 0, len(txns))
	for _, txn := range txns {
		key := dedupKey(txn)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, txn)
	}
	return out
}

func dedupKey(txn models.Transaction) string {
	return txn.Date.Format("2006-01-02") + "|" +
		strings.ToLower(strings.TrimSpace(txn.Description)) + "|" +
		txn.Amount.Abs().String()
}

// ValidationStats summarises data quality of a transaction list.
type ValidationStats struct {
	TotalTransactions int      `json:"totalTransactions"`
	ValidTransactions int      `json:"validTransactions"`
	InvalidDates      int      `json:"invalidDates"`
	ZeroAmounts       int      `json:"zeroAmounts"`
	EmptyDescriptions int      `json:"emptyDescriptions"`
	Warnings          []string `json:"warnings"`
}

// zeroAmountRatio is the share of zero-amount transactions that triggers a warning.
const zeroAmountRatio = 0.05

// Validate computes ValidationStats without modifying txns.
func (c *Cleaner) Validate(txns []models.Transaction) ValidationStats {
	stats := ValidationStats{TotalTransactions: len(txns), Warnings: []string{}}
	for _, txn := range txns {
		valid := true
		if !c.IsValidDate(txn.Date) {
			stats.InvalidDates++
			valid = false
		}
		if txn.Amount.IsZero() {
			stats.ZeroAmounts++
		}
		if strings.TrimSpace(txn.Description) == "" {
			stats.EmptyDescriptions++
			valid = false
		}
		if valid {
			stats.ValidTransactions++
		}
	}

	if stats.InvalidDates > 0 {
		stats.Warnings = append(stats.Warnings, fmt.Sprintf("%d transactions have invalid dates", stats.InvalidDates))
	}
	if float64(stats.ZeroAmounts) > float64(stats.TotalTransactions)*zeroAmountRatio {
		stats.Warnings = append(stats.Warnings, fmt.Sprintf("High number of zero-amount transactions: %d", stats.ZeroAmounts))
	}
	if stats.EmptyDescriptions > 0 {
		stats.Warnings = append(stats.Warnings, fmt.Sprintf("%d transactions have empty descriptions", stats.EmptyDescriptions))
	}
	return stats
}

func collapse(s string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}
