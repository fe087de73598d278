package parser

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/insightdelivered/card-statement-converter/internal/models"
)

// Line outcomes recorded in models.LineTrace.
const (
	resultParsed         = "parsed"
	resultIgnored        = "ignored"
	resultNoDate         = "no-date"
	resultNoAmount       = "no-amount"
	resultEmptyDesc      = "empty-description"
	resultOutsideSection = "outside-section"
	resultNoMatch        = "no-match"
)

const methodBase = "base"

// datePattern pairs a date regex with the function that turns its groups
// into a calendar date. The year argument is the statement year.
type datePattern struct {
	re      *regexp.Regexp
	resolve func(m []string, year int) (time.Time, bool)
}

func monthDayYear(m []string, _ int) (time.Time, bool) {
	month, ok1 := atoi(m[1])
	day, ok2 := atoi(m[2])
	year, ok3 := atoi(m[3])
	if !ok1 || !ok2 || !ok3 {
		return time.Time{}, false
	}
	return makeDate(expandYear(year), time.Month(month), day)
}

func yearMonthDay(m []string, _ int) (time.Time, bool) {
	year, ok1 := atoi(m[1])
	month, ok2 := atoi(m[2])
	day, ok3 := atoi(m[3])
	if !ok1 || !ok2 || !ok3 {
		return time.Time{}, false
	}
	return makeDate(year, time.Month(month), day)
}

func namedMonthDayYear(m []string, _ int) (time.Time, bool) {
	month, ok := englishMonth(m[1])
	day, ok2 := atoi(m[2])
	year, ok3 := atoi(m[3])
	if !ok || !ok2 || !ok3 {
		return time.Time{}, false
	}
	return makeDate(expandYear(year), month, day)
}

func monthDay(m []string, year int) (time.Time, bool) {
	month, ok1 := atoi(m[1])
	day, ok2 := atoi(m[2])
	if !ok1 || !ok2 {
		return time.Time{}, false
	}
	return makeDate(year, time.Month(month), day)
}

func namedMonthDay(m []string, year int) (time.Time, bool) {
	month, ok := englishMonth(m[1])
	day, ok2 := atoi(m[2])
	if !ok || !ok2 {
		return time.Time{}, false
	}
	return makeDate(year, month, day)
}

const monthNames = `(Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\.?`

// Ordered; the first pattern yielding a valid calendar date wins.
var datePatterns = []datePattern{
	{regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})/(\d{4}|\d{2})\b`), monthDayYear},
	{regexp.MustCompile(`\b(\d{1,2})-(\d{1,2})-(\d{4}|\d{2})\b`), monthDayYear},
	{regexp.MustCompile(`\b(\d{4})-(\d{1,2})-(\d{1,2})\b`), yearMonthDay},
	{regexp.MustCompile(`(?i)\b` + monthNames + `\s+(\d{1,2}),?\s+(\d{4})\b`), namedMonthDayYear},
	{regexp.MustCompile(`^(\d{1,2})/(\d{1,2})\b`), monthDay},
	{regexp.MustCompile(`(?i)^` + monthNames + `\s+(\d{1,2})\b`), namedMonthDay},
}

var (
	// Decimal amounts: optional sign and $, thousands commas, CR/DB suffix.
	// A sign must touch the amount or the $; "ACME - 12.50" is unsigned.
	decimalAmount = regexp.MustCompile(`(?i)(-)?(?:\$\s?)?(-)?(\d{1,3}(?:,\d{3})+|\d+)\.(\d{2})\b(-)?(?:\s*(CR|DB)\b)?`)
	// Whole-dollar amounts need an explicit currency symbol.
	wholeAmount = regexp.MustCompile(`(?i)(-)?\$\s?(-)?(\d{1,3}(?:,\d{3})+|\d+)\b(-)?(?:\s*(CR|DB)\b)?`)

	amountPatterns = []*regexp.Regexp{decimalAmount, wholeAmount}

	creditToken   = regexp.MustCompile(`(?i)\bCR\b`)
	creditDebitRe = regexp.MustCompile(`(?i)\b(?:CR|DB)\b`)
)

// baseIgnorePatterns drop page markers, headers and separator lines.
var baseIgnorePatterns = compileAll(`(?i)`,
	`^-{3}\s*Page\s+\d+\s*-{3}$`,
	`^Page\s+\d+`,
	`^Statement\s+Date`,
	`^Account\s+Number`,
	`^Total\s+`,
	`^Balance\s+`,
	`^Previous\s+Balance`,
	`^New\s+Balance`,
	`^-+\s*$`,
	`^=+\s*$`,
)

// keywordRule maps description keywords to a transaction type.
type keywordRule struct {
	typ      models.TransactionType
	patterns []*regexp.Regexp
}

func rule(typ models.TransactionType, patterns ...string) keywordRule {
	return keywordRule{typ: typ, patterns: compileAll(`(?i)`, patterns...)}
}

var baseKeywords = []keywordRule{
	rule(models.TypePayment, `payment\s+thank\s+you`, `\bautopay\b`, `online\s+payment`, `payment\s+received`),
	rule(models.TypeFee, `\bfees?\b`, `annual\s+fee`, `late\s+fee`, `foreign\s+transaction`),
	rule(models.TypeInterest, `\binterest\b`, `finance\s+charge`, `\bapr\b`),
	rule(models.TypeCashAdvance, `cash\s+advance`, `\batm\b`, `cash\s+withdrawal`),
	rule(models.TypeCredit, `\bcredit\b`, `\brefund`, `\breturn\b`),
}

// lineParser is the shared line-oriented transaction extractor. Bank parsers
// try their own full-line patterns first and fall back to it.
type lineParser struct {
	ignore   []*regexp.Regexp
	keywords []keywordRule
}

func newLineParser(keywords []keywordRule, ignore ...[]*regexp.Regexp) *lineParser {
	lp := &lineParser{keywords: keywords}
	for _, set := range ignore {
		lp.ignore = append(lp.ignore, set...)
	}
	lp.ignore = append(lp.ignore, baseIgnorePatterns...)
	return lp
}

func (lp *lineParser) ignored(line string) bool {
	if line == "" {
		return true
	}
	for _, p := range lp.ignore {
		if p.MatchString(line) {
			return true
		}
	}
	return false
}

// classify returns the first keyword group matching the description.
func (lp *lineParser) classify(desc string) models.TransactionType {
	for _, r := range lp.keywords {
		for _, p := range r.patterns {
			if p.MatchString(desc) {
				return r.typ
			}
		}
	}
	return models.TypePurchase
}

// tryParseLine turns one statement line into a transaction. A false result
// means the line is not a transaction.
func (lp *lineParser) tryParseLine(line string, year int) (models.Transaction, bool) {
	txn, result := lp.parseLine(line, year)
	return txn, result == resultParsed
}

func (lp *lineParser) parseLine(line string, year int) (models.Transaction, string) {
	date, ok := extractDate(line, year)
	if !ok {
		return models.Transaction{}, resultNoDate
	}

	amount, negative, ok := extractAmount(line)
	if !ok {
		return models.Transaction{}, resultNoAmount
	}
	isCredit := negative || creditToken.MatchString(line)

	desc := stripDescription(line)
	if desc == "" {
		return models.Transaction{}, resultEmptyDesc
	}

	typ := lp.classify(desc)
	if isCredit && typ == models.TypePurchase {
		typ = models.TypeCredit
	}

	return models.Transaction{
		Date:        date,
		Description: desc,
		Amount:      signed(amount, typ),
		Type:        typ,
	}, resultParsed
}

func extractDate(line string, year int) (time.Time, bool) {
	for _, dp := range datePatterns {
		for _, m := range dp.re.FindAllStringSubmatch(line, -1) {
			if d, ok := dp.resolve(m, year); ok {
				return d, true
			}
		}
	}
	return time.Time{}, false
}

// extractAmount takes the last amount on the line; earlier numbers are
// usually references or balances.
func extractAmount(line string) (decimal.Decimal, bool, bool) {
	for _, p := range amountPatterns {
		matches := p.FindAllString(line, -1)
		for i := len(matches) - 1; i >= 0; i-- {
			if amt, neg, ok := parseUSAmount(matches[i]); ok {
				return amt, neg, true
			}
		}
	}
	return decimal.Zero, false, false
}

func stripDescription(line string) string {
	desc := line
	for _, dp := range datePatterns {
		desc = dp.re.ReplaceAllString(desc, " ")
	}
	for _, p := range amountPatterns {
		desc = p.ReplaceAllString(desc, " ")
	}
	desc = creditDebitRe.ReplaceAllString(desc, " ")
	desc = strings.ReplaceAll(desc, "$", " ")
	return strings.Trim(collapseSpaces(desc), "- ")
}

// signed applies the sign convention: payments and credits are negative,
// everything else positive.
func signed(amount decimal.Decimal, typ models.TransactionType) decimal.Decimal {
	if typ.IsCreditSide() {
		return amount.Abs().Neg()
	}
	return amount.Abs()
}

// lineStep is one parser's attempt at a single line.
type lineStep func(line string, year int) (txn models.Transaction, method string, result string)

// scanLines runs step over every non-ignored line and records a trace.
func scanLines(text string, year int, lp *lineParser, step lineStep) ([]models.Transaction, []models.LineTrace) {
	var (
		txns  []models.Transaction
		trace []models.LineTrace
	)
	for i, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if lp.ignored(line) {
			trace = append(trace, models.LineTrace{LineNum: i + 1, Text: line, Result: resultIgnored})
			continue
		}
		txn, method, result := step(line, year)
		trace = append(trace, models.LineTrace{LineNum: i + 1, Text: line, Result: result, Method: method})
		if result == resultParsed {
			txns = append(txns, txn)
		}
	}
	return txns, trace
}

// baseStep adapts the shared line parser to scanLines.
func (lp *lineParser) baseStep(line string, year int) (models.Transaction, string, string) {
	txn, result := lp.parseLine(line, year)
	return txn, methodBase, result
}
