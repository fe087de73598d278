package parser

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/insightdelivered/card-statement-converter/internal/models"
)

// AmexParser handles American Express statements. Dates are written as
// "Jan 15" and lines may carry a trailing reference token before the amount:
//
//	Jan 15 UBER TRIP HELP.UBER.COM A1B2C3D4 23.50
type AmexParser struct {
	opts  options
	lines *lineParser
}

const amexAmount = `(-?\$?-?\d[0-9,]*(?:\.\d{2})?)`

type amexPattern struct {
	re        *regexp.Regexp
	reference bool
}

// Ordered so that a trailing reference is split off before the plain
// "Mon DD description amount" form can swallow it into the description.
var amexTxnPatterns = []amexPattern{
	{regexp.MustCompile(`^([A-Za-z]{3}\s+\d{1,2})\s+(.+?)\s+([A-Z0-9]{6,})\s+` + amexAmount + `$`), true},
	{regexp.MustCompile(`^([A-Za-z]{3}\s+\d{1,2})\s+(.+?)\s+` + amexAmount + `$`), false},
	{regexp.MustCompile(`^(\d{1,2}/\d{1,2})\s+(.+?)\s+(-?\$-?\d[0-9,]*(?:\.\d{2})?)$`), false},
}

var amexIgnorePatterns = compileAll(`(?i)`,
	`^AMERICAN\s+EXPRESS`,
	`^Member\s+Since`,
	`^Account\s+Summary`,
	`^Payments\s+and\s+Credits`,
	`^Purchases\s+and\s+Adjustments`,
	`^Fees`,
	`^Interest\s+and\s+Finance\s+Charges`,
	`^Payment\s+Due\s+Date`,
	`^Membership\s+Rewards`,
)

var amexKeywords = []keywordRule{
	rule(models.TypePayment, `\bpayment\b`, `\bautopay\b`, `thank\s+you`, `online\s+pmt`),
	rule(models.TypeFee, `annual\s+fee`, `late\s+fee`, `return(?:ed)?\s+(?:payment\s+)?fee`),
	rule(models.TypeInterest, `\binterest\b`, `finance\s+charge`, `plan\s+fees`),
	rule(models.TypeCashAdvance, `cash\s+advance`, `\batm\b`),
	rule(models.TypeCredit, `\bcredit\b`, `\brefund`, `\badjustment\b`),
}

var (
	amexStatementDate = regexp.MustCompile(`(?i)Statement\s+Date:?\s*([A-Za-z]{3}\s+\d{1,2},?\s+\d{4})`)
	amexPeriod        = compileAll(`(?i)`,
		`Statement\s+Period:?[ \t]*([^\n]+)`,
		`Billing\s+Period:?[ \t]*([^\n]+)`,
		`(?:Statement\s+)?Closing\s+Date:?[ \t]*([^\n]+)`,
	)
	amexDueDate = regexp.MustCompile(`(?i)Payment\s+Due\s+Date:?\s*([A-Za-z]{3}\s+\d{1,2},?\s+\d{4})`)
	amexBalance = compileAll(`(?i)`,
		`New\s+Balance:?\s*`+amountCapture,
		`Total\s+Balance:?\s*`+amountCapture,
		`Current\s+Balance:?\s*`+amountCapture,
	)
	amexAccountEnding = regexp.MustCompile(`(?i)Account\s+Ending\s+in:?\s*(\d{5})`)
	amexAccountNumber = regexp.MustCompile(`(?i)Account\s+Number:?\s*[*\-x]*(\d{4,5})`)
)

func newAmexParser(o options) *AmexParser {
	return &AmexParser{
		opts:  o,
		lines: newLineParser(amexKeywords, amexIgnorePatterns),
	}
}

func (p *AmexParser) Bank() models.BankType { return models.BankAmex }

func (p *AmexParser) BankName() string { return "American Express" }

func (p *AmexParser) ParseStatement(text, filename string) *models.ProcessedStatement {
	year, yearNote := resolveYear(text, false, p.opts.fallbackYear)
	txns, trace := scanLines(text, year, p.lines, p.step)

	stmt := newStatement(text, filename, p.ExtractMetadata(text), txns, trace,
		fmt.Sprintf("Parsed %d transactions from Amex statement", len(txns)))
	if yearNote != "" {
		stmt.AddNote(yearNote)
	}
	return stmt
}

func (p *AmexParser) step(line string, year int) (models.Transaction, string, string) {
	if txn, ok := p.parseAmexLine(line, year); ok {
		return txn, "amex", resultParsed
	}
	return p.lines.baseStep(line, year)
}

func (p *AmexParser) parseAmexLine(line string, year int) (models.Transaction, bool) {
	for _, pat := range amexTxnPatterns {
		m := pat.re.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		var reference, amountText string
		if pat.reference {
			reference, amountText = m[3], m[4]
			if !isReferenceToken(reference) {
				continue
			}
		} else {
			amountText = m[3]
		}

		date, ok := amexDate(m[1], year)
		if !ok {
			continue
		}
		amount, negative, ok := parseUSAmount(amountText)
		if !ok {
			continue
		}
		desc := collapseSpaces(m[2])
		if desc == "" {
			continue
		}
		typ := p.lines.classify(desc)
		if negative && typ == models.TypePurchase {
			typ = models.TypeCredit
		}
		return models.Transaction{
			Date:        date,
			Description: desc,
			Amount:      signed(amount, typ),
			Type:        typ,
			Reference:   reference,
		}, true
	}
	return models.Transaction{}, false
}

// isReferenceToken accepts mixed letter/digit tokens such as "A1B2C3D4";
// pure words and pure numbers belong to the description.
func isReferenceToken(s string) bool {
	hasLetter := strings.ContainsAny(s, "ABCDEFGHIJKLMNOPQRSTUVWXYZ")
	hasDigit := strings.ContainsAny(s, "0123456789")
	return hasLetter && hasDigit
}

// amexDate parses "Mon DD" or "MM/DD" against the statement year.
func amexDate(s string, year int) (time.Time, bool) {
	if strings.Contains(s, "/") {
		return slashDate(s, year)
	}
	fields := strings.Fields(s)
	if len(fields) != 2 {
		return time.Time{}, false
	}
	month, ok := englishMonth(fields[0])
	if !ok {
		return time.Time{}, false
	}
	day, ok := atoi(fields[1])
	if !ok {
		return time.Time{}, false
	}
	return makeDate(year, month, day)
}

func (p *AmexParser) ExtractMetadata(text string) models.StatementMetadata {
	meta := models.StatementMetadata{
		BankName:        "American Express",
		BankType:        models.BankAmex,
		StatementPeriod: "Unknown",
		Balance:         "0.00",
	}
	if v := findFirst(text, amexStatementDate); v != "" {
		meta.StatementPeriod = "Statement Date: " + v
	} else if v := findFirst(text, amexPeriod...); v != "" {
		meta.StatementPeriod = v
	}
	meta.DueDate = models.StringPtr(findFirst(text, amexDueDate))
	if v := findFirst(text, amexBalance...); v != "" {
		meta.Balance = "$" + v
	}
	if v := findFirst(text, amexAccountEnding); v != "" {
		meta.AccountNumber = models.StringPtr(maskAccount(v, 5))
	} else if v := findFirst(text, amexAccountNumber); v != "" {
		meta.AccountNumber = models.StringPtr(maskAccount(v, 4))
	}
	fillCreditFields(&meta, text)
	return meta
}
