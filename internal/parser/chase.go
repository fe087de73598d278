package parser

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/insightdelivered/card-statement-converter/internal/models"
)

// ChaseParser handles Chase credit card statements.
//
// Transaction lines look like:
//
//	01/15 AMAZON.COM*AB12C3 SEATTLE WA 45.99
//	01/20/24 PAYMENT THANK YOU -500.00
type ChaseParser struct {
	opts  options
	lines *lineParser
}

var chaseTxnPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^(\d{1,2}/\d{1,2}(?:/\d{2})?)\s+(.+?)\s+(-?\$?-?\d[0-9,]*(?:\.\d{2})?)$`),
}

var chaseIgnorePatterns = compileAll(`(?i)`,
	`^CHASE`,
	`^Customer\s+Service`,
	`^Account\s+Summary`,
	`^Payments\s+and\s+Credits`,
	`^Purchases`,
	`^Fees`,
	`^Interest\s+Charged`,
)

var chaseKeywords = []keywordRule{
	rule(models.TypePayment, `\bpayment\b`, `\bautopay\b`, `thank\s+you`),
	rule(models.TypeFee, `annual\s+fee`, `late\s+fee`, `\boverlimit\b`),
	rule(models.TypeInterest, `\binterest\b`, `finance\s+charge`),
	rule(models.TypeCashAdvance, `cash\s+advance`, `atm\s+withdrawal`),
	rule(models.TypeCredit, `\bcredit\b`, `\brefund`, `\breturn\b`),
}

var (
	chaseStatementDate = regexp.MustCompile(`(?i)Statement\s+Date:?\s*(\d{1,2}/\d{1,2}/\d{2,4})`)
	chasePeriod        = compileAll(`(?i)`,
		`Statement\s+Period:?[ \t]*([^\n]+)`,
		`Billing\s+Period:?[ \t]*([^\n]+)`,
	)
	chaseDueDate = regexp.MustCompile(`(?i)Payment\s+Due\s+Date:?\s*(\d{1,2}/\d{1,2}/\d{2,4})`)
	chaseBalance = regexp.MustCompile(`(?i)New\s+Balance:?\s*` + amountCapture)
	chaseAccount = regexp.MustCompile(`(?i)Account\s+Number:?[ \t]*[*\-x \t]*(\d{4})`)
)

func newChaseParser(o options) *ChaseParser {
	return &ChaseParser{
		opts:  o,
		lines: newLineParser(chaseKeywords, chaseIgnorePatterns),
	}
}

func (p *ChaseParser) Bank() models.BankType { return models.BankChase }

func (p *ChaseParser) BankName() string { return "Chase" }

func (p *ChaseParser) ParseStatement(text, filename string) *models.ProcessedStatement {
	year, yearNote := resolveYear(text, false, p.opts.fallbackYear)
	txns, trace := scanLines(text, year, p.lines, p.step)

	stmt := newStatement(text, filename, p.ExtractMetadata(text), txns, trace,
		fmt.Sprintf("Parsed %d transactions from Chase statement", len(txns)))
	if yearNote != "" {
		stmt.AddNote(yearNote)
	}
	return stmt
}

func (p *ChaseParser) step(line string, year int) (models.Transaction, string, string) {
	if txn, ok := p.parseChaseLine(line, year); ok {
		return txn, "chase", resultParsed
	}
	return p.lines.baseStep(line, year)
}

func (p *ChaseParser) parseChaseLine(line string, year int) (models.Transaction, bool) {
	for _, re := range chaseTxnPatterns {
		m := re.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		date, ok := slashDate(m[1], year)
		if !ok {
			continue
		}
		amount, negative, ok := parseUSAmount(m[3])
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
		}, true
	}
	return models.Transaction{}, false
}

// slashDate parses MM/DD (statement year) or MM/DD/YY[YY].
func slashDate(s string, year int) (time.Time, bool) {
	parts := strings.Split(s, "/")
	if len(parts) < 2 || len(parts) > 3 {
		return time.Time{}, false
	}
	month, ok1 := atoi(parts[0])
	day, ok2 := atoi(parts[1])
	if !ok1 || !ok2 {
		return time.Time{}, false
	}
	if len(parts) == 3 {
		y, ok := atoi(parts[2])
		if !ok {
			return time.Time{}, false
		}
		year = expandYear(y)
	}
	return makeDate(year, time.Month(month), day)
}

func (p *ChaseParser) ExtractMetadata(text string) models.StatementMetadata {
	meta := models.StatementMetadata{
		BankName:        "Chase",
		BankType:        models.BankChase,
		StatementPeriod: "Unknown",
		Balance:         "0.00",
	}
	if v := findFirst(text, chaseStatementDate); v != "" {
		meta.StatementPeriod = "Statement Date: " + v
	} else if v := findFirst(text, chasePeriod...); v != "" {
		meta.StatementPeriod = v
	}
	meta.DueDate = models.StringPtr(findFirst(text, chaseDueDate))
	if v := findFirst(text, chaseBalance); v != "" {
		meta.Balance = "$" + v
	}
	if v := findFirst(text, chaseAccount); v != "" {
		meta.AccountNumber = models.StringPtr(maskAccount(v, 4))
	}
	fillCreditFields(&meta, text)
	return meta
}
