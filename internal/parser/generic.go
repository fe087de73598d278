package parser

import (
	"fmt"
	"regexp"

	"github.com/insightdelivered/card-statement-converter/internal/models"
)

// GenericParser handles statements from banks without a dedicated parser.
// It relies on the shared line parser and broad metadata patterns.
type GenericParser struct {
	opts  options
	lines *lineParser
}

var genericIgnorePatterns = compileAll(`(?i)`,
	`^Payment\s+Due`,
	`^Summary`,
	`^Customer\s+Service`,
	`^Questions\?`,
	`^Visit\s+us`,
	`^Call\s+us`,
	`^www\.`,
	`^http`,
	`^\d+\s*$`,
)

var genericKeywords = []keywordRule{
	rule(models.TypePayment, `\bpayment\b`, `\bpay\b`, `\bautopay\b`, `thank\s+you`),
	rule(models.TypeFee, `\bfees?\b`, `\bannual\b`, `\blate\b`),
	rule(models.TypeInterest, `\binterest\b`, `\bfinance\b`, `\bapr\b`),
	rule(models.TypeCashAdvance, `cash\s+advance`, `\batm\b`, `\bwithdrawal\b`),
	rule(models.TypeCredit, `\bcredit\b`, `\brefund`, `\breturn\b`, `\badjustment\b`),
}

const amountCapture = `\$?\s*(\d[0-9,]*(?:\.\d{2})?)`

var (
	genericBankNames = []struct {
		re   *regexp.Regexp
		name string
	}{
		{regexp.MustCompile(`(?i)chase`), "Chase"},
		{regexp.MustCompile(`(?i)american\s+express|amex`), "American Express"},
		{regexp.MustCompile(`(?i)citibank|citi`), "Citibank"},
		{regexp.MustCompile(`(?i)bank\s+of\s+america`), "Bank of America"},
		{regexp.MustCompile(`(?i)capital\s+one`), "Capital One"},
		{regexp.MustCompile(`(?i)wells\s+fargo`), "Wells Fargo"},
		{regexp.MustCompile(`(?i)discover`), "Discover"},
		{regexp.MustCompile(`(?i)synchrony`), "Synchrony Bank"},
		{regexp.MustCompile(`(?i)barclays`), "Barclays"},
	}

	genericStatementDate = compileAll(`(?i)`,
		`statement\s+date:?\s*(\d{1,2}/\d{1,2}/\d{2,4})`,
		`statement\s+date:?\s*([A-Za-z]{3}\s+\d{1,2},?\s+\d{4})`,
		`closing\s+date:?\s*(\d{1,2}/\d{1,2}/\d{2,4})`,
	)
	genericDueDate = compileAll(`(?i)`,
		`(?:payment\s+)?due\s+date:?\s*(\d{1,2}/\d{1,2}/\d{2,4})`,
		`(?:payment\s+)?due\s+date:?\s*([A-Za-z]{3}\s+\d{1,2},?\s+\d{4})`,
		`due:?\s*(\d{1,2}/\d{1,2}/\d{2,4})`,
	)
	genericBalance = compileAll(`(?i)`,
		`(?:new|current|total|outstanding)\s+balance:?\s*`+amountCapture,
		`balance:?\s*`+amountCapture,
		`\$(\d[0-9,]*(?:\.\d{2})?)\s+(?:balance|total)`,
	)
	genericAccount = compileAll(`(?i)`,
		`account\s+(?:number|#):?\s*[*\-x]*(\d{4,5})`,
		`acct\s+(?:number|#):?\s*[*\-x]*(\d{4,5})`,
		`ending\s+in:?\s*(\d{4,5})`,
	)

	creditLimitPatterns     = compileAll(`(?i)`, `credit\s+(?:limit|line):?\s*`+amountCapture)
	availableCreditPatterns = compileAll(`(?i)`, `available\s+credit(?:\s+line)?:?\s*`+amountCapture)
	minimumPaymentPatterns  = compileAll(`(?i)`, `minimum\s+payment(?:\s+due)?:?\s*`+amountCapture)
)

func newGenericParser(o options) *GenericParser {
	return &GenericParser{
		opts:  o,
		lines: newLineParser(genericKeywords, genericIgnorePatterns),
	}
}

func (p *GenericParser) Bank() models.BankType { return models.BankGeneric }

func (p *GenericParser) BankName() string { return "Generic" }

func (p *GenericParser) ParseStatement(text, filename string) *models.ProcessedStatement {
	year, yearNote := resolveYear(text, false, p.opts.fallbackYear)
	txns, trace := scanLines(text, year, p.lines, p.lines.baseStep)

	stmt := newStatement(text, filename, p.ExtractMetadata(text), txns, trace,
		fmt.Sprintf("Parsed %d transactions using generic parser", len(txns)))
	if yearNote != "" {
		stmt.AddNote(yearNote)
	}
	stmt.AddNote("Used generic parser - results may be less accurate than bank-specific parsing")
	return stmt
}

func (p *GenericParser) ExtractMetadata(text string) models.StatementMetadata {
	meta := models.StatementMetadata{
		BankName:        genericBankName(text),
		BankType:        models.BankGeneric,
		StatementPeriod: "Unknown",
		Balance:         "0.00",
	}
	if v := findFirst(text, genericStatementDate...); v != "" {
		meta.StatementPeriod = "Statement Date: " + v
	}
	meta.DueDate = models.StringPtr(findFirst(text, genericDueDate...))
	if v := findFirst(text, genericBalance...); v != "" {
		meta.Balance = "$" + v
	}
	if v := findFirst(text, genericAccount...); v != "" {
		meta.AccountNumber = models.StringPtr(maskAccount(v, 4))
	}
	fillCreditFields(&meta, text)
	return meta
}

func genericBankName(text string) string {
	for _, b := range genericBankNames {
		if b.re.MatchString(text) {
			return b.name
		}
	}
	return "Unknown Bank"
}

// fillCreditFields sets the optional US credit line fields when present.
func fillCreditFields(meta *models.StatementMetadata, text string) {
	if v := findFirst(text, creditLimitPatterns...); v != "" {
		meta.CreditLimit = models.StringPtr("$" + v)
	}
	if v := findFirst(text, availableCreditPatterns...); v != "" {
		meta.AvailableCredit = models.StringPtr("$" + v)
	}
	if v := findFirst(text, minimumPaymentPatterns...); v != "" {
		meta.MinimumPayment = models.StringPtr("$" + v)
	}
}
