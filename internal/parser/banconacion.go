package parser

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/insightdelivered/card-statement-converter/internal/models"
)

// BancoNacionParser handles Banco Nación (Argentina) Mastercard statements.
//
// Only lines between "COMPRAS DEL MES" and the closing section header are
// considered. Transaction lines use Spanish month abbreviations and
// thousands-dot / decimal-comma amounts:
//
//	15-Ene-24 SUPERMERCADO DIA 00123 12.345,67
type BancoNacionParser struct {
	opts  options
	lines *lineParser
}

type bancoPattern struct {
	re        *regexp.Regexp
	reference bool
}

var bancoTxnPatterns = []bancoPattern{
	{regexp.MustCompile(`(?i)^(\d{1,2})-([a-z]{3})\.?(?:-(\d{2}))?\s+(.+?)\s+(\d{5})\s+(-?[\d.]+,\d{2})$`), true},
	{regexp.MustCompile(`(?i)^(\d{1,2})-([a-z]{3})\.?(?:-(\d{2}))?\s+(.+?)\s+(-?[\d.]+,\d{2})$`), false},
}

var (
	bancoSectionStart = regexp.MustCompile(`(?i)COMPRAS\s+DEL\s+MES`)
	bancoSectionEnd   = regexp.MustCompile(`(?i)TOTAL\s+COMPRAS|RESUMEN\s+DE\s+CUENTA|DETALLE\s+DE\s+PAGOS`)
)

var bancoIgnorePatterns = compileAll(`(?i)`,
	`^P[aá]gina\s+\d+`,
	`^Titular:`,
	`^Tarjeta:`,
	`^Per[ií]odo:`,
	`^Vencimiento:`,
	`^Saldo:`,
	`^Pago\s+M[ií]nimo:`,
)

var bancoKeywords = []keywordRule{
	rule(models.TypePayment, `\bpago\b`, `\bpayment\b`, `acreditaci[oó]n`, `\bcredit\b`),
	rule(models.TypeFee, `comisi[oó]n`, `\bfee\b`, `\bcargo\b`, `\banual\b`),
	rule(models.TypeInterest, `inter[eé]s`, `\binterest\b`, `financiaci[oó]n`),
	rule(models.TypeCashAdvance, `\badelanto\b`, `\bcash\b`, `\batm\b`, `\bcajero\b`),
	rule(models.TypeCredit, `devoluci[oó]n`, `\brefund`, `nota\s+(?:de\s+)?cr[eé]dito`),
}

var (
	bancoCardholder  = regexp.MustCompile(`(?i)Titular:?[ \t]*([^\n]+?)[ \t]*(?:Tarjeta|\n|$)`)
	bancoBalance     = regexp.MustCompile(`(?i)(?:Saldo|Balance):?\s*\$?\s*(\d[\d.,]*)`)
	bancoMinimum     = regexp.MustCompile(`(?i)(?:Pago\s*M[ií]nimo|Minimum\s*Payment):?\s*\$?\s*(\d[\d.,]*)`)
	bancoDueDate     = regexp.MustCompile(`(?i)(?:Vencimiento|Due\s*Date):?\s*(\d{2}[/-]\d{2}[/-]\d{2,4})`)
	bancoNextClosing = regexp.MustCompile(`(?i)(?:Pr[oó]ximo\s*Cierre|Next\s*Closing):?\s*(\d{2}[/-]\d{2}[/-]\d{2,4})`)
	bancoPeriod      = regexp.MustCompile(`(?i)Per[ií]odo:?\s*(\d{2}-[a-z]{3}-\d{2})\s*al?\s*(\d{2}-[a-z]{3}-\d{2})`)
)

func newBancoNacionParser(o options) *BancoNacionParser {
	return &BancoNacionParser{
		opts:  o,
		lines: newLineParser(bancoKeywords, bancoIgnorePatterns),
	}
}

func (p *BancoNacionParser) Bank() models.BankType { return models.BankBancoNacion }

func (p *BancoNacionParser) BankName() string { return "Banco Nación" }

func (p *BancoNacionParser) ParseStatement(text, filename string) *models.ProcessedStatement {
	year, yearNote := resolveYear(text, true, p.opts.fallbackYear)
	txns, trace := p.scanSection(text, year)

	stmt := newStatement(text, filename, p.ExtractMetadata(text), txns, trace,
		fmt.Sprintf("Parsed %d transactions using Banco Nación parser", len(txns)))
	if yearNote != "" {
		stmt.AddNote(yearNote)
	}
	return stmt
}

// scanSection walks the lines with a two-state machine; lines outside the
// purchases section are never transactions, whatever they look like.
func (p *BancoNacionParser) scanSection(text string, year int) ([]models.Transaction, []models.LineTrace) {
	var (
		txns      []models.Transaction
		trace     []models.LineTrace
		inSection bool
	)
	for i, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		lt := models.LineTrace{LineNum: i + 1, Text: line}

		switch {
		case bancoSectionStart.MatchString(line):
			inSection = true
			lt.Result = resultIgnored
		case bancoSectionEnd.MatchString(line):
			inSection = false
			lt.Result = resultIgnored
		case !inSection:
			lt.Result = resultOutsideSection
		case p.lines.ignored(line):
			lt.Result = resultIgnored
		default:
			var txn models.Transaction
			txn, lt.Method, lt.Result = p.step(line, year)
			if lt.Result == resultParsed {
				txns = append(txns, txn)
			}
		}
		trace = append(trace, lt)
	}
	return txns, trace
}

func (p *BancoNacionParser) step(line string, year int) (models.Transaction, string, string) {
	if txn, ok := p.parseBancoLine(line, year); ok {
		return txn, "banco_nacion", resultParsed
	}
	return p.lines.baseStep(line, year)
}

func (p *BancoNacionParser) parseBancoLine(line string, year int) (models.Transaction, bool) {
	for _, pat := range bancoTxnPatterns {
		m := pat.re.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		date, ok := bancoDate(m[1], m[2], m[3], year)
		if !ok {
			continue
		}
		desc := collapseSpaces(m[4])
		if desc == "" {
			continue
		}
		var reference, amountText string
		if pat.reference {
			reference, amountText = m[5], m[6]
		} else {
			amountText = m[5]
		}
		amount, ok := ParseLocaleAmount(amountText)
		if !ok {
			continue
		}
		typ := p.lines.classify(desc)
		if amount.IsNegative() && typ == models.TypePurchase {
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

// bancoDate builds a date from "DD", a Spanish month and an optional 2-digit
// year. Years 00-50 are 20xx, 51-99 are 19xx.
func bancoDate(dayText, monthText, yearText string, year int) (time.Time, bool) {
	day, ok := atoi(dayText)
	if !ok {
		return time.Time{}, false
	}
	month, ok := spanishMonth(monthText)
	if !ok {
		return time.Time{}, false
	}
	if yearText != "" {
		y, ok := atoi(yearText)
		if !ok {
			return time.Time{}, false
		}
		switch {
		case y <= 50:
			year = 2000 + y
		default:
			year = 1900 + y
		}
	}
	return makeDate(year, month, day)
}

func (p *BancoNacionParser) ExtractMetadata(text string) models.StatementMetadata {
	meta := models.StatementMetadata{
		BankName:        "Banco Nación",
		BankType:        models.BankBancoNacion,
		StatementPeriod: "Unknown",
		Balance:         "0,00",
	}
	meta.AccountHolder = models.StringPtr(findFirst(text, bancoCardholder))
	if m := bancoPeriod.FindStringSubmatch(text); m != nil {
		meta.StatementPeriod = m[1] + " to " + m[2]
	}
	meta.DueDate = models.StringPtr(findFirst(text, bancoDueDate))
	meta.NextClosing = models.StringPtr(findFirst(text, bancoNextClosing))
	if v := findFirst(text, bancoBalance); v != "" {
		meta.Balance = "$" + v
	}
	if v := findFirst(text, bancoMinimum); v != "" {
		meta.MinimumPayment = models.StringPtr("$" + v)
	}
	return meta
}
