package parser

import (
	"fmt"

	"github.com/insightdelivered/card-statement-converter/internal/models"
)

// Parser defines the interface for credit card statement parsers.
type Parser interface {
	// ParseStatement turns extracted statement text into transactions and
	// metadata. It never fails; a statement with no recognisable lines has
	// zero transactions.
	ParseStatement(text, filename string) *models.ProcessedStatement
	// ExtractMetadata reads the statement-level labelled fields.
	ExtractMetadata(text string) models.StatementMetadata
	// Bank returns the bank tag this parser handles.
	Bank() models.BankType
	// BankName returns the human-readable bank name.
	BankName() string
}

type options struct {
	fallbackYear int
}

// Option configures a parser.
type Option func(*options)

// WithFallbackYear sets the year assumed when a statement carries no 4-digit
// year token.
func WithFallbackYear(year int) Option {
	return func(o *options) {
		if year > 0 {
			o.fallbackYear = year
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{fallbackYear: DefaultFallbackYear}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// New returns the parser for the given bank type. Banks without a dedicated
// parser, and unknown tags, get the generic parser.
func New(bankType models.BankType, opts ...Option) Parser {
	o := buildOptions(opts)
	switch bankType {
	case models.BankChase:
		return newChaseParser(o)
	case models.BankAmex:
		return newAmexParser(o)
	case models.BankBancoNacion:
		return newBancoNacionParser(o)
	default:
		return newGenericParser(o)
	}
}

// SupportedBanks lists the banks with a dedicated parser, generic last.
func SupportedBanks() []models.BankType {
	return []models.BankType{
		models.BankChase,
		models.BankAmex,
		models.BankBancoNacion,
		models.BankGeneric,
	}
}

// HasDedicatedParser reports whether bankType has its own parser rather than
// the generic fallback.
func HasDedicatedParser(bankType models.BankType) bool {
	for _, b := range SupportedBanks() {
		if b == bankType && b != models.BankGeneric {
			return true
		}
	}
	return false
}

// resolveYear finds the statement year, falling back to the configured year.
// The returned note is non-empty when the fallback was used.
func resolveYear(text string, useMax bool, fallback int) (int, string) {
	find := firstYear
	if useMax {
		find = maxYear
	}
	if y, ok := find(text); ok {
		return y, ""
	}
	return fallback, fmt.Sprintf("No statement year found; assuming %d", fallback)
}

// newStatement assembles the common parts of a parse result.
func newStatement(text, filename string, meta models.StatementMetadata, txns []models.Transaction, trace []models.LineTrace, summary string) *models.ProcessedStatement {
	stmt := &models.ProcessedStatement{
		Transactions: txns,
		Metadata:     meta,
		RawText:      text,
		Trace:        trace,
	}
	if stmt.Transactions == nil {
		stmt.Transactions = []models.Transaction{}
	}
	stmt.AddNote(summary)
	if filename != "" {
		stmt.AddNote("Source file: " + filename)
	}
	return stmt
}
