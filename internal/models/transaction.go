package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType classifies a statement line.
type TransactionType string

const (
	TypePurchase    TransactionType = "purchase"
	TypePayment     TransactionType = "payment"
	TypeFee         TransactionType = "fee"
	TypeInterest    TransactionType = "interest"
	TypeCredit      TransactionType = "credit"
	TypeCashAdvance TransactionType = "cash_advance"
	TypeTransfer    TransactionType = "transfer"
	TypeOther       TransactionType = "other"
)

// IsCreditSide reports whether amounts of this type are stored negative.
func (t TransactionType) IsCreditSide() bool {
	return t == TypePayment || t == TypeCredit
}

// Transaction represents a single credit card statement transaction.
type Transaction struct {
	Date        time.Time       `json:"date"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Type        TransactionType `json:"transactionType"`
	Category    string          `json:"category,omitempty"`
	Reference   string          `json:"reference,omitempty"`
}

// BankType identifies the issuing institution or format family.
type BankType string

const (
	BankChase       BankType = "chase"
	BankAmex        BankType = "amex"
	BankCitibank    BankType = "citibank"
	BankOfAmerica   BankType = "bank_of_america"
	BankCapitalOne  BankType = "capital_one"
	BankWellsFargo  BankType = "wells_fargo"
	BankDiscover    BankType = "discover"
	BankBancoNacion BankType = "banco_nacion"
	BankGeneric     BankType = "generic"
)

// AllBanks lists every bank tag in detection order, generic last.
var AllBanks = []BankType{
	BankChase,
	BankAmex,
	BankCitibank,
	BankOfAmerica,
	BankCapitalOne,
	BankWellsFargo,
	BankDiscover,
	BankBancoNacion,
	BankGeneric,
}

// ParseBankType maps a user supplied tag to a BankType.
func ParseBankType(s string) (BankType, bool) {
	for _, b := range AllBanks {
		if string(b) == s {
			return b, true
		}
	}
	return "", false
}

// NewDate returns the UTC midnight value used for transaction dates.
func NewDate(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
