package parser

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/insightdelivered/card-statement-converter/internal/models"
)

func TestNew(t *testing.T) {
	tests := []struct {
		bankType models.BankType
		wantBank models.BankType
		wantName string
	}{
		{models.BankChase, models.BankChase, "Chase"},
		{models.BankAmex, models.BankAmex, "American Express"},
		{models.BankBancoNacion, models.BankBancoNacion, "Banco Nación"},
		{models.BankGeneric, models.BankGeneric, "Generic"},
		{models.BankCitibank, models.BankGeneric, "Generic"},
		{models.BankDiscover, models.BankGeneric, "Generic"},
		{"unknown", models.BankGeneric, "Generic"},
		{"", models.BankGeneric, "Generic"},
	}

	for _, tt := range tests {
		t.Run(string(tt.bankType), func(t *testing.T) {
			p := New(tt.bankType)
			if p == nil {
				t.Fatal("New returned nil")
			}
			if p.Bank() != tt.wantBank {
				t.Errorf("bank: got %q, want %q", p.Bank(), tt.wantBank)
			}
			if p.BankName() != tt.wantName {
				t.Errorf("name: got %q, want %q", p.BankName(), tt.wantName)
			}
		})
	}
}

func TestHasDedicatedParser(t *testing.T) {
	if !HasDedicatedParser(models.BankAmex) {
		t.Error("amex should have a dedicated parser")
	}
	if HasDedicatedParser(models.BankGeneric) || HasDedicatedParser(models.BankWellsFargo) {
		t.Error("generic and wells fargo use the generic parser")
	}
}

func TestGenericParser_ParseStatement(t *testing.T) {
	text := `Statement Date: 01/31/2025
Payment Due Date: 02/25/2025
New Balance: $1,234.56
Account Number: ****9876
Credit Limit: $5,000.00
--- Page 1 ---
01/02 STARBUCKS STORE #1234           5.67
01/12 PAYMENT THANK YOU             -100.00
01/15 LATE FEE 39.00
Customer Service 1-800-555-0100`

	stmt := New(models.BankGeneric).ParseStatement(text, "january.pdf")

	if len(stmt.Transactions) != 3 {
		t.Fatalf("transactions: got %d, want 3", len(stmt.Transactions))
	}
	first := stmt.Transactions[0]
	if !first.Date.Equal(models.NewDate(2025, time.January, 2)) {
		t.Errorf("date: got %s", first.Date)
	}
	if first.Amount.StringFixed(2) != "5.67" || first.Type != models.TypePurchase {
		t.Errorf("first: got %s %s", first.Amount, first.Type)
	}
	if got := stmt.Transactions[1]; got.Type != models.TypePayment || got.Amount.StringFixed(2) != "-100.00" {
		t.Errorf("payment: got %s %s", got.Amount, got.Type)
	}
	if got := stmt.Transactions[2]; got.Type != models.TypeFee {
		t.Errorf("fee: got %s", got.Type)
	}

	meta := stmt.Metadata
	if meta.BankType != models.BankGeneric || meta.BankName != "Unknown Bank" {
		t.Errorf("bank: got %q %q", meta.BankType, meta.BankName)
	}
	if meta.StatementPeriod != "Statement Date: 01/31/2025" {
		t.Errorf("period: got %q", meta.StatementPeriod)
	}
	if meta.DueDate == nil || *meta.DueDate != "02/25/2025" {
		t.Errorf("due date: got %v", meta.DueDate)
	}
	if meta.Balance != "$1,234.56" {
		t.Errorf("balance: got %q", meta.Balance)
	}
	if meta.AccountNumber == nil || *meta.AccountNumber != "****9876" {
		t.Errorf("account: got %v", meta.AccountNumber)
	}
	if meta.CreditLimit == nil || *meta.CreditLimit != "$5,000.00" {
		t.Errorf("credit limit: got %v", meta.CreditLimit)
	}

	if !containsNote(stmt.Notes, "Source file: january.pdf") {
		t.Errorf("missing source note: %v", stmt.Notes)
	}
	if !containsNote(stmt.Notes, "generic parser") {
		t.Errorf("missing generic accuracy note: %v", stmt.Notes)
	}
	if len(stmt.Trace) == 0 {
		t.Error("expected a line trace")
	}
}

func TestParsers_EmptyText(t *testing.T) {
	for _, bank := range SupportedBanks() {
		t.Run(string(bank), func(t *testing.T) {
			stmt := New(bank).ParseStatement("", "")
			if stmt == nil {
				t.Fatal("nil statement")
			}
			if stmt.Transactions == nil || len(stmt.Transactions) != 0 {
				t.Errorf("got %v, want empty non-nil slice", stmt.Transactions)
			}
			if stmt.Metadata.StatementPeriod != "Unknown" {
				t.Errorf("period: got %q", stmt.Metadata.StatementPeriod)
			}
		})
	}
}

func TestParsers_FallbackYear(t *testing.T) {
	text := "01/02 COFFEE SHOP 3.50"

	stmt := New(models.BankGeneric).ParseStatement(text, "")
	if len(stmt.Transactions) != 1 || stmt.Transactions[0].Date.Year() != DefaultFallbackYear {
		t.Fatalf("default fallback: got %+v", stmt.Transactions)
	}
	if !containsNote(stmt.Notes, "No statement year found") {
		t.Errorf("missing fallback note: %v", stmt.Notes)
	}

	stmt = New(models.BankChase, WithFallbackYear(2019)).ParseStatement(text, "")
	if len(stmt.Transactions) != 1 || stmt.Transactions[0].Date.Year() != 2019 {
		t.Fatalf("configured fallback: got %+v", stmt.Transactions)
	}
}

func TestParsers_SignInvariant(t *testing.T) {
	text := `Statement 2024
01/02 GROCERY STORE 45.10
01/03 PAYMENT THANK YOU 300.00
01/04 RETURN SHOES -60.00
01/05 INTEREST CHARGE ON PURCHASES 12.01
01/06 CASH ADVANCE 100.00
01/07 MYSTERY MERCHANT 9.99 CR
Jan 08 UBER TRIP A1B2C3D4 -12.00
COMPRAS DEL MES
05-Ene-24 SUPERMERCADO 00123 1.234,56
06-Ene-24 DEVOLUCION COMPRA 00124 100,00
TOTAL COMPRAS 1.134,56`

	for _, bank := range SupportedBanks() {
		t.Run(string(bank), func(t *testing.T) {
			stmt := New(bank).ParseStatement(text, "")
			for _, txn := range stmt.Transactions {
				if txn.Type.IsCreditSide() && txn.Amount.IsPositive() {
					t.Errorf("%q: %s amount %s should be <= 0", txn.Description, txn.Type, txn.Amount)
				}
				if !txn.Type.IsCreditSide() && txn.Amount.IsNegative() {
					t.Errorf("%q: %s amount %s should be >= 0", txn.Description, txn.Type, txn.Amount)
				}
			}
		})
	}
}

func TestParsers_Deterministic(t *testing.T) {
	text := "CHASE\nStatement Date: 02/10/2024\n01/15 AMAZON 45.99\n01/20 PAYMENT THANK YOU -500.00\n"
	for _, bank := range SupportedBanks() {
		p := New(bank)
		first := p.ParseStatement(text, "a.pdf")
		second := p.ParseStatement(text, "a.pdf")
		if !reflect.DeepEqual(first, second) {
			t.Errorf("%s: repeated parses differ", bank)
		}
	}
}

func containsNote(notes []string, sub string) bool {
	for _, n := range notes {
		if strings.Contains(n, sub) {
			return true
		}
	}
	return false
}
