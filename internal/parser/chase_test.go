package parser

import (
	"testing"
	"time"

	"github.com/insightdelivered/card-statement-converter/internal/models"
)

const chaseSample = `CHASE CREDIT CARD STATEMENT
Account Number: XXXX XXXX XXXX 1234
Statement Date: 02/10/2024
Payment Due Date: 03/07/2024
New Balance: $2,345.67
Credit Limit: $10,000.00
Available Credit: $7,654.33
Minimum Payment Due: $35.00
Purchases
01/15 AMAZON.COM*AB12C3 SEATTLE WA 45.99
01/20 PAYMENT THANK YOU -500.00
01/22 ANNUAL FEE 95.00
01/25 REFUND BEST BUY 120.00
01/28 STARBUCKS STORE 5.67 CR
12/30/23 HOLIDAY INN 210.00`

func TestChaseParser_ParseStatement(t *testing.T) {
	stmt := New(models.BankChase).ParseStatement(chaseSample, "chase.pdf")

	want := []struct {
		date   time.Time
		desc   string
		amount string
		typ    models.TransactionType
	}{
		{models.NewDate(2024, time.January, 15), "AMAZON.COM*AB12C3 SEATTLE WA", "45.99", models.TypePurchase},
		{models.NewDate(2024, time.January, 20), "PAYMENT THANK YOU", "-500.00", models.TypePayment},
		{models.NewDate(2024, time.January, 22), "ANNUAL FEE", "95.00", models.TypeFee},
		{models.NewDate(2024, time.January, 25), "REFUND BEST BUY", "-120.00", models.TypeCredit},
		{models.NewDate(2024, time.January, 28), "STARBUCKS STORE", "-5.67", models.TypeCredit},
		{models.NewDate(2023, time.December, 30), "HOLIDAY INN", "210.00", models.TypePurchase},
	}

	if len(stmt.Transactions) != len(want) {
		t.Fatalf("transactions: got %d, want %d: %+v", len(stmt.Transactions), len(want), stmt.Transactions)
	}
	for i, w := range want {
		got := stmt.Transactions[i]
		if !got.Date.Equal(w.date) {
			t.Errorf("txn[%d].Date: got %s, want %s", i, got.Date, w.date)
		}
		if got.Description != w.desc {
			t.Errorf("txn[%d].Description: got %q, want %q", i, got.Description, w.desc)
		}
		if got.Amount.StringFixed(2) != w.amount {
			t.Errorf("txn[%d].Amount: got %s, want %s", i, got.Amount.StringFixed(2), w.amount)
		}
		if got.Type != w.typ {
			t.Errorf("txn[%d].Type: got %q, want %q", i, got.Type, w.typ)
		}
	}

	// The CR line has no trailing bare amount, so the shared parser handles it.
	methods := map[string]int{}
	for _, lt := range stmt.Trace {
		if lt.Result == resultParsed {
			methods[lt.Method]++
		}
	}
	if methods["chase"] != 5 || methods[methodBase] != 1 {
		t.Errorf("methods: got %v", methods)
	}
}

func TestChaseParser_ExtractMetadata(t *testing.T) {
	meta := New(models.BankChase).ExtractMetadata(chaseSample)

	if meta.BankName != "Chase" || meta.BankType != models.BankChase {
		t.Errorf("bank: got %q %q", meta.BankName, meta.BankType)
	}
	if meta.StatementPeriod != "Statement Date: 02/10/2024" {
		t.Errorf("period: got %q", meta.StatementPeriod)
	}
	checks := []struct {
		name string
		got  *string
		want string
	}{
		{"due date", meta.DueDate, "03/07/2024"},
		{"account", meta.AccountNumber, "****1234"},
		{"credit limit", meta.CreditLimit, "$10,000.00"},
		{"available credit", meta.AvailableCredit, "$7,654.33"},
		{"minimum payment", meta.MinimumPayment, "$35.00"},
	}
	for _, c := range checks {
		if c.got == nil || *c.got != c.want {
			t.Errorf("%s: got %v, want %q", c.name, c.got, c.want)
		}
	}
	if meta.Balance != "$2,345.67" {
		t.Errorf("balance: got %q", meta.Balance)
	}
}

func TestChaseParser_PeriodFallback(t *testing.T) {
	meta := New(models.BankChase).ExtractMetadata("Billing Period: 01/11/24 - 02/10/24\n")
	if meta.StatementPeriod != "01/11/24 - 02/10/24" {
		t.Errorf("period: got %q", meta.StatementPeriod)
	}
	if meta.DueDate != nil || meta.AccountNumber != nil {
		t.Error("absent fields should be nil")
	}
	if meta.Balance != "0.00" {
		t.Errorf("balance default: got %q", meta.Balance)
	}
}

func TestSlashDate(t *testing.T) {
	if d, ok := slashDate("2/29", 2024); !ok || !d.Equal(models.NewDate(2024, time.February, 29)) {
		t.Errorf("leap day: got %s %v", d, ok)
	}
	if _, ok := slashDate("2/29", 2023); ok {
		t.Error("2/29 in 2023 should be rejected")
	}
	if d, ok := slashDate("07/04/2021", 2024); !ok || d.Year() != 2021 {
		t.Errorf("explicit year: got %s %v", d, ok)
	}
	if _, ok := slashDate("13/01", 2024); ok {
		t.Error("month 13 should be rejected")
	}
}
