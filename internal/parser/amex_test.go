package parser

import (
	"testing"
	"time"

	"github.com/insightdelivered/card-statement-converter/internal/models"
)

const amexSample = `AMERICAN EXPRESS
Statement Date: Feb 10, 2024
Payment Due Date: Mar 05, 2024
New Balance: $1,234.56
Account Ending in 12345
Jan 15 UBER TRIP HELP.UBER.COM A1B2C3D4 23.50
Jan 20 ONLINE PAYMENT - THANK YOU -1,200.00
Feb 03 WHOLEFOODS MARKET 45.00
Feb 04 AMAZON MARKETPLACE 123456 19.99
02/05 NETFLIX.COM $15.99
Feb 06 LATE FEE 39.00`

func TestAmexParser_ParseStatement(t *testing.T) {
	stmt := New(models.BankAmex).ParseStatement(amexSample, "")

	want := []struct {
		date   time.Time
		desc   string
		amount string
		typ    models.TransactionType
		ref    string
	}{
		{models.NewDate(2024, time.January, 15), "UBER TRIP HELP.UBER.COM", "23.50", models.TypePurchase, "A1B2C3D4"},
		{models.NewDate(2024, time.January, 20), "ONLINE PAYMENT - THANK YOU", "-1200.00", models.TypePayment, ""},
		{models.NewDate(2024, time.February, 3), "WHOLEFOODS MARKET", "45.00", models.TypePurchase, ""},
		{models.NewDate(2024, time.February, 4), "AMAZON MARKETPLACE 123456", "19.99", models.TypePurchase, ""},
		{models.NewDate(2024, time.February, 5), "NETFLIX.COM", "15.99", models.TypePurchase, ""},
		{models.NewDate(2024, time.February, 6), "LATE FEE", "39.00", models.TypeFee, ""},
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
		if got.Reference != w.ref {
			t.Errorf("txn[%d].Reference: got %q, want %q", i, got.Reference, w.ref)
		}
	}
}

func TestAmexParser_ExtractMetadata(t *testing.T) {
	meta := New(models.BankAmex).ExtractMetadata(amexSample)

	if meta.BankName != "American Express" {
		t.Errorf("bank name: got %q", meta.BankName)
	}
	if meta.StatementPeriod != "Statement Date: Feb 10, 2024" {
		t.Errorf("period: got %q", meta.StatementPeriod)
	}
	if meta.DueDate == nil || *meta.DueDate != "Mar 05, 2024" {
		t.Errorf("due date: got %v", meta.DueDate)
	}
	if meta.Balance != "$1,234.56" {
		t.Errorf("balance: got %q", meta.Balance)
	}
	if meta.AccountNumber == nil || *meta.AccountNumber != "*****12345" {
		t.Errorf("account: got %v", meta.AccountNumber)
	}

	alt := New(models.BankAmex).ExtractMetadata("Current Balance: 99.10\nAccount Number: xxxx-4321\n")
	if alt.Balance != "$99.10" {
		t.Errorf("alt balance: got %q", alt.Balance)
	}
	if alt.AccountNumber == nil || *alt.AccountNumber != "****4321" {
		t.Errorf("alt account: got %v", alt.AccountNumber)
	}
}

func TestIsReferenceToken(t *testing.T) {
	tests := map[string]bool{
		"A1B2C3D4":  true,
		"320240115": false,
		"MARKET":    false,
		"AB12CD":    true,
	}
	for in, want := range tests {
		if got := isReferenceToken(in); got != want {
			t.Errorf("isReferenceToken(%q) = %v, want %v", in, got, want)
		}
	}
}
