package parser

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/insightdelivered/card-statement-converter/internal/models"
)

func TestLineParser_TryParseLine(t *testing.T) {
	lp := newLineParser(baseKeywords)

	tests := []struct {
		name   string
		line   string
		ok     bool
		date   time.Time
		desc   string
		amount string
		typ    models.TransactionType
	}{
		{
			name:   "short date uses statement year",
			line:   "01/02 STARBUCKS STORE #1234           5.67",
			ok:     true,
			date:   models.NewDate(2024, time.January, 2),
			desc:   "STARBUCKS STORE #1234",
			amount: "5.67",
			typ:    models.TypePurchase,
		},
		{
			name:   "payment is negative",
			line:   "01/12 PAYMENT THANK YOU             -100.00",
			ok:     true,
			date:   models.NewDate(2024, time.January, 12),
			desc:   "PAYMENT THANK YOU",
			amount: "-100.00",
			typ:    models.TypePayment,
		},
		{
			name:   "iso date with thousands",
			line:   "2024-03-05 GROCERY OUTLET 1,234.56",
			ok:     true,
			date:   models.NewDate(2024, time.March, 5),
			desc:   "GROCERY OUTLET",
			amount: "1234.56",
			typ:    models.TypePurchase,
		},
		{
			name:   "month name date",
			line:   "Jan 15, 2023 LATE FEE $39.00",
			ok:     true,
			date:   models.NewDate(2023, time.January, 15),
			desc:   "LATE FEE",
			amount: "39.00",
			typ:    models.TypeFee,
		},
		{
			name:   "dashed date and cash advance",
			line:   "03-15-2024 ATM WITHDRAWAL 200.00",
			ok:     true,
			date:   models.NewDate(2024, time.March, 15),
			desc:   "ATM WITHDRAWAL",
			amount: "200.00",
			typ:    models.TypeCashAdvance,
		},
		{
			name:   "two digit year",
			line:   "12/31/23 NEW YEAR DINNER 80.25",
			ok:     true,
			date:   models.NewDate(2023, time.December, 31),
			desc:   "NEW YEAR DINNER",
			amount: "80.25",
			typ:    models.TypePurchase,
		},
		{
			name:   "CR suffix marks a credit",
			line:   "01/08 AMAZON MARKETPLACE 25.00 CR",
			ok:     true,
			date:   models.NewDate(2024, time.January, 8),
			desc:   "AMAZON MARKETPLACE",
			amount: "-25.00",
			typ:    models.TypeCredit,
		},
		{
			name:   "hyphen in phone number is not a credit",
			line:   "01/09 STORE 555-123-4567 ANYTOWN 10.00",
			ok:     true,
			date:   models.NewDate(2024, time.January, 9),
			desc:   "STORE 555-123-4567 ANYTOWN",
			amount: "10.00",
			typ:    models.TypePurchase,
		},
		{
			name:   "separator dash is not a sign",
			line:   "01/15 ACME HARDWARE - 12.50",
			ok:     true,
			date:   models.NewDate(2024, time.January, 15),
			desc:   "ACME HARDWARE",
			amount: "12.50",
			typ:    models.TypePurchase,
		},
		{
			name:   "separator dash before dollar amount",
			line:   "01/16 CORNER DELI - $8.25",
			ok:     true,
			date:   models.NewDate(2024, time.January, 16),
			desc:   "CORNER DELI",
			amount: "8.25",
			typ:    models.TypePurchase,
		},
		{
			name:   "sign before spaced dollar amount",
			line:   "01/17 RETURNED ITEM -$ 15.00",
			ok:     true,
			date:   models.NewDate(2024, time.January, 17),
			desc:   "RETURNED ITEM",
			amount: "-15.00",
			typ:    models.TypeCredit,
		},
		{
			name:   "last amount wins",
			line:   "01/10 HOTEL DEPOSIT 50.00 TOTAL 250.00",
			ok:     true,
			date:   models.NewDate(2024, time.January, 10),
			desc:   "HOTEL DEPOSIT TOTAL",
			amount: "250.00",
			typ:    models.TypePurchase,
		},
		{
			name:   "refund keyword",
			line:   "01/11 REFUND BEST BUY 120.00",
			ok:     true,
			date:   models.NewDate(2024, time.January, 11),
			desc:   "REFUND BEST BUY",
			amount: "-120.00",
			typ:    models.TypeCredit,
		},
		{
			name:   "coffee is not a fee",
			line:   "01/13 COFFEE BEAN 4.50",
			ok:     true,
			date:   models.NewDate(2024, time.January, 13),
			desc:   "COFFEE BEAN",
			amount: "4.50",
			typ:    models.TypePurchase,
		},
		{name: "impossible date", line: "02/30/2024 IMPOSSIBLE 10.00"},
		{name: "no amount", line: "01/05 NO AMOUNT HERE"},
		{name: "no date", line: "STARBUCKS 5.67"},
		{name: "empty description", line: "01/05 12.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txn, ok := lp.tryParseLine(tt.line, 2024)
			if ok != tt.ok {
				t.Fatalf("ok: got %v, want %v (txn %+v)", ok, tt.ok, txn)
			}
			if !ok {
				return
			}
			if !txn.Date.Equal(tt.date) {
				t.Errorf("date: got %s, want %s", txn.Date, tt.date)
			}
			if txn.Description != tt.desc {
				t.Errorf("description: got %q, want %q", txn.Description, tt.desc)
			}
			if txn.Amount.StringFixed(2) != decimal.RequireFromString(tt.amount).StringFixed(2) {
				t.Errorf("amount: got %s, want %s", txn.Amount.StringFixed(2), tt.amount)
			}
			if txn.Type != tt.typ {
				t.Errorf("type: got %q, want %q", txn.Type, tt.typ)
			}
		})
	}
}

func TestLineParser_Ignored(t *testing.T) {
	lp := newLineParser(genericKeywords, genericIgnorePatterns)
	ignored := []string{
		"--- Page 2 ---",
		"Page 3 of 4",
		"Statement Date: 01/31/2024",
		"New Balance: $1,000.00",
		"Total fees charged 0.00",
		"-----------",
		"==========",
		"www.example.com",
		"12345",
	}
	for _, line := range ignored {
		if !lp.ignored(line) {
			t.Errorf("expected %q to be ignored", line)
		}
	}
	if lp.ignored("01/02 STARBUCKS 5.67") {
		t.Error("transaction line was ignored")
	}
}

func TestSigned(t *testing.T) {
	amt := decimal.RequireFromString("-12.34")
	if got := signed(amt, models.TypePurchase); !got.Equal(decimal.RequireFromString("12.34")) {
		t.Errorf("purchase: got %s", got)
	}
	if got := signed(amt.Abs(), models.TypePayment); !got.Equal(amt) {
		t.Errorf("payment: got %s", got)
	}
	if got := signed(amt.Abs(), models.TypeCredit); !got.IsNegative() {
		t.Errorf("credit: got %s", got)
	}
	if got := signed(amt, models.TypeInterest); got.IsNegative() {
		t.Errorf("interest: got %s", got)
	}
}
