package extractor

import (
	"context"
	"errors"
	"strings"
	"testing"
)

const readableStatement = `CHASE CREDIT CARD STATEMENT
Statement Date: 01/15/2024
Payment Due Date: 02/10/2024
01/05 STARBUCKS STORE #1234 5.67`

func TestIsReadableText(t *testing.T) {
	tests := []struct {
		name  string
		pages []string
		want  bool
	}{
		{"statement text", []string{readableStatement}, true},
		{"spanish statement", []string{"BANCO DE LA NACIÓN ARGENTINA\nSaldo actual: $ 123.456,78\nVencimiento: 15/02/2024"}, true},
		{"too short", []string{"Balance 10.00"}, false},
		{"empty", nil, false},
		{"no statement words", []string{strings.Repeat("lorem ipsum dolor sit amet ", 5)}, false},
		{"glyph soup", []string{strings.Repeat("ÿþ\x01\x02Ǆǅ", 20) + " balance"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsReadableText(tt.pages); got != tt.want {
				t.Errorf("IsReadableText() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestJoinPages(t *testing.T) {
	got := JoinPages([]string{"first page", "  ", "third page\n"})
	want := "--- Page 1 ---\nfirst page\n\n--- Page 3 ---\nthird page\n\n"
	if got != want {
		t.Errorf("JoinPages() = %q, want %q", got, want)
	}
	if JoinPages(nil) != "" {
		t.Error("JoinPages(nil) should be empty")
	}
}

func TestJoinRow(t *testing.T) {
	items := []textItem{
		{x: 120, s: "5.67"},
		{x: 10, s: "01/05"},
		{x: 40, s: "STARBUCKS"},
		{x: 50, s: " STORE"},
	}
	if got := joinRow(items); got != "01/05  STARBUCKS STORE  5.67" {
		t.Errorf("joinRow() = %q", got)
	}
}

func TestExtract_NotAPDF(t *testing.T) {
	e := NewPDFExtractor(WithPdftotext(false))
	_, err := e.Extract(context.Background(), []byte("this is not a pdf document at all"))
	if !errors.Is(err, ErrUnreadable) {
		t.Errorf("expected ErrUnreadable, got %v", err)
	}
}

func TestExtract_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewPDFExtractor().Extract(ctx, []byte("%PDF-1.4"))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
