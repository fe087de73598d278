package extractor

import (
	"strings"
	"unicode"
)

// Thresholds for IsReadableText.
const (
	minTextLen     = 50
	minTextQuality = 0.6
)

// statementWords appear in virtually every card statement, English or
// Spanish. Text containing none of them is almost certainly mis-decoded.
var statementWords = []string{
	"account", "balance", "date", "payment", "statement", "total",
	"amount", "credit", "transaction", "purchase", "due", "minimum",
	"page", "period", "card", "fee",
	"saldo", "pago", "vencimiento", "cierre", "compras", "tarjeta",
}

// IsReadableText reports whether pages hold enough real text to parse:
// more than 50 characters, mostly ordinary characters, and at least one
// statement word.
func IsReadableText(pages []string) bool {
	if totalTextLen(pages) <= minTextLen {
		return false
	}
	if textQuality(pages) <= minTextQuality {
		return false
	}
	return containsStatementWords(pages)
}

// textQuality is the share of characters that are ASCII letters or digits,
// whitespace, common punctuation, or Spanish letters. Broader classes such as
// unicode.IsLetter accept the glyph soup produced by identity-encoded fonts.
func textQuality(pages []string) float64 {
	total, readable := 0, 0
	for _, page := range pages {
		for _, r := range page {
			total++
			if isReadableRune(r) {
				readable++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return float64(readable) / float64(total)
}

func isReadableRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case unicode.IsSpace(r):
		return true
	}
	return strings.ContainsRune(".,-/:;()'\"$€£%&@#!?+=*_|áéíóúñüÁÉÍÓÚÑÜ", r)
}

func containsStatementWords(pages []string) bool {
	combined := strings.ToLower(strings.Join(pages, " "))
	for _, word := range statementWords {
		if strings.Contains(combined, word) {
			return true
		}
	}
	return false
}

func totalTextLen(pages []string) int {
	n := 0
	for _, p := range pages {
		n += len(strings.TrimSpace(p))
	}
	return n
}
