package parser

import (
	"testing"

	"github.com/insightdelivered/card-statement-converter/internal/models"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected models.BankType
	}{
		{
			name:     "chase credit card statement",
			text:     "CHASE CREDIT CARD STATEMENT\nAccount Number: 1234",
			expected: models.BankChase,
		},
		{
			name:     "american express",
			text:     "AMERICAN EXPRESS\nMembership Rewards\nMember Since 2015",
			expected: models.BankAmex,
		},
		{
			name:     "banco nacion with accent",
			text:     "BANCO DE LA NACIÓN ARGENTINA\nMASTERCARD GOLD\nCOMPRAS DEL MES",
			expected: models.BankBancoNacion,
		},
		{
			name:     "capital one",
			text:     "Capital One Bank\nQuicksilver Rewards\ncapitalone.com",
			expected: models.BankCapitalOne,
		},
		{
			name:     "empty text",
			text:     "",
			expected: models.BankGeneric,
		},
		{
			name:     "whitespace only",
			text:     "   \n\t  ",
			expected: models.BankGeneric,
		},
		{
			name:     "no bank evidence",
			text:     "Monthly statement\n01/02 COFFEE 3.50",
			expected: models.BankGeneric,
		},
		{
			name:     "single weak match stays generic",
			text:     "paid with amex at the store",
			expected: models.BankGeneric,
		},
	}

	d := NewDetector(0)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := d.Detect(tt.text); got != tt.expected {
				t.Errorf("got %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestDetector_Score(t *testing.T) {
	d := NewDetector(DefaultConfidenceThreshold)

	det := d.Score("CHASE CREDIT CARD STATEMENT\nAccount Number: 1234")
	if det.Best != models.BankChase {
		t.Fatalf("best: got %q, want chase", det.Best)
	}
	// Two distinct patterns at 0.3 each, boosted by 1.2.
	if det.BestScore < 0.719 || det.BestScore > 0.721 {
		t.Errorf("score: got %f, want 0.72", det.BestScore)
	}
	if det.LowConfidence {
		t.Error("expected confident detection")
	}

	empty := d.Score("")
	if !empty.Empty || empty.Bank != models.BankGeneric {
		t.Errorf("empty text: got %+v", empty)
	}

	weak := d.Score("paid with amex")
	if !weak.LowConfidence || weak.Best != models.BankAmex || weak.Bank != models.BankGeneric {
		t.Errorf("weak text: got %+v", weak)
	}

	none := d.Score("nothing to see here")
	if none.LowConfidence || len(none.Scores) != 0 {
		t.Errorf("no matches should skip the threshold check: got %+v", none)
	}
}

func TestDetector_ScoreIsClamped(t *testing.T) {
	text := ""
	for i := 0; i < 10; i++ {
		text += "Chase Card Services chase bank JP Morgan Chase chase.com Chase Sapphire Chase Freedom Ultimate Rewards\n"
	}
	det := NewDetector(0).Score(text)
	if det.BestScore != maxScore {
		t.Errorf("got %f, want clamp at %f", det.BestScore, maxScore)
	}
}

func TestDetector_Monotonic(t *testing.T) {
	d := NewDetector(0)
	texts := []string{
		"chase bank",
		"chase bank chase.com",
		"chase bank chase.com chase sapphire",
		"chase bank chase.com chase sapphire chase freedom",
	}
	prev := 0.0
	for _, text := range texts {
		score := bankScore(d.Score(text), models.BankChase)
		if score < prev {
			t.Errorf("%q: score %f dropped below %f", text, score, prev)
		}
		prev = score
	}
}

func TestDetector_TieGoesToEarlierBank(t *testing.T) {
	d := NewDetector(0)
	text := "amex citibank"

	det := d.Score(text)
	if bankScore(det, models.BankAmex) != bankScore(det, models.BankCitibank) {
		t.Fatalf("expected equal scores, got %+v", det.Scores)
	}
	if got := d.DetectWithThreshold(text, 0.2); got != models.BankAmex {
		t.Errorf("got %q, want amex", got)
	}
}

func TestDetector_Deterministic(t *testing.T) {
	d := NewDetector(0)
	text := "AMERICAN EXPRESS Platinum Card\nMember Since 2010\nJan 15 UBER 12.00"
	first := d.Score(text)
	for i := 0; i < 20; i++ {
		got := d.Score(text)
		if got.Bank != first.Bank || got.BestScore != first.BestScore || len(got.Scores) != len(first.Scores) {
			t.Fatalf("run %d differs: %+v vs %+v", i, got, first)
		}
	}
}

func TestNormalizeForDetection(t *testing.T) {
	got := normalizeForDetection("  Banco   Nación\n*** chase.com/pay  ")
	want := "Banco Nación     chase.com pay"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func bankScore(det Detection, bank models.BankType) float64 {
	for _, s := range det.Scores {
		if s.Bank == bank {
			return s.Score
		}
	}
	return 0
}
