package parser

import (
	"regexp"
	"strings"

	"github.com/insightdelivered/card-statement-converter/internal/models"
)

// DefaultConfidenceThreshold is the minimum score a bank needs to win detection.
const DefaultConfidenceThreshold = 0.6

const (
	matchWeight     = 0.3
	patternCap      = 1.0
	corroboration   = 0.2
	secondaryWeight = 0.1
	maxScore        = 2.0
)

type bankPatterns struct {
	bank      models.BankType
	primary   []*regexp.Regexp
	secondary []*regexp.Regexp
}

func compileAll(flags string, patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, regexp.MustCompile(flags+p))
	}
	return out
}

// detectionTable is evaluated in slice order; ties go to the earlier bank.
var detectionTable = []bankPatterns{
	{
		bank: models.BankChase,
		primary: compileAll(`(?im)`,
			`chase\s*card\s*services`,
			`chase\s*bank`,
			`jp\s*morgan\s*chase`,
			`chase\.com`,
			`chase\s*credit\s*card`,
			`chase\s*sapphire`,
			`chase\s*freedom`,
			`chase\s*slate`,
			`\bchase\b`,
		),
		secondary: compileAll(`(?i)`,
			`ultimate\s*rewards`,
			`pay\s*chase`,
			`chase\s*online`,
			`fraud\s*prevention\s*center`,
		),
	},
	{
		bank: models.BankAmex,
		primary: compileAll(`(?im)`,
			`american\s*express`,
			`amex`,
			`americanexpress\.com`,
			`member\s*since`,
			`membership\s*rewards`,
			`centurion\s*bank`,
			`amex\s*card`,
		),
		secondary: compileAll(`(?i)`,
			`pay\s*over\s*time`,
			`platinum\s*card`,
			`gold\s*card`,
			`green\s*card`,
		),
	},
	{
		bank: models.BankCitibank,
		primary: compileAll(`(?im)`,
			`citibank`,
			`citi\s*card`,
			`citicards`,
			`citi\.com`,
			`citibank\s*n\.a\.`,
			`thank\s*you\s*points`,
			`citi\s*double\s*cash`,
		),
		secondary: compileAll(`(?i)`,
			`citi\s*online`,
			`price\s*rewind`,
			`citi\s*concierge`,
		),
	},
	{
		bank: models.BankOfAmerica,
		primary: compileAll(`(?im)`,
			`bank\s*of\s*america`,
			`bankofamerica\.com`,
			`boa\s*card`,
			`merrill\s*lynch`,
			`cash\s*rewards\s*credit\s*card`,
		),
	},
	{
		bank: models.BankCapitalOne,
		primary: compileAll(`(?im)`,
			`capital\s*one`,
			`capitalone\.com`,
			`venture\s*card`,
			`quicksilver`,
			`savor\s*card`,
			`capital\s*one\s*bank`,
		),
	},
	{
		bank: models.BankWellsFargo,
		primary: compileAll(`(?im)`,
			`wells\s*fargo`,
			`wellsfargo\.com`,
			`propel\s*card`,
			`wells\s*fargo\s*bank`,
			`cash\s*wise`,
		),
	},
	{
		bank: models.BankDiscover,
		primary: compileAll(`(?im)`,
			`discover\s*card`,
			`discover\s*bank`,
			`discover\.com`,
			`cashback\s*bonus`,
			`discover\s*it`,
		),
	},
	{
		bank: models.BankBancoNacion,
		primary: compileAll(`(?im)`,
			`banco\s*naci[oó]n`,
			`naci[oó]n\s*bank`,
			`mastercard\s*gold`,
			`nacion\s*mastercard`,
			`banco\s*de\s*la\s*naci[oó]n`,
			`bna\s*mastercard`,
			`compras\s*del\s*mes`,
			`resumen\s*de\s*cuenta`,
		),
	},
}

var (
	detectWhitespace = regexp.MustCompile(`\s+`)
	detectNoise      = regexp.MustCompile(`[^\p{L}\p{N}_\s.\-@]`)
)

// BankScore is the detection evidence gathered for one bank.
type BankScore struct {
	Bank             models.BankType `json:"bank"`
	Score            float64         `json:"score"`
	PatternsMatched  int             `json:"patternsMatched"`
	TotalMatches     int             `json:"totalMatches"`
	SecondaryMatched int             `json:"secondaryMatched"`
}

// Detection is the outcome of scoring a statement against every bank.
type Detection struct {
	Bank          models.BankType
	Best          models.BankType
	BestScore     float64
	Threshold     float64
	Scores        []BankScore
	Empty         bool
	LowConfidence bool
}

// Detector scores statement text against per-bank pattern tables.
// It holds no mutable state and is safe for concurrent use.
type Detector struct {
	threshold float64
}

// NewDetector returns a detector using the given confidence threshold.
// A non-positive threshold selects DefaultConfidenceThreshold.
func NewDetector(threshold float64) *Detector {
	if threshold <= 0 {
		threshold = DefaultConfidenceThreshold
	}
	return &Detector{threshold: threshold}
}

// Detect returns the detected bank, or generic when uncertain.
func (d *Detector) Detect(text string) models.BankType {
	return d.Score(text).Bank
}

// DetectWithThreshold is Detect with an explicit confidence threshold.
func (d *Detector) DetectWithThreshold(text string, threshold float64) models.BankType {
	return score(text, threshold).Bank
}

// Score runs detection and returns the full evidence.
func (d *Detector) Score(text string) Detection {
	return score(text, d.threshold)
}

func score(text string, threshold float64) Detection {
	det := Detection{Bank: models.BankGeneric, Threshold: threshold}
	if strings.TrimSpace(text) == "" {
		det.Empty = true
		return det
	}

	clean := normalizeForDetection(text)
	for _, bp := range detectionTable {
		s := scoreBank(clean, bp)
		if s.Score <= 0 {
			continue
		}
		det.Scores = append(det.Scores, s)
		if det.Best == "" || s.Score > det.BestScore {
			det.Best = s.Bank
			det.BestScore = s.Score
		}
	}

	if det.Best == "" {
		return det
	}
	if det.BestScore < threshold {
		det.LowConfidence = true
		return det
	}
	det.Bank = det.Best
	return det
}

func normalizeForDetection(text string) string {
	clean := detectWhitespace.ReplaceAllString(strings.TrimSpace(text), " ")
	return detectNoise.ReplaceAllString(clean, " ")
}

func scoreBank(text string, bp bankPatterns) BankScore {
	s := BankScore{Bank: bp.bank}
	base := 0.0
	for _, p := range bp.primary {
		n := len(p.FindAllStringIndex(text, -1))
		if n == 0 {
			continue
		}
		s.PatternsMatched++
		s.TotalMatches += n
		base += min(float64(n)*matchWeight, patternCap)
	}
	if s.PatternsMatched > 1 {
		base *= 1 + float64(s.PatternsMatched-1)*corroboration
	}
	for _, p := range bp.secondary {
		if p.MatchString(text) {
			s.SecondaryMatched++
			base += secondaryWeight
		}
	}
	s.Score = max(0, min(base, maxScore))
	return s
}
