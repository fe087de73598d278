package cleaner

import "regexp"

type merchantRule struct {
	re   *regexp.Regexp
	name string
}

func merchant(pattern, name string) merchantRule {
	return merchantRule{re: regexp.MustCompile(`(?i)` + pattern), name: name}
}

// merchantRules is ordered; the first rule that matches wins.
var merchantRules = []merchantRule{
	// Gas stations
	merchant(`\bshell\b\s*\d*`, "Shell"),
	merchant(`\bexxon\s*mobil\b\s*\d*`, "ExxonMobil"),
	merchant(`\bbp\b\s*\d*`, "BP"),
	merchant(`\bchevron\b\s*\d*`, "Chevron"),
	merchant(`\btexaco\b\s*\d*`, "Texaco"),

	// Grocery
	merchant(`\bwalmart\s*supercenter\b\s*\d*`, "Walmart"),
	merchant(`\btarget\b\s*\d*`, "Target"),
	merchant(`\bkroger\b\s*\d*`, "Kroger"),
	merchant(`\bsafeway\b\s*\d*`, "Safeway"),
	merchant(`\bwhole\s*foods\b\s*\d*`, "Whole Foods"),

	// Restaurants
	merchant(`\bmcdonald'?s\b\s*\d*`, "McDonald's"),
	merchant(`\bstarbucks\b\s*\d*`, "Starbucks"),
	merchant(`\bsubway\b\s*\d*`, "Subway"),
	merchant(`\btaco\s*bell\b\s*\d*`, "Taco Bell"),
	merchant(`\bpizza\s*hut\b\s*\d*`, "Pizza Hut"),

	// Online services
	merchant(`\bamazon\.com\*?\w*`, "Amazon"),
	merchant(`\bamzn\s*mktp\s*us\b`, "Amazon"),
	merchant(`\bpaypal\s*\*?\w*`, "PayPal"),
	merchant(`\bnetflix\.com\b`, "Netflix"),
	merchant(`\bspotify\b\s*\w*`, "Spotify"),

	// Utilities
	merchant(`\belectric\s*company\b\s*\d*`, "Electric Company"),
	merchant(`\bgas\s*company\b\s*\d*`, "Gas Company"),
	merchant(`\bwater\s*dept\b\s*\d*`, "Water Department"),
}

type categoryRule struct {
	name     string
	patterns []*regexp.Regexp
}

func category(name string, patterns ...string) categoryRule {
	c := categoryRule{name: name}
	for _, p := range patterns {
		c.patterns = append(c.patterns, regexp.MustCompile(`(?i)`+p))
	}
	return c
}

// Category names.
const (
	CategoryGas            = "Gas"
	CategoryGroceries      = "Groceries"
	CategoryRestaurants    = "Restaurants"
	CategoryOnlineShopping = "Online Shopping"
	CategoryEntertainment  = "Entertainment"
	CategoryUtilities      = "Utilities"
	CategoryTransportation = "Transportation"
	CategoryHealthcare     = "Healthcare"
)

// categoryRules is ordered; the first group with a matching pattern wins.
var categoryRules = []categoryRule{
	category(CategoryGas,
		`\b(?:shell|exxon|bp|chevron|texaco)\b|gas\s*station`,
		`\bfuel\b|gasoline`),
	category(CategoryGroceries,
		`walmart|\btarget\b|kroger|safeway|whole\s*foods|grocery`,
		`supermarket|food\s*store`),
	category(CategoryRestaurants,
		`mcdonald|starbucks|\bsubway\b|taco\s*bell|pizza|restaurant`,
		`\bfood\b|dining|\bcafe\b|bistro`),
	category(CategoryOnlineShopping,
		`amazon|\bebay\b|\betsy\b|\bonline\b`,
		`amzn\s*mktp`),
	category(CategoryEntertainment,
		`netflix|spotify|\bhulu\b|disney|movie|theater`,
		`entertainment|streaming`),
	category(CategoryUtilities,
		`electric|gas\s*company|\bwater\b|utility|\bpower\b`,
		`\bphone\b|internet|\bcable\b`),
	category(CategoryTransportation,
		`\buber\b|\blyft\b|\btaxi\b|\bbus\b|\bmetro\b|transit`,
		`parking|\btolls?\b`),
	category(CategoryHealthcare,
		`pharmacy|\bcvs\b|walgreens|hospital|medical`,
		`doctor|dentist|clinic`),
}

// keepUpper are tokens that stay uppercase when descriptions are re-cased.
var keepUpper = map[string]bool{
	"ATM": true, "POS": true, "ACH": true, "API": true,
	"LLC": true, "INC": true, "USA": true, "US": true,
}

var stateCodes = map[string]bool{
	"AL": true, "AK": true, "AZ": true, "AR": true, "CA": true, "CO": true, "CT": true, "DE": true, "FL": true, "GA": true,
	"HI": true, "ID": true, "IL": true, "IN": true, "IA": true, "KS": true, "KY": true, "LA": true, "ME": true, "MD": true,
	"MA": true, "MI": true, "MN": true, "MS": true, "MO": true, "MT": true, "NE": true, "NV": true, "NH": true, "NJ": true,
	"NM": true, "NY": true, "NC": true, "ND": true, "OH": true, "OK": true, "OR": true, "PA": true, "RI": true, "SC": true,
	"SD": true, "TN": true, "TX": true, "UT": true, "VT": true, "VA": true, "WA": true, "WV": true, "WI": true, "WY": true,
}
