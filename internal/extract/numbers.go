package extract

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"vehiclescraper/internal/models"
)

// now is replaced in tests that depend on the current year.
var now = time.Now

const (
	minYear = 1990

	minMileageKm = 1
	maxMileageKm = 2_000_000

	milesToKm = 1.60934
)

// priceRange is the plausible price band per currency.
var priceRange = map[string][2]int{
	models.CurrencyEUR: {100, 500_000},
	models.CurrencyUSD: {100, 500_000},
	models.CurrencyGBP: {1_000, 500_000},
}

// num matches "45,000", "45.000", "45 000" or "45000". A number uses one
// separator style, and a space-grouped number must end at a word boundary so
// "€1 500 2005" stops before the year.
const num = `\b(\d{1,3}(?:,\d{3})+|\d{1,3}(?:\.\d{3})+|\d{1,3}(?:[ \x{00A0}]\d{3})+\b|\d+)`

// pricePattern is a currency regex. Suffix patterns put the amount before
// the currency marker.
type pricePattern struct {
	re     *regexp.Regexp
	suffix bool
}

func prefixPrice(expr string) pricePattern {
	return pricePattern{re: regexp.MustCompile(expr)}
}

func suffixPrice(expr string) pricePattern {
	return pricePattern{re: regexp.MustCompile(expr), suffix: true}
}

var pricePatterns = map[string][]pricePattern{
	models.CurrencyEUR: {
		prefixPrice(`€\s?` + num),
		suffixPrice(num + `\s?€`),
		prefixPrice(`(?i)\bEUR\s?` + num),
		suffixPrice(`(?i)` + num + `\s?(?:EUR|euros?)\b`),
	},
	models.CurrencyGBP: {
		prefixPrice(`£\s?` + num),
		prefixPrice(`(?i)\bGBP\s?` + num),
		suffixPrice(`(?i)` + num + `\s?GBP\b`),
	},
	models.CurrencyUSD: {
		prefixPrice(`\$\s?` + num),
		prefixPrice(`(?i)\bUSD\s?` + num),
		suffixPrice(`(?i)` + num + `\s?USD\b`),
	},
}

var (
	yearRegex = regexp.MustCompile(`\b(19\d{2}|20\d{2})\b`)

	kmRegex         = regexp.MustCompile(`(?i)` + num + `\s?(?:km|kms|kilometers|kilometres)\b`)
	kmShortRegex    = regexp.MustCompile(`(?i)\b(\d{1,3}(?:\.\d)?)\s?k\s?(?:km|kms)\b`)
	milesRegex      = regexp.MustCompile(`(?i)` + num + `\s?(?:miles|mi)\b(\s+away)?`)
	milesShortRegex = regexp.MustCompile(`(?i)\b(\d{1,3}(?:\.\d)?)\s?k\s?miles\b(\s+away)?`)
	nonDigitRegex   = regexp.MustCompile(`[^\d]`)
	metaPriceRegex  = regexp.MustCompile(`\d[\d,. ]*`)
)

// parseNumber reads an integer written with thousands separators.
func parseNumber(s string) (int, bool) {
	digits := nonDigitRegex.ReplaceAllString(s, "")
	if digits == "" || len(digits) > 9 {
		return 0, false
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return n, true
}

// parseMetaPrice reads metadata prices such as "35000.00" or "35,000".
func parseMetaPrice(s string) (int, bool) {
	m := metaPriceRegex.FindString(s)
	if m == "" {
		return 0, false
	}
	m = strings.TrimSpace(m)
	// A trailing ".00" style fraction is not part of the amount.
	if i := strings.LastIndexAny(m, ".,"); i >= 0 && len(m)-i-1 <= 2 {
		m = m[:i]
	}
	return parseNumber(m)
}

// PriceCandidates returns every amount written in currency, filtered to that
// currency's plausible range.
func PriceCandidates(text, currency string) []int {
	var out []int
	for _, pp := range pricePatterns[currency] {
		for _, m := range pp.re.FindAllStringSubmatchIndex(text, -1) {
			// In "2005 €1,500" the marker after the year opens the next amount.
			if pp.suffix && opensAmount(text[m[1]:]) {
				continue
			}
			if n, ok := parseNumber(text[m[2]:m[3]]); ok {
				out = append(out, n)
			}
		}
	}
	r := priceRange[currency]
	return InRange(out, r[0], r[1])
}

// opensAmount reports whether rest starts with a digit, allowing one space.
func opensAmount(rest string) bool {
	rest = strings.TrimPrefix(rest, " ")
	return rest != "" && rest[0] >= '0' && rest[0] <= '9'
}

// MetadataPrice reads structured price metadata.
func MetadataPrice(currency string) Strategy[int] {
	return func(p *Page) (int, bool) {
		raw := p.Meta("price", "og:price:amount", "product:price:amount")
		if raw == "" {
			return 0, false
		}
		n, ok := parseMetaPrice(raw)
		if !ok {
			return 0, false
		}
		r := priceRange[currency]
		return n, n >= r[0] && n <= r[1]
	}
}

// TextPrice picks the largest in-range amount written in currency. Deposits
// and monthly payments are usually smaller than the asking price.
func TextPrice(currency string) Strategy[int] {
	return Reduce(func(p *Page) []int {
		return PriceCandidates(p.Title+"\n"+p.Text, currency)
	}, Max)
}

// MetadataCurrency reads an explicit currency code from metadata.
func MetadataCurrency(p *Page) (string, bool) {
	c := strings.ToUpper(p.Meta("currency", "og:price:currency", "product:price:currency"))
	_, known := priceRange[c]
	return c, known
}

// YearCandidates returns four-digit years within [1990, next year].
func YearCandidates(text string) []int {
	maxYear := now().Year() + 1
	var out []int
	for _, m := range yearRegex.FindAllStringSubmatch(text, -1) {
		if y, err := strconv.Atoi(m[1]); err == nil && y >= minYear && y <= maxYear {
			out = append(out, y)
		}
	}
	return out
}

// TextYear takes the most frequent year in the body.
func TextYear(p *Page) (int, bool) {
	return Majority(YearCandidates(p.Text))
}

// TitleYear covers pages whose body never repeats the year.
func TitleYear(p *Page) (int, bool) {
	return Majority(YearCandidates(p.Title))
}

// KilometreCandidates returns mileages written in kilometres.
func KilometreCandidates(text string) []int {
	var out []int
	for _, m := range kmRegex.FindAllStringSubmatch(text, -1) {
		if n, ok := parseNumber(m[1]); ok {
			out = append(out, n)
		}
	}
	for _, m := range kmShortRegex.FindAllStringSubmatch(text, -1) {
		if f, err := strconv.ParseFloat(m[1], 64); err == nil {
			out = append(out, int(math.Round(f*1000)))
		}
	}
	return InRange(out, minMileageKm, maxMileageKm)
}

// MileCandidates returns mileages written in miles, converted to kilometres.
// Distances such as "12 miles away" are skipped.
func MileCandidates(text string) []int {
	var out []int
	for _, m := range milesRegex.FindAllStringSubmatch(text, -1) {
		if m[2] != "" {
			continue
		}
		if n, ok := parseNumber(m[1]); ok {
			out = append(out, MilesToKm(float64(n)))
		}
	}
	for _, m := range milesShortRegex.FindAllStringSubmatch(text, -1) {
		if m[2] != "" {
			continue
		}
		if f, err := strconv.ParseFloat(m[1], 64); err == nil {
			out = append(out, MilesToKm(f*1000))
		}
	}
	return InRange(out, minMileageKm, maxMileageKm)
}

// MilesToKm converts and rounds to the nearest kilometre.
func MilesToKm(miles float64) int {
	return int(math.Round(miles * milesToKm))
}

// KilometreMileage picks the smallest plausible km reading; larger numbers
// next to "km" tend to be service intervals or warranty limits.
func KilometreMileage(p *Page) (int, bool) {
	return Min(KilometreCandidates(p.Text))
}

// AnyUnitMileage accepts both kilometres and miles.
func AnyUnitMileage(p *Page) (int, bool) {
	return Min(append(KilometreCandidates(p.Text), MileCandidates(p.Text)...))
}
