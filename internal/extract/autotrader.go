package extract

import (
	"regexp"
	"strings"

	"vehiclescraper/internal/models"
	"vehiclescraper/internal/platform"
)

var dealerDistanceRegex = regexp.MustCompile(`([A-Z][A-Za-z .'-]{2,40}?)\s*[(\-–•|]?\s*\d+(?:\.\d+)?\s*miles?\s+away`)

// NewAutoTrader returns the extractor for AutoTrader UK listings. Prices are
// in pounds and mileage may be quoted in miles.
func NewAutoTrader() Extractor {
	return &extractor{profile{
		platform:       platform.AutoTrader,
		currency:       fixedCurrency(models.CurrencyGBP),
		mileage:        AnyUnitMileage,
		location:       autoTraderLocation,
		country:        func(*Page, string) string { return "United Kingdom" },
		titleSuffix:    regexp.MustCompile(`(?i)\s*[|\-–]\s*auto\s?trader.*$`),
		maxDescription: 1500,
		maxImages:      15,
	}}
}

func autoTraderLocation(p *Page) (string, bool) {
	return First[string](p,
		LabelledLocation,
		func(p *Page) (string, bool) {
			m := dealerDistanceRegex.FindStringSubmatch(p.Text)
			if m == nil {
				return "", false
			}
			l := strings.TrimSpace(m[1])
			return l, l != ""
		},
	)
}
