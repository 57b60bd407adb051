package extract

import (
	"regexp"
	"strings"

	"vehiclescraper/internal/models"
	"vehiclescraper/internal/platform"
)

var listedInRegex = regexp.MustCompile(`(?i:listed)\b[^\n]{0,40}?\b(?i:in)\s+([A-Z][\w.'-]*(?: [A-Z][\w.'-]*)*(?:,\s*[A-Z][\w.'-]*(?: [A-Z][\w.'-]*)*)?)`)

// NewFacebook returns the extractor for Facebook Marketplace listings. The
// currency follows the symbol found on the page.
func NewFacebook() Extractor {
	return &extractor{profile{
		platform:       platform.Facebook,
		currency:       facebookCurrency,
		mileage:        KilometreMileage,
		location:       facebookLocation,
		country:        facebookCountry,
		titleSuffix:    regexp.MustCompile(`(?i)(?:^marketplace\s*[-–|]\s*|\s*[|\-–]\s*facebook(?: marketplace)?$)`),
		maxDescription: 1000,
		maxImages:      10,
	}}
}

// facebookCurrency picks the first currency with an in-range amount on the
// page, preferring explicit metadata.
func facebookCurrency(p *Page) (string, bool) {
	if c, ok := MetadataCurrency(p); ok {
		return c, true
	}
	text := p.Title + "\n" + p.Text
	for _, c := range []string{models.CurrencyEUR, models.CurrencyGBP, models.CurrencyUSD} {
		if len(PriceCandidates(text, c)) > 0 {
			return c, true
		}
	}
	return models.CurrencyEUR, true
}

func facebookLocation(p *Page) (string, bool) {
	return First[string](p,
		func(p *Page) (string, bool) {
			m := listedInRegex.FindStringSubmatch(p.Text)
			if m == nil {
				return "", false
			}
			return strings.TrimSpace(strings.TrimRight(m[1], " .")), true
		},
		LabelledLocation,
	)
}

// facebookCountry takes the part after the last comma of "City, Region".
func facebookCountry(_ *Page, location string) string {
	i := strings.LastIndex(location, ",")
	if i < 0 {
		return ""
	}
	return strings.TrimSpace(location[i+1:])
}
