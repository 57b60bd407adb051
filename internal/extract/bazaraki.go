package extract

import (
	"regexp"
	"strings"

	"vehiclescraper/internal/models"
	"vehiclescraper/internal/platform"
)

// Cyprus districts with the transliterations sellers commonly use.
var cyprusDistricts = []struct {
	name    string
	aliases []string
}{
	{"Nicosia", []string{"nicosia", "lefkosia"}},
	{"Limassol", []string{"limassol", "lemesos"}},
	{"Larnaca", []string{"larnaca", "larnaka"}},
	{"Paphos", []string{"paphos", "pafos"}},
	{"Famagusta", []string{"famagusta", "ammochostos", "ayia napa", "paralimni"}},
	{"Kyrenia", []string{"kyrenia", "keryneia"}},
}

// NewBazaraki returns the extractor for bazaraki.com listings. Prices are in
// euros and mileage in kilometres.
func NewBazaraki() Extractor {
	return &extractor{profile{
		platform:       platform.Bazaraki,
		currency:       fixedCurrency(models.CurrencyEUR),
		mileage:        KilometreMileage,
		location:       bazarakiLocation,
		country:        func(*Page, string) string { return "Cyprus" },
		titleSuffix:    regexp.MustCompile(`(?i)\s*[|\-–]\s*bazaraki(?:\.com)?.*$`),
		maxDescription: 2000,
		maxImages:      15,
	}}
}

func bazarakiLocation(p *Page) (string, bool) {
	return First[string](p,
		func(p *Page) (string, bool) {
			l, ok := LabelledLocation(p)
			if !ok {
				return "", false
			}
			if d, ok := cyprusDistrict(strings.ToLower(l)); ok {
				return d, true
			}
			return l, true
		},
		func(p *Page) (string, bool) {
			return cyprusDistrict(strings.ToLower(p.Title) + "\n" + p.lower)
		},
	)
}

// cyprusDistrict returns the district mentioned earliest in lower.
func cyprusDistrict(lower string) (string, bool) {
	best, bestAt := "", -1
	for _, d := range cyprusDistricts {
		for _, a := range d.aliases {
			if i := strings.Index(lower, a); i >= 0 && (bestAt < 0 || i < bestAt) {
				best, bestAt = d.name, i
			}
		}
	}
	return best, bestAt >= 0
}
