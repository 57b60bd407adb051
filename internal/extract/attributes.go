package extract

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"vehiclescraper/internal/models"
)

// keywordGroup maps a set of phrases to one value. Phrases are matched on word
// boundaries against lower-cased text.
type keywordGroup struct {
	value string
	re    *regexp.Regexp
}

func group(value string, phrases ...string) keywordGroup {
	quoted := make([]string, len(phrases))
	for i, ph := range phrases {
		quoted[i] = regexp.QuoteMeta(ph)
	}
	return keywordGroup{value: value, re: regexp.MustCompile(`\b(?:` + strings.Join(quoted, "|") + `)\b`)}
}

// firstGroup returns the value of the first group with a match in lower.
func firstGroup(lower string, groups []keywordGroup) (string, bool) {
	for _, g := range groups {
		if g.re.MatchString(lower) {
			return g.value, true
		}
	}
	return "", false
}

var categoryGroups = []keywordGroup{
	group(models.CategoryPickup, "pickup", "pick-up", "pick up", "double cab", "single cab", "crew cab", "hilux", "navara", "ranger", "l200", "d-max", "amarok"),
	group(models.CategoryTipper, "tipper", "dump truck", "dumper", "kipper", "tipping body"),
	group(models.CategoryRefrigerated, "refrigerated", "fridge", "reefer", "freezer", "thermo king", "carrier transicold", "chiller"),
	group(models.CategoryBoxTruck, "box truck", "box body", "box van", "luton", "curtainside", "curtain side", "curtainsider"),
	group(models.CategoryFlatbed, "flatbed", "flat bed", "dropside", "drop side", "platform body"),
	group(models.CategoryBus, "bus", "minibus", "coach"),
	group(models.CategoryVan, "van", "panel van", "sprinter", "transit", "crafter", "vito", "ducato", "transporter"),
	group(models.CategorySemiTruck, "tractor unit", "tractor head", "semi truck", "semi-truck", "4x2 tractor", "6x2 tractor", "6x4 tractor"),
}

// Category classifies the body type by keyword, then by manufacturer.
func Category(p *Page, mfr string) string {
	if c, ok := firstGroup(strings.ToLower(p.Title)+"\n"+p.lower, categoryGroups); ok {
		return c
	}
	if IsTruckMake(mfr) {
		return models.CategorySemiTruck
	}
	return models.CategoryOther
}

var conditionGroups = []keywordGroup{
	group(models.ConditionCertified, "certified", "approved used", "certified pre-owned"),
	group(models.ConditionNew, "brand new", "new vehicle", "condition: new", "unregistered", "0 km"),
}

// Condition defaults to used.
func Condition(p *Page) string {
	v, ok := firstGroup(p.lower, conditionGroups)
	return Or(v, ok, models.ConditionUsed)
}

var (
	fuelLabelRegex = regexp.MustCompile(`(?i)\bfuel(?:\s*type)?\s*[:\-]\s*\**\s*([a-z/ -]{3,30})`)
	gearLabelRegex = regexp.MustCompile(`(?i)\b(?:transmission|gearbox)\s*[:\-]\s*\**\s*([a-z/ -]{3,30})`)
)

var engineGroups = []keywordGroup{
	group(models.EngineHybrid, "hybrid", "phev", "plug-in"),
	group(models.EngineDiesel, "diesel", "tdi", "tdci", "dci", "cdi", "hdi", "crdi", "bluetec", "d4d", "d-4d"),
	group(models.EnginePetrol, "petrol", "gasoline", "benzin", "benzine", "unleaded", "tsi", "tfsi"),
	group(models.EngineElectric, "electric vehicle", "fully electric", "all-electric", "ev", "bev", "e-tron"),
}

// EngineType reads a labelled fuel type, then looks for fuel keywords.
func EngineType(p *Page) string {
	v, ok := First[string](p,
		func(p *Page) (string, bool) {
			m := fuelLabelRegex.FindStringSubmatch(p.Text)
			if m == nil {
				return "", false
			}
			if v, ok := firstGroup(strings.ToLower(m[1]), engineGroups); ok {
				return v, true
			}
			if strings.Contains(strings.ToLower(m[1]), "electric") {
				return models.EngineElectric, true
			}
			return "", false
		},
		func(p *Page) (string, bool) { return firstGroup(p.lower, engineGroups) },
	)
	return Or(v, ok, models.EngineDiesel)
}

var transmissionGroups = []keywordGroup{
	group(models.TransmissionAutomatedManual, "automated manual", "automated", "amt", "i-shift", "ishift", "opticruise",
		"powershift", "tipmatic", "as-tronic", "astronic", "traxon", "ultrashift", "optidrive", "g-tronic"),
	group(models.TransmissionAutomatic, "automatic", "auto gearbox", "auto transmission", "dsg", "cvt", "tiptronic"),
	group(models.TransmissionManual, "manual"),
}

// Transmission reads a labelled gearbox, then keyword groups.
func Transmission(p *Page) string {
	v, ok := First[string](p,
		func(p *Page) (string, bool) {
			m := gearLabelRegex.FindStringSubmatch(p.Text)
			if m == nil {
				return "", false
			}
			label := strings.ToLower(m[1])
			if strings.HasPrefix(strings.TrimSpace(label), "auto") && !strings.Contains(label, "automated") {
				return models.TransmissionAutomatic, true
			}
			return firstGroup(label, transmissionGroups)
		},
		func(p *Page) (string, bool) { return firstGroup(p.lower, transmissionGroups) },
	)
	return Or(v, ok, models.TransmissionManual)
}

const kwToHp = 1.34102

var (
	hpRegex    = regexp.MustCompile(`(?i)\b(\d{2,4})\s?(?:hp|bhp|ps|cv|pk)\b`)
	kwRegex    = regexp.MustCompile(`(?i)\b(\d{2,4})\s?kw\b`)
	litreRegex = regexp.MustCompile(`(?i)\b(\d{1,2}[.,]\d{1,2})\s?(?:l|lt|litre|liter|litres|liters)\b`)
	ccRegex    = regexp.MustCompile(`(?i)\b(\d{1,2}[,.]?\d{3}|\d{3,5})\s?(?:cc|cm3|cm³)`)
	badgeRegex = regexp.MustCompile(`(?i)\b(\d\.\d)\s?(?:tdi|tdci|dci|cdi|hdi|crdi|tsi|tfsi|d|i|t|v6|v8)\b`)
)

// EnginePower returns horsepower, converting kW when only that is given.
// Zero means not found.
func EnginePower(p *Page) int {
	v, ok := First[int](p,
		func(p *Page) (int, bool) {
			for _, m := range hpRegex.FindAllStringSubmatch(p.Text, -1) {
				if n, err := strconv.Atoi(m[1]); err == nil && n >= 40 && n <= 1000 {
					return n, true
				}
			}
			return 0, false
		},
		func(p *Page) (int, bool) {
			for _, m := range kwRegex.FindAllStringSubmatch(p.Text, -1) {
				if n, err := strconv.Atoi(m[1]); err == nil && n >= 30 && n <= 750 {
					return int(math.Round(float64(n) * kwToHp)), true
				}
			}
			return 0, false
		},
	)
	return Or(v, ok, 0)
}

// EngineSize returns displacement in litres rounded to one decimal. Zero
// means not found.
func EngineSize(p *Page) float64 {
	inRange := func(l float64) bool { return l >= 0.6 && l <= 20 }
	litres := func(re *regexp.Regexp) Strategy[float64] {
		return func(p *Page) (float64, bool) {
			for _, m := range re.FindAllStringSubmatch(p.Title+"\n"+p.Text, -1) {
				f, err := strconv.ParseFloat(strings.Replace(m[1], ",", ".", 1), 64)
				if err == nil && inRange(f) {
					return math.Round(f*10) / 10, true
				}
			}
			return 0, false
		}
	}
	v, ok := First[float64](p,
		litres(litreRegex),
		func(p *Page) (float64, bool) {
			for _, m := range ccRegex.FindAllStringSubmatch(p.Text, -1) {
				if cc, ok := parseNumber(m[1]); ok {
					if l := math.Round(float64(cc)/100) / 10; inRange(l) {
						return l, true
					}
				}
			}
			return 0, false
		},
		litres(badgeRegex),
	)
	return Or(v, ok, 0)
}
