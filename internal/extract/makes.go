package extract

import (
	"regexp"
	"sort"
	"strings"

	"vehiclescraper/internal/models"
)

type manufacturer struct {
	Name    string
	Aliases []string // matched case-insensitively on word boundaries
	Exact   []string // matched case-sensitively; used for words that are also English
	Models  []string
	Truck   bool // heavy-truck maker, defaults the category to semi-truck
}

var manufacturers = []manufacturer{
	{Name: "Mercedes-Benz", Aliases: []string{"mercedes-benz", "mercedes benz", "mercedes", "merc"}, Truck: true,
		Models: []string{"Actros", "Arocs", "Atego", "Axor", "Antos", "Econic", "Unimog", "Sprinter", "Vito", "Citan", "Vario",
			"A-Class", "B-Class", "C-Class", "E-Class", "S-Class", "GLA", "GLC", "GLE", "ML", "X-Class"}},
	{Name: "Volvo", Aliases: []string{"volvo"}, Truck: true,
		Models: []string{"FH16", "FH", "FM", "FMX", "FL", "FE", "XC90", "XC60", "XC40", "V70", "V60", "S60"}},
	{Name: "Scania", Aliases: []string{"scania"}, Truck: true,
		Models: []string{"R-Series", "S-Series", "G-Series", "P-Series", "R450", "R500", "R410", "S500", "S450", "G410", "P280"}},
	{Name: "MAN", Aliases: []string{"m.a.n"}, Exact: []string{"MAN"}, Truck: true,
		Models: []string{"TGX", "TGS", "TGM", "TGL", "TGE"}},
	{Name: "DAF", Aliases: []string{"d.a.f"}, Exact: []string{"DAF", "Daf"}, Truck: true,
		Models: []string{"XF", "XG+", "XG", "CF", "LF"}},
	{Name: "Iveco", Aliases: []string{"iveco"}, Truck: true,
		Models: []string{"Stralis", "S-Way", "Trakker", "Eurocargo", "Daily", "X-Way"}},
	{Name: "Renault", Aliases: []string{"renault trucks", "renault"}, Truck: true,
		Models: []string{"T High", "T-Series", "C-Series", "K-Series", "D-Series", "Premium", "Magnum", "Master", "Trafic", "Kangoo", "Clio", "Megane"}},
	{Name: "Volkswagen", Aliases: []string{"volkswagen", "vw"},
		Models: []string{"Transporter", "Crafter", "Caddy", "Amarok", "Golf", "Polo", "Passat", "Tiguan", "Touareg", "Multivan"}},
	{Name: "Ford", Aliases: []string{"ford"},
		Models: []string{"Transit Custom", "Transit Connect", "Transit", "Ranger", "F-150", "F-MAX", "Focus", "Fiesta", "Kuga", "Mondeo"}},
	{Name: "Toyota", Aliases: []string{"toyota"},
		Models: []string{"Hilux", "Land Cruiser", "Dyna", "Hiace", "Proace", "Corolla", "Yaris", "RAV4", "Auris", "Prius"}},
	{Name: "Nissan", Aliases: []string{"nissan"},
		Models: []string{"Navara", "Cabstar", "NV200", "NV400", "Atleon", "Qashqai", "X-Trail", "Micra", "Note"}},
	{Name: "Mitsubishi", Aliases: []string{"mitsubishi"},
		Models: []string{"L200", "Canter", "Fuso", "Pajero", "Outlander", "ASX"}},
	{Name: "Isuzu", Aliases: []string{"isuzu"},
		Models: []string{"D-Max", "NPR", "NQR", "Grafter", "Forward"}},
	{Name: "Fiat", Aliases: []string{"fiat"},
		Models: []string{"Ducato", "Doblo", "Fiorino", "Talento", "Fullback", "Panda", "500"}},
	{Name: "Peugeot", Aliases: []string{"peugeot"},
		Models: []string{"Boxer", "Expert", "Partner", "208", "308", "3008", "5008"}},
	{Name: "Citroen", Aliases: []string{"citroen", "citroën"},
		Models: []string{"Relay", "Jumper", "Dispatch", "Berlingo", "C3", "C4"}},
	{Name: "Hyundai", Aliases: []string{"hyundai"},
		Models: []string{"HD78", "H350", "H-1", "i10", "i20", "i30", "Tucson", "Santa Fe"}},
	{Name: "Kia", Aliases: []string{"kia"},
		Models: []string{"K2500", "Sportage", "Ceed", "Picanto", "Sorento"}},
	{Name: "Opel", Aliases: []string{"opel", "vauxhall"},
		Models: []string{"Movano", "Vivaro", "Combo", "Astra", "Corsa", "Insignia"}},
	{Name: "BMW", Aliases: []string{"bmw"},
		Models: []string{"1 Series", "3 Series", "5 Series", "X1", "X3", "X5"}},
	{Name: "Audi", Aliases: []string{"audi"},
		Models: []string{"A3", "A4", "A6", "Q3", "Q5", "Q7"}},
	{Name: "Land Rover", Aliases: []string{"land rover", "land-rover", "range rover"},
		Models: []string{"Defender", "Discovery", "Range Rover Sport", "Range Rover Evoque", "Range Rover"}},
	{Name: "Honda", Aliases: []string{"honda"},
		Models: []string{"Civic", "Jazz", "CR-V", "HR-V", "Accord"}},
	{Name: "Mazda", Aliases: []string{"mazda"},
		Models: []string{"BT-50", "CX-5", "CX-3", "Mazda3", "Mazda2"}},
	{Name: "Dodge", Aliases: []string{"dodge", "ram"},
		Models: []string{"Ram 1500", "Ram 2500", "Durango", "Charger"}},
	{Name: "Chevrolet", Aliases: []string{"chevrolet", "chevy"},
		Models: []string{"Silverado", "Colorado", "Express"}},
	{Name: "Freightliner", Aliases: []string{"freightliner"},
		Models: []string{"Cascadia", "Columbia", "Century"}},
	{Name: "Kenworth", Aliases: []string{"kenworth"},
		Models: []string{"T680", "W900", "T880"}},
	{Name: "Peterbilt", Aliases: []string{"peterbilt"},
		Models: []string{"579", "389", "567"}},
}

type makeMatcher struct {
	mfr    *manufacturer
	re     *regexp.Regexp
	models []*modelMatcher
}

type modelMatcher struct {
	name string
	re   *regexp.Regexp
}

var makeMatchers = buildMakeMatchers()

func buildMakeMatchers() []makeMatcher {
	var out []makeMatcher
	for i := range manufacturers {
		m := &manufacturers[i]

		names := append([]string(nil), m.Models...)
		sort.SliceStable(names, func(a, b int) bool { return len(names[a]) > len(names[b]) })
		var byLength []*modelMatcher
		for _, n := range names {
			byLength = append(byLength, &modelMatcher{
				name: n,
				re:   regexp.MustCompile(`(?i)(?:^|[^\pL\pN])` + regexp.QuoteMeta(n) + `(?:$|[^\pL\pN+])`),
			})
		}

		for _, a := range m.Aliases {
			out = append(out, makeMatcher{mfr: m, models: byLength,
				re: regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(a) + `\b`)})
		}
		for _, a := range m.Exact {
			out = append(out, makeMatcher{mfr: m, models: byLength,
				re: regexp.MustCompile(`\b` + regexp.QuoteMeta(a) + `\b`)})
		}
	}
	return out
}

// makeHit is where a manufacturer was found in a piece of text.
type makeHit struct {
	matcher *makeMatcher
	start   int
	end     int
}

// findMake returns the earliest manufacturer mention in text; on equal start
// the longer alias wins.
func findMake(text string) (makeHit, bool) {
	var best makeHit
	found := false
	for i := range makeMatchers {
		loc := makeMatchers[i].re.FindStringIndex(text)
		if loc == nil {
			continue
		}
		if !found || loc[0] < best.start || (loc[0] == best.start && loc[1] > best.end) {
			best = makeHit{matcher: &makeMatchers[i], start: loc[0], end: loc[1]}
			found = true
		}
	}
	return best, found
}

// MakeAndModel identifies the manufacturer in the title, then in the body,
// and the model for it.
func MakeAndModel(p *Page) (mfr, model string) {
	mfr, model = models.UnknownMake, models.UnknownModel

	hit, ok := findMake(p.Title)
	source := p.Title
	if !ok {
		hit, ok = findMake(p.Text)
		source = p.Text
	}
	if !ok {
		return mfr, model
	}
	mfr = hit.matcher.mfr.Name

	for _, text := range []string{p.Title, p.Text} {
		for _, mm := range hit.matcher.models {
			if mm.re.MatchString(text) {
				return mfr, mm.name
			}
		}
	}

	if t := tokenAfter(source, hit.end); t != "" {
		model = t
	}
	return mfr, model
}

// tokenAfter returns the word following position i, cut at whitespace, a
// digit or a parenthesis.
func tokenAfter(text string, i int) string {
	rest := strings.TrimLeft(text[i:], " \t-–:,/")
	end := strings.IndexFunc(rest, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '(' || r == ')' || r == ',' || r == '|' || (r >= '0' && r <= '9')
	})
	if end >= 0 {
		rest = rest[:end]
	}
	rest = strings.Trim(rest, ".-_*#")
	if len([]rune(rest)) < 2 {
		return ""
	}
	return rest
}

// IsTruckMake reports whether name is one of the heavy-truck manufacturers.
func IsTruckMake(name string) bool {
	for _, m := range manufacturers {
		if m.Name == name {
			return m.Truck
		}
	}
	return false
}
