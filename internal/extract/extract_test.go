package extract

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vehiclescraper/internal/models"
	"vehiclescraper/internal/platform"
)

func fixedYear(t *testing.T, year int) {
	t.Helper()
	prev := now
	now = func() time.Time { return time.Date(year, 6, 1, 0, 0, 0, 0, time.UTC) }
	t.Cleanup(func() { now = prev })
}

func TestActrosListing(t *testing.T) {
	fixedYear(t, 2025)

	content := Content{
		SourceURL: "https://www.bazaraki.com/adv/123_mercedes-actros/",
		Markdown: strings.Join([]string{
			"# Mercedes Actros 2018",
			"",
			"Price: €35,000",
			"",
			"Mileage: 450,000 km",
			"",
			"Location: Limassol",
		}, "\n"),
	}

	v := NewBazaraki().Extract(content)

	assert.Equal(t, "Mercedes-Benz", v.Make)
	assert.Equal(t, "Actros", v.Model)
	assert.Equal(t, 2018, v.Year)
	assert.Equal(t, 35000, v.Price)
	assert.Equal(t, models.CurrencyEUR, v.Currency)
	assert.Equal(t, 450000, v.Mileage)
	assert.Equal(t, models.CategorySemiTruck, v.Category)
	assert.Equal(t, "Limassol", v.Location)
	assert.Equal(t, "Cyprus", v.Country)
	assert.Equal(t, content.SourceURL, v.SourceURL)
	assert.Equal(t, "€35,000", v.Specifications["Price"])
	assert.False(t, v.NeedsReview())
}

func TestMilesAreConvertedToKilometres(t *testing.T) {
	content := Content{Markdown: "2017 Ford Transit Custom\n\nMileage: 62137 miles\n\n£14,995"}

	v := NewAutoTrader().Extract(content)

	assert.Equal(t, 100000, v.Mileage)
	assert.Equal(t, models.CurrencyGBP, v.Currency)
	assert.Equal(t, 14995, v.Price)
	assert.Equal(t, "Ford", v.Make)
	assert.Equal(t, "Transit Custom", v.Model)
	assert.Equal(t, "United Kingdom", v.Country)
}

func TestDistanceToDealerIsNotMileage(t *testing.T) {
	candidates := MileCandidates("Bristol (12 miles away)\n45,000 miles")
	assert.Equal(t, []int{MilesToKm(45000)}, candidates)
}

func TestLargestPlausiblePriceWins(t *testing.T) {
	v := NewBazaraki().Extract(Content{Markdown: "Deposit €50 and the truck is €45,000"})
	assert.Equal(t, 45000, v.Price)
}

func TestAdjacentNumbersStaySeparate(t *testing.T) {
	fixedYear(t, 2025)

	v := NewBazaraki().Extract(Content{Markdown: "# Volvo FH 2016\n\nPrice €15,500 120,000 km"})
	assert.Equal(t, 15500, v.Price)
	assert.Equal(t, 120000, v.Mileage)
	assert.Equal(t, 2016, v.Year)

	v = NewAutoTrader().Extract(Content{Markdown: "# Ford Focus 1.0 EcoBoost\n\n£12,995 2019 (69 reg)\n\n40,000 miles"})
	assert.Equal(t, 12995, v.Price)
	assert.Equal(t, 2019, v.Year)
	assert.Equal(t, MilesToKm(40000), v.Mileage)
}

func TestNumberSeparatorStyles(t *testing.T) {
	tests := []struct {
		text string
		want []int
	}{
		{"€45,000", []int{45000}},
		{"€45.000", []int{45000}},
		{"€45 000", []int{45000}},
		{"€45\u00a0000", []int{45000}},
		{"€45000", []int{45000}},
		{"€1 500 2005", []int{1500}},
		{"€15,500 120,000 km", []int{15500}},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, PriceCandidates(tt.text, models.CurrencyEUR))
		})
	}
}

func TestCurrencyAfterYearOpensNextAmount(t *testing.T) {
	fixedYear(t, 2025)

	assert.Equal(t, []int{1500}, PriceCandidates("Ford Transit 2005 €1,500", models.CurrencyEUR))
	assert.Equal(t, []int{1500}, PriceCandidates("Ford Transit 2005 € 1,500", models.CurrencyEUR))
	assert.Equal(t, []int{1500}, PriceCandidates("Ford Transit 2005 EUR 1,500", models.CurrencyEUR))
	assert.Equal(t, []int{1500}, PriceCandidates("Ford Transit 2005 $1,500", models.CurrencyUSD))
	assert.Equal(t, []int{8500}, PriceCandidates("Asking 8,500 € ono", models.CurrencyEUR))

	v := NewBazaraki().Extract(Content{Markdown: "Ford Transit 2005 €1,500"})
	assert.Equal(t, 1500, v.Price)
	assert.Equal(t, 2005, v.Year)
}

func TestPriceOutOfRangeIsIgnored(t *testing.T) {
	assert.Empty(t, PriceCandidates("£500 deposit", models.CurrencyGBP))
	assert.Equal(t, []int{500}, PriceCandidates("€500", models.CurrencyEUR))
	assert.Empty(t, PriceCandidates("€900,000", models.CurrencyEUR))
}

func TestMetadataPriceComesFirst(t *testing.T) {
	v := NewBazaraki().Extract(Content{
		Markdown: "€99,000 was the new price",
		Metadata: map[string]string{"og:price:amount": "28500.00"},
	})
	assert.Equal(t, 28500, v.Price)
}

func TestYearMajority(t *testing.T) {
	fixedYear(t, 2025)

	v := NewBazaraki().Extract(Content{
		Markdown: "Truck for sale\n\nFirst registered 2019. Model year 2019.\nNew tyres fitted 2020.\nService book since 2019.",
	})
	assert.Equal(t, 2019, v.Year)
}

func TestYearTieGoesToFirstSeen(t *testing.T) {
	fixedYear(t, 2025)

	year, ok := Majority(YearCandidates("built 2016, imported 2021"))
	require.True(t, ok)
	assert.Equal(t, 2016, year)
}

func TestYearRange(t *testing.T) {
	fixedYear(t, 2025)

	assert.Equal(t, []int{1990, 2026}, YearCandidates("1989 1990 2026 2027"))
}

func TestMinimumMileageWins(t *testing.T) {
	v := NewBazaraki().Extract(Content{Markdown: "Mileage 180,000 km. Service interval 200,000 km."})
	assert.Equal(t, 180000, v.Mileage)
}

func TestEmptyContentYieldsDefaults(t *testing.T) {
	for _, p := range platform.Supported() {
		t.Run(string(p), func(t *testing.T) {
			e, ok := ForPlatform(p)
			require.True(t, ok)

			v := e.Extract(Content{})

			assert.Equal(t, models.UnknownMake, v.Make)
			assert.Equal(t, models.UnknownModel, v.Model)
			assert.Zero(t, v.Price)
			assert.Zero(t, v.Year)
			assert.Zero(t, v.Mileage)
			assert.Equal(t, models.ConditionUsed, v.Condition)
			assert.Equal(t, models.CategoryOther, v.Category)
			assert.Equal(t, models.EngineDiesel, v.EngineType)
			assert.Equal(t, models.TransmissionManual, v.Transmission)
			assert.NotNil(t, v.Images)
			assert.NotNil(t, v.Features)
			assert.NotNil(t, v.Specifications)
			assert.True(t, v.NeedsReview())
		})
	}
}

func TestForPlatformUnsupported(t *testing.T) {
	_, ok := ForPlatform(platform.Unsupported)
	assert.False(t, ok)
}

func TestMakeAndModel(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		make  string
		model string
	}{
		{"alias", "# VW Amarok double cab", "Volkswagen", "Amarok"},
		{"longest model first", "# Volvo FH16 750", "Volvo", "FH16"},
		{"token after make", "# Scania Torpedo (restored)", "Scania", "Torpedo"},
		{"token stops at digit", "# Iveco Turbostar190", "Iveco", "Turbostar"},
		{"uppercase only for MAN", "# One man owner truck", models.UnknownMake, models.UnknownModel},
		{"MAN", "# MAN TGX 18.480", "MAN", "TGX"},
		{"unknown", "# Foton Aumark", models.UnknownMake, models.UnknownModel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mfr, model := MakeAndModel(NewPage(Content{Markdown: tt.text}))
			assert.Equal(t, tt.make, mfr)
			assert.Equal(t, tt.model, model)
		})
	}
}

func TestCategory(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"# Toyota Hilux double cab", models.CategoryPickup},
		{"# DAF CF tipper 8x4", models.CategoryTipper},
		{"# Isuzu NQR with Thermo King unit", models.CategoryRefrigerated},
		{"# Iveco Daily luton", models.CategoryBoxTruck},
		{"# Mitsubishi Canter dropside", models.CategoryFlatbed},
		{"# Ford Transit panel van", models.CategoryVan},
		{"# Iveco 50 seat coach", models.CategoryBus},
		{"# Volvo FH 500", models.CategorySemiTruck},
		{"# Honda Civic", models.CategoryOther},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			p := NewPage(Content{Markdown: tt.text})
			mfr, _ := MakeAndModel(p)
			assert.Equal(t, tt.want, Category(p, mfr))
		})
	}
}

func TestEngineAndTransmission(t *testing.T) {
	p := NewPage(Content{Markdown: "Scania R450\nFuel type: Diesel\nGearbox: Opticruise\n450 hp, 12.7 L"})
	assert.Equal(t, models.EngineDiesel, EngineType(p))
	assert.Equal(t, models.TransmissionAutomatedManual, Transmission(p))
	assert.Equal(t, 450, EnginePower(p))
	assert.Equal(t, 12.7, EngineSize(p))

	p = NewPage(Content{Markdown: "Toyota Prius hybrid, automatic, 73 kW, 1798 cc"})
	assert.Equal(t, models.EngineHybrid, EngineType(p))
	assert.Equal(t, models.TransmissionAutomatic, Transmission(p))
	assert.Equal(t, 98, EnginePower(p))
	assert.Equal(t, 1.8, EngineSize(p))

	p = NewPage(Content{Markdown: "Brand new VW Golf 2.0 TDI, manual"})
	assert.Equal(t, models.ConditionNew, Condition(p))
	assert.Equal(t, 2.0, EngineSize(p))
	assert.Equal(t, models.TransmissionManual, Transmission(p))
}

func TestDescription(t *testing.T) {
	long := strings.Repeat("a", 3000)
	v := NewBazaraki().Extract(Content{Metadata: map[string]string{"description": long}})
	assert.Len(t, v.Description, 2000)

	v = NewFacebook().Extract(Content{Metadata: map[string]string{"og:description": long}})
	assert.Len(t, v.Description, 1000)

	para := "Well maintained tractor unit with full service history, new clutch fitted last year and two keys included with sale."
	v = NewAutoTrader().Extract(Content{Markdown: "# Title\n\nShort line.\n\n" + para + "\n\nAnother short one."})
	assert.Equal(t, para, v.Description)
}

func TestImages(t *testing.T) {
	html := `<html><body>
		<img src="/images/logo.png">
		<img src="/photos/1.jpg">
		<img data-src="https://cdn.example.com/photos/2.jpg">
		<img src="data:image/gif;base64,AAAA">
		<img src="/photos/1.jpg">
	</body></html>`
	v := NewBazaraki().Extract(Content{
		SourceURL: "https://www.bazaraki.com/adv/1/",
		HTML:      html,
		Metadata:  map[string]string{"og:image": "https://cdn.example.com/photos/cover.jpg"},
		Markdown:  "![truck](https://cdn.example.com/photos/3.jpg) ![](https://cdn.example.com/icons/star.svg)",
	})

	assert.Equal(t, []string{
		"https://cdn.example.com/photos/cover.jpg",
		"https://www.bazaraki.com/photos/1.jpg",
		"https://cdn.example.com/photos/2.jpg",
		"https://cdn.example.com/photos/3.jpg",
	}, v.Images)
}

func TestImagesAreCapped(t *testing.T) {
	var imgs []string
	for i := 0; i < 30; i++ {
		imgs = append(imgs, "https://cdn.example.com/p/"+strings.Repeat("x", i+1)+".jpg")
	}
	assert.Len(t, NewFacebook().Extract(Content{Images: imgs}).Images, 10)
	assert.Len(t, NewAutoTrader().Extract(Content{Images: imgs}).Images, 15)
}

func TestFeatures(t *testing.T) {
	md := strings.Join([]string{
		"# Volvo FH",
		"- Air conditioning",
		"* Retarder",
		"✓ Cruise control",
		"- Air conditioning",
		"- Price negotiable",
		"- [Home](https://example.com)",
		"",
		"Features: ADR, Parking cooler",
		"Alloy wheels",
	}, "\n")

	got := Features(NewPage(Content{Markdown: md}))
	assert.Equal(t, []string{"Air conditioning", "Retarder", "Cruise control", "ADR", "Parking cooler", "Alloy wheels"}, got)
}

func TestFeaturesAreCapped(t *testing.T) {
	var lines []string
	for i := 0; i < 40; i++ {
		lines = append(lines, "- feature number "+strings.Repeat("i", i+1))
	}
	assert.Len(t, Features(NewPage(Content{Markdown: strings.Join(lines, "\n")})), 20)
}

func TestSpecifications(t *testing.T) {
	md := "**Year:** 2018\n- Gearbox: Manual\nYear: 2019\nSee https://example.com"
	specs := Specifications(NewPage(Content{Markdown: md}))
	assert.Equal(t, map[string]string{"Year": "2018", "Gearbox": "Manual"}, specs)
}

func TestFacebookCurrencyAndLocation(t *testing.T) {
	v := NewFacebook().Extract(Content{
		Markdown: "Marketplace - 2016 Nissan Navara\n\n£12,500\n\nListed 3 days ago in Manchester, England",
	})
	assert.Equal(t, models.CurrencyGBP, v.Currency)
	assert.Equal(t, 12500, v.Price)
	assert.Equal(t, "Manchester, England", v.Location)
	assert.Equal(t, "England", v.Country)
	assert.Equal(t, "Nissan", v.Make)
	assert.Equal(t, "Navara", v.Model)
	assert.Equal(t, models.CategoryPickup, v.Category)

	v = NewFacebook().Extract(Content{Markdown: "Van for sale $8,000"})
	assert.Equal(t, models.CurrencyUSD, v.Currency)

	v = NewFacebook().Extract(Content{Markdown: "Van for sale"})
	assert.Equal(t, models.CurrencyEUR, v.Currency)
}

func TestBazarakiDistrictFromBody(t *testing.T) {
	v := NewBazaraki().Extract(Content{Markdown: "Truck located in Lemesos, call for viewing"})
	assert.Equal(t, "Limassol", v.Location)
}

func TestAutoTraderDealerLocation(t *testing.T) {
	v := NewAutoTrader().Extract(Content{Markdown: "Smiths Motors\nBristol (12 miles away)"})
	assert.Equal(t, "Bristol", v.Location)
}

func TestHTMLOnlyContent(t *testing.T) {
	fixedYear(t, 2025)

	html := `<html><head><title>2015 Renault Master - Bazaraki</title></head><body>
		<h1>2015 Renault Master</h1>
		<p>Price €9,800</p>
		<ul><li>Tow bar</li><li>Roof rack</li></ul>
		<script>var price = "€1,000,000";</script>
	</body></html>`

	v := NewBazaraki().Extract(Content{HTML: html})
	assert.Equal(t, "Renault", v.Make)
	assert.Equal(t, "Master", v.Model)
	assert.Equal(t, 2015, v.Year)
	assert.Equal(t, 9800, v.Price)
	assert.Equal(t, []string{"Tow bar", "Roof rack"}, v.Features)
}
