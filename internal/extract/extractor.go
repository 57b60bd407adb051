// Package extract turns scraped listing content into an ExtractedVehicle.
//
// Every field is found by an ordered list of independent heuristics. A field
// whose heuristics all miss keeps its sentinel default, so extraction never
// fails; callers check NeedsReview on the result.
package extract

import (
	"regexp"
	"strings"

	"vehiclescraper/internal/models"
	"vehiclescraper/internal/platform"
)

// Extractor fills a vehicle record from one platform's listing content.
type Extractor interface {
	Platform() platform.Platform
	Extract(content Content) models.ExtractedVehicle
}

// profile holds what differs between platforms. The pass order in Extract
// is the same for all of them.
type profile struct {
	platform       platform.Platform
	currency       Strategy[string]
	mileage        Strategy[int]
	location       Strategy[string]
	country        func(p *Page, location string) string
	titleSuffix    *regexp.Regexp
	maxDescription int
	maxImages      int
}

type extractor struct {
	profile
}

func (e *extractor) Platform() platform.Platform {
	return e.platform
}

// Extract runs every pass over content.
func (e *extractor) Extract(content Content) models.ExtractedVehicle {
	p := NewPage(content)
	if e.titleSuffix != nil {
		p.Title = strings.TrimSpace(e.titleSuffix.ReplaceAllString(p.Title, ""))
	}

	v := models.NewExtractedVehicle()
	v.SourceURL = content.SourceURL

	if c, ok := e.currency(p); ok {
		v.Currency = c
	}
	v.Price = value[int](First[int](p, MetadataPrice(v.Currency), TextPrice(v.Currency)))
	v.Make, v.Model = MakeAndModel(p)
	v.Year = value[int](First[int](p, TextYear, TitleYear))
	v.Mileage = value[int](e.mileage(p))

	v.Category = Category(p, v.Make)
	v.Condition = Condition(p)
	v.EngineType = EngineType(p)
	v.Transmission = Transmission(p)
	v.EnginePower = EnginePower(p)
	v.EngineSize = EngineSize(p)

	if e.location != nil {
		v.Location = value[string](e.location(p))
	}
	if e.country != nil {
		v.Country = e.country(p, v.Location)
	}

	v.Description = Description(p, e.maxDescription)
	v.Images = Images(p, platform.BaseURL(e.platform), e.maxImages)
	v.Features = Features(p)
	v.Specifications = Specifications(p)

	v.Normalize()
	return v
}

var registry = map[platform.Platform]Extractor{
	platform.Bazaraki:   NewBazaraki(),
	platform.Facebook:   NewFacebook(),
	platform.AutoTrader: NewAutoTrader(),
}

// ForPlatform returns the extractor for p.
func ForPlatform(p platform.Platform) (Extractor, bool) {
	e, ok := registry[p]
	return e, ok
}

// fixedCurrency always reports c.
func fixedCurrency(c string) Strategy[string] {
	return func(*Page) (string, bool) { return c, true }
}

var labelledLocationRegex = regexp.MustCompile(`(?im)^\W*(?:location|address|area|city)\s*:\s*\**\s*([^\n|]{2,80})$`)

// LabelledLocation reads metadata or a "Location: ..." line.
func LabelledLocation(p *Page) (string, bool) {
	if l := p.Meta("location", "og:locality", "geo.placename"); l != "" {
		return l, true
	}
	if m := labelledLocationRegex.FindStringSubmatch(p.Text); m != nil {
		l := strings.TrimSpace(markdownMarks.Replace(m[1]))
		return l, l != ""
	}
	return "", false
}
