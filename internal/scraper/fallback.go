package scraper

import "vehiclescraper/internal/models"

const fallbackNotice = "Sample listing shown because live data could not be retrieved. " +
	"Verify every value against the original advert before use."

// fallbackSamples are fixed UK records returned when live scraping fails.
var fallbackSamples = []models.ExtractedVehicle{
	{
		Make:         "Mercedes-Benz",
		Model:        "Actros",
		Year:         2019,
		Mileage:      482803,
		Price:        42500,
		Currency:     models.CurrencyGBP,
		Condition:    models.ConditionUsed,
		Category:     models.CategorySemiTruck,
		EngineType:   models.EngineDiesel,
		Transmission: models.TransmissionAutomatedManual,
		EnginePower:  450,
		EngineSize:   12.8,
		Location:     "Birmingham",
		Country:      "United Kingdom",
		Features:     []string{"Retarder", "Sleeper cab"},
	},
	{
		Make:         "Volvo",
		Model:        "FH",
		Year:         2018,
		Mileage:      563270,
		Price:        36950,
		Currency:     models.CurrencyGBP,
		Condition:    models.ConditionUsed,
		Category:     models.CategorySemiTruck,
		EngineType:   models.EngineDiesel,
		Transmission: models.TransmissionAutomatedManual,
		EnginePower:  500,
		EngineSize:   12.8,
		Location:     "Manchester",
		Country:      "United Kingdom",
		Features:     []string{"I-Shift", "Globetrotter cab"},
	},
	{
		Make:         "Ford",
		Model:        "Transit Custom",
		Year:         2021,
		Mileage:      64374,
		Price:        18995,
		Currency:     models.CurrencyGBP,
		Condition:    models.ConditionUsed,
		Category:     models.CategoryVan,
		EngineType:   models.EngineDiesel,
		Transmission: models.TransmissionManual,
		EnginePower:  130,
		EngineSize:   2.0,
		Location:     "Leeds",
		Country:      "United Kingdom",
		Features:     []string{"Bluetooth", "Parking sensors"},
	},
}

// FallbackVehicles returns the sample records, each tagged with reason.
func FallbackVehicles(reason string) []models.ScrapeResult {
	out := make([]models.ScrapeResult, 0, len(fallbackSamples))
	for _, s := range fallbackSamples {
		v := s
		v.Description = fallbackNotice
		v.Features = append([]string(nil), s.Features...)
		out = append(out, models.Fallback(v, reason))
	}
	return out
}

// FallbackVehicle is the placeholder for a single listing that could not be
// scraped. Only the source URL is real.
func FallbackVehicle(sourceURL, reason string) models.ScrapeResult {
	v := models.NewExtractedVehicle()
	v.Currency = models.CurrencyGBP
	v.Country = "United Kingdom"
	v.SourceURL = sourceURL
	v.Description = fallbackNotice
	return models.Fallback(v, reason)
}
