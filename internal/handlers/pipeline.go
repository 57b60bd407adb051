package handlers

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"time"

	"vehiclescraper/internal/cache"
	"vehiclescraper/internal/crawl"
	scrapeerrors "vehiclescraper/internal/errors"
	"vehiclescraper/internal/extract"
	"vehiclescraper/internal/logger"
	"vehiclescraper/internal/models"
	"vehiclescraper/internal/platform"
	"vehiclescraper/internal/scraper"
)

// VehicleScraper drives a browser against a listing site.
type VehicleScraper interface {
	ScrapeVehicleDetails(ctx context.Context, url string) (models.ExtractedVehicle, error)
	ScrapeVehicles(ctx context.Context, opts scraper.SearchOptions) ([]models.ScrapeResult, error)
}

// Pipeline turns one listing URL into a ScrapeResult. Browser platforms go
// through the scraper, the rest through the fetcher and an extractor.
type Pipeline struct {
	fetcher crawl.Fetcher
	scraper VehicleScraper
	cache   cache.CacheService
	ttl     time.Duration
	log     *logger.Logger
}

// NewPipeline wires a pipeline. c may be nil to disable result caching.
func NewPipeline(f crawl.Fetcher, s VehicleScraper, c cache.CacheService, ttl time.Duration) *Pipeline {
	return &Pipeline{
		fetcher: f,
		scraper: s,
		cache:   c,
		ttl:     ttl,
		log:     logger.ForComponent("pipeline"),
	}
}

// ResultKey is the cache key of the extracted result for url.
func ResultKey(p platform.Platform, url string) string {
	sum := sha1.Sum([]byte(url))
	return "result:" + string(p) + ":" + hex.EncodeToString(sum[:])
}

// Run scrapes url. Browser failures are masked behind a fallback record;
// crawl failures are returned.
func (p *Pipeline) Run(ctx context.Context, plat platform.Platform, url string) (models.ScrapeResult, error) {
	key := ResultKey(plat, url)
	if p.cache != nil {
		entry, err := cache.GetJSON[models.ExtractedVehicle](p.cache, key)
		if err == nil {
			p.log.Debug().Str("url", url).Dur("age", entry.Age()).Msg("result cache hit")
			return models.Live(entry.Data), nil
		}
		if !cache.IsMiss(err) {
			p.log.Warn().Err(scrapeerrors.NewCache("result cache read failed", err)).Str("key", key).Msg("ignoring result cache")
		}
	}

	var (
		result models.ScrapeResult
		err    error
	)
	if plat.UsesBrowser() {
		result = p.runBrowser(ctx, url)
	} else {
		result, err = p.runCrawl(ctx, plat, url)
	}
	if err != nil {
		return models.ScrapeResult{}, err
	}

	if p.cache != nil && !result.IsFallback() {
		if err := cache.SetJSON(p.cache, key, result.Vehicle, p.ttl); err != nil {
			p.log.Warn().Err(scrapeerrors.NewCache("result cache write failed", err)).Str("key", key).Msg("result not cached")
		}
	}
	return result, nil
}

func (p *Pipeline) runBrowser(ctx context.Context, url string) models.ScrapeResult {
	if p.scraper == nil {
		return scraper.FallbackVehicle(url, "browser scraping is not configured")
	}

	v, err := p.scraper.ScrapeVehicleDetails(ctx, url)
	if err != nil {
		p.log.Warn().
			Err(err).
			Str("url", url).
			Str("error_type", string(scrapeerrors.TypeOf(err))).
			Msg("browser scrape failed, serving fallback data")
		return scraper.FallbackVehicle(url, err.Error())
	}
	return models.Live(v)
}

func (p *Pipeline) runCrawl(ctx context.Context, plat platform.Platform, url string) (models.ScrapeResult, error) {
	ex, ok := extract.ForPlatform(plat)
	if !ok {
		return models.ScrapeResult{}, scrapeerrors.NewUnsupported(url)
	}
	if p.fetcher == nil {
		return models.ScrapeResult{}, scrapeerrors.NewUnavailable(plat.String(), "no page fetcher configured", nil)
	}

	page, err := p.fetcher.Fetch(ctx, url)
	var se *scrapeerrors.ScrapeError
	if err != nil && errors.As(err, &se) && se.IsRetryable() && ctx.Err() == nil {
		p.log.Info().Err(err).Str("url", url).Msg("retrying fetch once")
		page, err = p.fetcher.Fetch(ctx, url)
	}
	if err != nil {
		return models.ScrapeResult{}, err
	}

	v := ex.Extract(page.Content())
	if v.SourceURL == "" {
		v.SourceURL = url
	}
	if v.NeedsReview() {
		p.log.Info().Str("url", url).Str("platform", plat.String()).Msg("extraction incomplete, flagged for review")
	}
	return models.Live(v), nil
}

// Search runs a browser search. It never fails: empty or failed searches
// yield fallback records.
func (p *Pipeline) Search(ctx context.Context, opts scraper.SearchOptions) []models.ScrapeResult {
	if p.scraper == nil {
		return scraper.FallbackVehicles("browser scraping is not configured")
	}
	results, err := p.scraper.ScrapeVehicles(ctx, opts)
	if err != nil || len(results) == 0 {
		reason := "no listings found"
		if err != nil {
			reason = err.Error()
		}
		return scraper.FallbackVehicles(reason)
	}
	return results
}
