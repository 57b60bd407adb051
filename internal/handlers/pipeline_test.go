package handlers

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vehiclescraper/internal/cache"
	"vehiclescraper/internal/crawl"
	scrapeerrors "vehiclescraper/internal/errors"
	"vehiclescraper/internal/models"
	"vehiclescraper/internal/platform"
	"vehiclescraper/internal/scraper"
)

const (
	actrosURL  = "https://www.bazaraki.com/adv/123_mercedes-actros-2018/"
	transitURL = "https://www.autotrader.co.uk/car-details/202401010000001"
)

var actrosMarkdown = strings.Join([]string{
	"# Mercedes Actros 2018",
	"",
	"Price: €35,000",
	"",
	"Mileage: 450,000 km",
	"",
	"Location: Limassol",
}, "\n")

// stubFetcher serves markdown by URL and counts calls.
type stubFetcher struct {
	mu    sync.Mutex
	pages map[string]string
	err   error
	calls int
}

func (f *stubFetcher) Fetch(_ context.Context, url string) (*crawl.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &crawl.Page{URL: url, StatusCode: 200, Markdown: f.pages[url]}, nil
}

// stubScraper returns a fixed vehicle or error.
type stubScraper struct {
	mu       sync.Mutex
	vehicle  models.ExtractedVehicle
	err      error
	search   []models.ScrapeResult
	calls    int
	lastOpts scraper.SearchOptions
}

func (s *stubScraper) ScrapeVehicleDetails(_ context.Context, url string) (models.ExtractedVehicle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return models.ExtractedVehicle{}, s.err
	}
	v := s.vehicle
	v.SourceURL = url
	return v, nil
}

func (s *stubScraper) ScrapeVehicles(_ context.Context, opts scraper.SearchOptions) ([]models.ScrapeResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastOpts = opts
	return s.search, s.err
}

func transitVehicle() models.ExtractedVehicle {
	v := models.NewExtractedVehicle()
	v.Make = "Ford"
	v.Model = "Transit Custom"
	v.Year = 2017
	v.Price = 14995
	v.Currency = models.CurrencyGBP
	return v
}

func TestPipelineCrawlPlatform(t *testing.T) {
	f := &stubFetcher{pages: map[string]string{actrosURL: actrosMarkdown}}
	p := NewPipeline(f, &stubScraper{}, nil, 0)

	result, err := p.Run(context.Background(), platform.Bazaraki, actrosURL)
	require.NoError(t, err)

	assert.False(t, result.IsFallback())
	assert.Equal(t, "Mercedes-Benz", result.Vehicle.Make)
	assert.Equal(t, "Actros", result.Vehicle.Model)
	assert.Equal(t, 2018, result.Vehicle.Year)
	assert.Equal(t, 35000, result.Vehicle.Price)
	assert.Equal(t, 450000, result.Vehicle.Mileage)
	assert.Equal(t, actrosURL, result.Vehicle.SourceURL)
}

func TestPipelineCrawlErrorPropagates(t *testing.T) {
	f := &stubFetcher{err: scrapeerrors.NewUpstream("crawl-api", "crawl api returned status 402", nil)}
	p := NewPipeline(f, &stubScraper{}, nil, 0)

	_, err := p.Run(context.Background(), platform.Facebook, "https://www.facebook.com/marketplace/item/1")
	require.Error(t, err)
	assert.Equal(t, scrapeerrors.ErrorTypeUpstream, scrapeerrors.TypeOf(err))
	assert.Equal(t, 2, f.calls)
}

func TestPipelineDoesNotRetryParsingErrors(t *testing.T) {
	f := &stubFetcher{err: scrapeerrors.NewParsing("crawl-api", "invalid response", nil)}
	p := NewPipeline(f, &stubScraper{}, nil, 0)

	_, err := p.Run(context.Background(), platform.Bazaraki, actrosURL)
	require.Error(t, err)
	assert.Equal(t, 1, f.calls)
}

func TestPipelineBrowserFailureFallsBack(t *testing.T) {
	s := &stubScraper{err: scrapeerrors.NewUnavailable("autotrader", "failed to launch browser", errors.New("chromium not found"))}
	c := cache.NewMemoryCache()
	p := NewPipeline(&stubFetcher{}, s, c, time.Minute)

	result, err := p.Run(context.Background(), platform.AutoTrader, transitURL)
	require.NoError(t, err)
	assert.True(t, result.IsFallback())
	assert.Contains(t, result.Reason, "chromium not found")
	assert.Equal(t, transitURL, result.Vehicle.SourceURL)
	assert.Equal(t, 0, c.Len())
}

func TestPipelineWithoutScraperFallsBack(t *testing.T) {
	p := NewPipeline(&stubFetcher{}, nil, nil, 0)

	result, err := p.Run(context.Background(), platform.AutoTrader, transitURL)
	require.NoError(t, err)
	assert.True(t, result.IsFallback())
}

func TestPipelineCachesLiveResults(t *testing.T) {
	s := &stubScraper{vehicle: transitVehicle()}
	c := cache.NewMemoryCache()
	p := NewPipeline(&stubFetcher{}, s, c, time.Minute)

	first, err := p.Run(context.Background(), platform.AutoTrader, transitURL)
	require.NoError(t, err)
	second, err := p.Run(context.Background(), platform.AutoTrader, transitURL)
	require.NoError(t, err)

	assert.Equal(t, 1, s.calls)
	assert.Equal(t, first.Vehicle.Make, second.Vehicle.Make)
	assert.False(t, second.IsFallback())
	assert.Equal(t, 1, c.Len())
}

func TestResultKey(t *testing.T) {
	a := ResultKey(platform.Bazaraki, actrosURL)
	b := ResultKey(platform.Facebook, actrosURL)
	assert.True(t, strings.HasPrefix(a, "result:bazaraki:"))
	assert.NotEqual(t, a, b)
	assert.Len(t, strings.TrimPrefix(a, "result:bazaraki:"), 40)
}

func TestPipelineSearch(t *testing.T) {
	live := []models.ScrapeResult{models.Live(transitVehicle())}
	tests := []struct {
		name     string
		scraper  *stubScraper
		fallback bool
	}{
		{"live results", &stubScraper{search: live}, false},
		{"empty search", &stubScraper{}, true},
		{"search error", &stubScraper{err: errors.New("boom")}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPipeline(nil, tt.scraper, nil, 0)
			results := p.Search(context.Background(), scraper.SearchOptions{Make: "Ford"})
			require.NotEmpty(t, results)
			assert.Equal(t, tt.fallback, results[0].IsFallback())
		})
	}
}
