package scraper

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	scrapeerrors "vehiclescraper/internal/errors"
	"vehiclescraper/internal/extract"
	"vehiclescraper/internal/logger"
	"vehiclescraper/internal/models"
)

// fakeBrowser serves canned page text by URL.
type fakeBrowser struct {
	mu sync.Mutex

	pages     map[string]string
	links     []string
	navFails  map[string]int
	waitErr   error
	openErr   error
	navigated []string
	tabs      []*fakeTab
	closed    bool

	consentWaits []consentWait
}

type consentWait struct {
	selectors []string
	timeout   time.Duration
}

func (b *fakeBrowser) OpenTab(context.Context) (Tab, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.openErr != nil {
		return nil, b.openErr
	}
	t := &fakeTab{browser: b}
	b.tabs = append(b.tabs, t)
	return t, nil
}

func (b *fakeBrowser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

func (b *fakeBrowser) allTabsClosed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, t := range b.tabs {
		if !t.closed {
			return false
		}
	}
	return true
}

type fakeTab struct {
	browser *fakeBrowser
	url     string
	closed  bool
}

func (t *fakeTab) Navigate(url string, _ time.Duration) error {
	b := t.browser
	b.mu.Lock()
	defer b.mu.Unlock()
	b.navigated = append(b.navigated, url)
	if b.navFails[url] > 0 {
		b.navFails[url]--
		return errors.New("net::ERR_TIMED_OUT")
	}
	t.url = url
	return nil
}

func (t *fakeTab) WaitForAny([]string, time.Duration) error {
	return t.browser.waitErr
}

func (t *fakeTab) ClickFirst(selectors []string, timeout time.Duration) bool {
	b := t.browser
	b.mu.Lock()
	defer b.mu.Unlock()
	b.consentWaits = append(b.consentWaits, consentWait{selectors: selectors, timeout: timeout})
	return false
}

func (t *fakeTab) Text() (string, error) {
	b := t.browser
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pages[t.url], nil
}

func (t *fakeTab) HTML() (string, error) { return "", nil }

func (t *fakeTab) Strings(js string) ([]string, error) {
	if js == listingLinksScript {
		return t.browser.links, nil
	}
	return []string{"https://m.atcdn.co.uk/a/media/w800/abc.jpg"}, nil
}

func (t *fakeTab) Close() error {
	t.browser.mu.Lock()
	defer t.browser.mu.Unlock()
	t.closed = true
	return nil
}

func newTestScraper(b *fakeBrowser, launchErr error) (*AutoTraderScraper, *atomic.Int32) {
	s := NewAutoTraderScraper(Options{Retries: 3, Headless: true})
	s.log = logger.Nop()
	s.WithLauncher(func(context.Context, LaunchOptions) (Browser, error) {
		if launchErr != nil {
			return nil, launchErr
		}
		return b, nil
	})
	sleeps := &atomic.Int32{}
	s.sleep = func(ctx context.Context, _ time.Duration) error {
		sleeps.Add(1)
		return ctx.Err()
	}
	return s, sleeps
}

const (
	transitURL = "https://www.autotrader.co.uk/car-details/202401010000001"
	actrosURL  = "https://www.autotrader.co.uk/car-details/202401010000002"
)

func testBrowser() *fakeBrowser {
	return &fakeBrowser{
		pages: map[string]string{
			transitURL: "2017 Ford Transit Custom\n£14,995\nMileage: 62137 miles\nBristol (12 miles away)",
			actrosURL:  "2019 Mercedes-Benz Actros 2545\n£42,500\nMileage: 300,000 miles",
		},
		navFails: map[string]int{},
	}
}

func TestScrapeVehicleDetails(t *testing.T) {
	b := testBrowser()
	s, _ := newTestScraper(b, nil)

	v, err := s.ScrapeVehicleDetails(context.Background(), transitURL)
	require.NoError(t, err)

	assert.Equal(t, "Ford", v.Make)
	assert.Equal(t, "Transit Custom", v.Model)
	assert.Equal(t, 2017, v.Year)
	assert.Equal(t, 14995, v.Price)
	assert.Equal(t, models.CurrencyGBP, v.Currency)
	assert.Equal(t, 100000, v.Mileage)
	assert.Equal(t, "United Kingdom", v.Country)
	assert.Equal(t, transitURL, v.SourceURL)
	assert.Contains(t, v.Images, "https://m.atcdn.co.uk/a/media/w800/abc.jpg")

	assert.True(t, b.closed)
	assert.True(t, b.allTabsClosed())
}

func TestScrapeVehicleDetailsLaunchFailure(t *testing.T) {
	s, _ := newTestScraper(nil, errors.New("chromium not found"))

	_, err := s.ScrapeVehicleDetails(context.Background(), transitURL)
	require.Error(t, err)
	assert.True(t, errors.Is(err, scrapeerrors.ErrServiceUnavailable))
	assert.Contains(t, err.Error(), "chromium not found")
}

func TestScrapeVehicleDetailsOpenTabFailureClosesBrowser(t *testing.T) {
	b := testBrowser()
	b.openErr = errors.New("target closed")
	s, _ := newTestScraper(b, nil)

	_, err := s.ScrapeVehicleDetails(context.Background(), transitURL)
	assert.True(t, errors.Is(err, scrapeerrors.ErrServiceUnavailable))
	assert.True(t, b.closed)
}

func TestNavigationRetries(t *testing.T) {
	b := testBrowser()
	b.navFails[transitURL] = 2
	s, sleeps := newTestScraper(b, nil)

	v, err := s.ScrapeVehicleDetails(context.Background(), transitURL)
	require.NoError(t, err)
	assert.Equal(t, "Ford", v.Make)
	assert.Len(t, b.navigated, 3)
	assert.Equal(t, int32(2), sleeps.Load())
}

func TestCookieBannerWaitIsBoundedOncePerNavigation(t *testing.T) {
	b := testBrowser()
	b.navFails[transitURL] = 2
	s, _ := newTestScraper(b, nil)

	_, err := s.ScrapeVehicleDetails(context.Background(), transitURL)
	require.NoError(t, err)

	require.Len(t, b.consentWaits, 1)
	assert.Equal(t, cookieSelectors, b.consentWaits[0].selectors)
	assert.Equal(t, cookieWaitTimeout, b.consentWaits[0].timeout)
}

func TestNavigationGivesUp(t *testing.T) {
	b := testBrowser()
	b.navFails[transitURL] = 10
	s, sleeps := newTestScraper(b, nil)

	_, err := s.ScrapeVehicleDetails(context.Background(), transitURL)
	require.Error(t, err)
	assert.True(t, errors.Is(err, scrapeerrors.ErrNavigation))
	assert.Contains(t, err.Error(), "3 attempts")
	assert.Len(t, b.navigated, 3)
	assert.Equal(t, int32(2), sleeps.Load())
	assert.True(t, b.closed)
	assert.True(t, b.allTabsClosed())
}

func TestNavigationStopsOnCancel(t *testing.T) {
	b := testBrowser()
	b.navFails[transitURL] = 10
	s, _ := newTestScraper(b, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.ScrapeVehicleDetails(ctx, transitURL)
	assert.True(t, errors.Is(err, scrapeerrors.ErrNavigation))
	assert.Empty(t, b.navigated)
}

func TestContentTimeoutStillExtracts(t *testing.T) {
	b := testBrowser()
	b.waitErr = context.DeadlineExceeded
	s, _ := newTestScraper(b, nil)

	v, err := s.ScrapeVehicleDetails(context.Background(), actrosURL)
	require.NoError(t, err)
	assert.Equal(t, "Mercedes-Benz", v.Make)
	assert.Equal(t, "Actros", v.Model)
	assert.Equal(t, 42500, v.Price)
	assert.Equal(t, extract.MilesToKm(300000), v.Mileage)
}

func TestScrapeVehicles(t *testing.T) {
	b := testBrowser()
	b.links = []string{
		actrosURL + "?sort=relevance",
		transitURL,
		actrosURL,
		"https://www.autotrader.co.uk/dealers/some-dealer",
	}
	s, _ := newTestScraper(b, nil)

	results, err := s.ScrapeVehicles(context.Background(), SearchOptions{Make: "Ford"})
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.False(t, results[0].IsFallback())
	assert.Equal(t, "Mercedes-Benz", results[0].Vehicle.Make)
	assert.Equal(t, "Ford", results[1].Vehicle.Make)
	assert.True(t, b.closed)
	assert.True(t, b.allTabsClosed())
}

func TestScrapeVehiclesSkipsFailedListings(t *testing.T) {
	b := testBrowser()
	b.links = []string{actrosURL, transitURL}
	b.navFails[actrosURL] = 10
	s, _ := newTestScraper(b, nil)

	results, err := s.ScrapeVehicles(context.Background(), SearchOptions{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Ford", results[0].Vehicle.Make)
}

func TestScrapeVehiclesFallback(t *testing.T) {
	tests := []struct {
		name      string
		browser   *fakeBrowser
		launchErr error
		reason    string
	}{
		{"launch failure", nil, errors.New("chromium not found"), "chromium not found"},
		{"no listings", testBrowser(), nil, "no listings found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestScraper(tt.browser, tt.launchErr)

			results, err := s.ScrapeVehicles(context.Background(), SearchOptions{})
			require.NoError(t, err)
			require.NotEmpty(t, results)
			for _, r := range results {
				assert.True(t, r.IsFallback())
				assert.Contains(t, r.Reason, tt.reason)
				assert.Equal(t, models.CurrencyGBP, r.Vehicle.Currency)
			}
		})
	}
}

func TestBuildSearchURL(t *testing.T) {
	u := BuildSearchURL(SearchOptions{Make: "Volvo", Model: "FH"})
	assert.True(t, strings.HasPrefix(u, searchURL+"?"))
	assert.Contains(t, u, "postcode=SW1A+1AA")
	assert.Contains(t, u, "make=Volvo")
	assert.Contains(t, u, "model=FH")

	u = BuildSearchURL(SearchOptions{Postcode: "M1 1AE"})
	assert.Contains(t, u, "postcode=M1+1AE")
	assert.NotContains(t, u, "make=")
}

func TestUniqueListingLinks(t *testing.T) {
	links := uniqueListingLinks([]string{
		transitURL + "?journey=search",
		transitURL + "#gallery",
		actrosURL,
		"https://www.autotrader.co.uk/van-search",
	}, 5)
	assert.Equal(t, []string{transitURL, actrosURL}, links)

	assert.Len(t, uniqueListingLinks([]string{transitURL, actrosURL}, 1), 1)
}

func TestFallbackVehicle(t *testing.T) {
	r := FallbackVehicle(transitURL, "browser unavailable")
	assert.True(t, r.IsFallback())
	assert.Equal(t, transitURL, r.Vehicle.SourceURL)
	assert.Equal(t, models.UnknownMake, r.Vehicle.Make)
	assert.Contains(t, r.Vehicle.Description, "Sample listing")
}

func TestFallbackVehiclesAreCopies(t *testing.T) {
	first := FallbackVehicles("x")
	first[0].Vehicle.Features[0] = "changed"
	second := FallbackVehicles("x")
	assert.NotEqual(t, "changed", second[0].Vehicle.Features[0])
}
