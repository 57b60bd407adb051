// Package scraper drives a headless browser against AutoTrader UK, the one
// supported platform whose listings need JavaScript to render.
package scraper

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	scrapeerrors "vehiclescraper/internal/errors"
	"vehiclescraper/internal/extract"
	"vehiclescraper/internal/logger"
	"vehiclescraper/internal/models"
)

const (
	platformName = "autotrader"

	searchURL       = "https://www.autotrader.co.uk/car-search"
	defaultPostcode = "SW1A 1AA"

	cookieWaitTimeout = 3 * time.Second
)

var (
	cookieSelectors = []string{
		"button[title='Accept All']",
		"button[data-testid='cookie-accept']",
		"#onetrust-accept-btn-handler",
		"button[id*='accept']",
		"button[class*='accept']",
		".cookie-banner button",
		"button[aria-label*='Accept']",
	}

	detailContentSelectors = []string{
		"[data-testid='advert-title']",
		"[data-testid='advert-price']",
		"[data-gui='advert-title']",
		"main h1",
	}

	searchContentSelectors = []string{
		"a[href*='/car-details/']",
		"[data-testid='search-listing-title']",
		"article",
	}
)

const (
	imagesScript = `() => Array.from(document.querySelectorAll(
		"[data-testid*='gallery'] img, picture img, img[src*='atcdn']"))
		.map(img => img.currentSrc || img.src || img.getAttribute('data-src') || '')`

	listingLinksScript = `() => Array.from(document.querySelectorAll("a[href*='/car-details/']"))
		.map(a => a.href)`
)

// Options configures the AutoTrader scraper.
type Options struct {
	ChromeBin         string
	Headless          bool
	NavigationTimeout time.Duration
	ContentTimeout    time.Duration
	Retries           int
	Backoff           time.Duration
	Workers           int
}

// DefaultOptions returns the production timeouts.
func DefaultOptions() Options {
	return Options{
		Headless:          true,
		NavigationTimeout: 20 * time.Second,
		ContentTimeout:    12 * time.Second,
		Retries:           3,
		Backoff:           2 * time.Second,
		Workers:           2,
	}
}

// SearchOptions narrows a search results page.
type SearchOptions struct {
	Make       string `json:"make"`
	Model      string `json:"model"`
	Postcode   string `json:"postcode"`
	MaxResults int    `json:"maxResults"`
}

// AutoTraderScraper scrapes AutoTrader listings with a fresh browser per call.
type AutoTraderScraper struct {
	opts      Options
	launch    Launcher
	extractor extract.Extractor
	log       *logger.Logger
	sleep     func(context.Context, time.Duration) error
}

// NewAutoTraderScraper creates a scraper that launches Chromium through rod.
func NewAutoTraderScraper(opts Options) *AutoTraderScraper {
	d := DefaultOptions()
	if opts.NavigationTimeout <= 0 {
		opts.NavigationTimeout = d.NavigationTimeout
	}
	if opts.ContentTimeout <= 0 {
		opts.ContentTimeout = d.ContentTimeout
	}
	if opts.Retries < 1 {
		opts.Retries = d.Retries
	}
	if opts.Backoff < 0 {
		opts.Backoff = 0
	}
	if opts.Workers < 1 {
		opts.Workers = d.Workers
	}
	return &AutoTraderScraper{
		opts:      opts,
		launch:    LaunchRod,
		extractor: extract.NewAutoTrader(),
		log:       logger.ForPlatform(platformName),
		sleep:     sleepContext,
	}
}

// WithLauncher replaces the browser launcher.
func (s *AutoTraderScraper) WithLauncher(l Launcher) *AutoTraderScraper {
	s.launch = l
	return s
}

// ScrapeVehicleDetails loads one listing page and extracts it.
func (s *AutoTraderScraper) ScrapeVehicleDetails(ctx context.Context, listingURL string) (models.ExtractedVehicle, error) {
	sess := newSession(s.log)
	defer sess.close()

	if err := s.start(ctx, sess); err != nil {
		return models.ExtractedVehicle{}, err
	}

	sess.to(StateNavigating)
	if err := s.navigate(ctx, sess.tab, listingURL); err != nil {
		return models.ExtractedVehicle{}, err
	}

	sess.to(StateWaitingForContent)
	s.waitForContent(sess.tab, detailContentSelectors)

	sess.to(StateExtracting)
	return s.extractTab(sess.tab, listingURL)
}

// ScrapeVehicles scrapes a search results page and its listings. It never
// returns an empty list: any failure yields the tagged fallback samples.
func (s *AutoTraderScraper) ScrapeVehicles(ctx context.Context, opts SearchOptions) ([]models.ScrapeResult, error) {
	results, err := s.scrapeSearch(ctx, opts)
	if err != nil {
		s.log.Warn().Err(err).Msg("search scrape failed, returning fallback vehicles")
		return FallbackVehicles(err.Error()), nil
	}
	if len(results) == 0 {
		s.log.Warn().Msg("search returned no listings, returning fallback vehicles")
		return FallbackVehicles("no listings found"), nil
	}
	return results, nil
}

func (s *AutoTraderScraper) scrapeSearch(ctx context.Context, opts SearchOptions) ([]models.ScrapeResult, error) {
	if opts.MaxResults <= 0 {
		opts.MaxResults = 10
	}

	sess := newSession(s.log)
	defer sess.close()

	if err := s.start(ctx, sess); err != nil {
		return nil, err
	}

	target := BuildSearchURL(opts)
	sess.to(StateNavigating)
	if err := s.navigate(ctx, sess.tab, target); err != nil {
		return nil, err
	}

	sess.to(StateWaitingForContent)
	s.waitForContent(sess.tab, searchContentSelectors)

	sess.to(StateExtracting)
	links, err := sess.tab.Strings(listingLinksScript)
	if err != nil {
		return nil, scrapeerrors.NewParsing(platformName, "failed to read listing links", err)
	}
	links = uniqueListingLinks(links, opts.MaxResults)
	sess.log.Info().Int("listings", len(links)).Str("url", target).Msg("collected listing links")

	return s.scrapeDetailPages(ctx, sess.browser, links), nil
}

type detailJob struct {
	index int
	url   string
}

type detailResult struct {
	index   int
	vehicle models.ExtractedVehicle
	err     error
}

// scrapeDetailPages visits listing pages with a small pool of tabs. Failed
// pages are skipped; order follows the search results.
func (s *AutoTraderScraper) scrapeDetailPages(ctx context.Context, b Browser, links []string) []models.ScrapeResult {
	if len(links) == 0 {
		return nil
	}

	jobs := make(chan detailJob, len(links))
	results := make(chan detailResult, len(links))

	workers := min(s.opts.Workers, len(links))
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.detailWorker(ctx, b, jobs, results)
		}()
	}

	for i, link := range links {
		jobs <- detailJob{index: i, url: link}
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	ordered := make([]*models.ExtractedVehicle, len(links))
	for r := range results {
		if r.err != nil {
			s.log.Warn().Err(r.err).Str("url", links[r.index]).Msg("skipping listing")
			continue
		}
		v := r.vehicle
		ordered[r.index] = &v
	}

	var out []models.ScrapeResult
	for _, v := range ordered {
		if v != nil {
			out = append(out, models.Live(*v))
		}
	}
	return out
}

func (s *AutoTraderScraper) detailWorker(ctx context.Context, b Browser, jobs <-chan detailJob, results chan<- detailResult) {
	for job := range jobs {
		if err := ctx.Err(); err != nil {
			results <- detailResult{index: job.index, err: err}
			continue
		}
		v, err := s.scrapeInTab(ctx, b, job.url)
		results <- detailResult{index: job.index, vehicle: v, err: err}
	}
}

func (s *AutoTraderScraper) scrapeInTab(ctx context.Context, b Browser, listingURL string) (models.ExtractedVehicle, error) {
	tab, err := b.OpenTab(ctx)
	if err != nil {
		return models.ExtractedVehicle{}, scrapeerrors.NewUnavailable(platformName, "failed to open tab", err)
	}
	defer tab.Close()

	if err := s.navigate(ctx, tab, listingURL); err != nil {
		return models.ExtractedVehicle{}, err
	}
	s.waitForContent(tab, detailContentSelectors)
	return s.extractTab(tab, listingURL)
}

// start launches the browser and opens the session's tab.
func (s *AutoTraderScraper) start(ctx context.Context, sess *session) error {
	sess.to(StateInitializing)
	b, err := s.launch(ctx, LaunchOptions{ChromeBin: s.opts.ChromeBin, Headless: s.opts.Headless})
	if err != nil {
		return scrapeerrors.NewUnavailable(platformName, "failed to launch browser", err)
	}
	sess.browser = b

	tab, err := b.OpenTab(ctx)
	if err != nil {
		return scrapeerrors.NewUnavailable(platformName, "failed to open tab", err)
	}
	sess.tab = tab
	sess.to(StateReady)
	return nil
}

// navigate loads target with a fixed backoff between attempts, then dismisses
// any cookie banner.
func (s *AutoTraderScraper) navigate(ctx context.Context, tab Tab, target string) error {
	var lastErr error
	for attempt := 1; attempt <= s.opts.Retries; attempt++ {
		if err := ctx.Err(); err != nil {
			return scrapeerrors.NewNavigation(platformName, "navigation cancelled", err)
		}

		lastErr = tab.Navigate(target, s.opts.NavigationTimeout)
		if lastErr == nil {
			if tab.ClickFirst(cookieSelectors, cookieWaitTimeout) {
				s.log.Debug().Msg("cookie consent accepted")
			}
			return nil
		}

		s.log.Warn().
			Err(lastErr).
			Int("attempt", attempt).
			Int("max_attempts", s.opts.Retries).
			Str("url", target).
			Msg("navigation failed")

		if attempt < s.opts.Retries {
			if err := s.sleep(ctx, s.opts.Backoff); err != nil {
				return scrapeerrors.NewNavigation(platformName, "navigation cancelled", err)
			}
		}
	}
	return scrapeerrors.NewNavigation(platformName,
		fmt.Sprintf("failed to load page after %d attempts", s.opts.Retries), lastErr)
}

// waitForContent gives the page a bounded time to render; a timeout is not an
// error and extraction proceeds with whatever DOM exists.
func (s *AutoTraderScraper) waitForContent(tab Tab, selectors []string) {
	if err := tab.WaitForAny(selectors, s.opts.ContentTimeout); err != nil {
		s.log.Debug().Err(err).Msg("content wait timed out, extracting partial page")
	}
}

func (s *AutoTraderScraper) extractTab(tab Tab, listingURL string) (models.ExtractedVehicle, error) {
	text, err := tab.Text()
	if err != nil {
		return models.ExtractedVehicle{}, scrapeerrors.NewParsing(platformName, "failed to read page text", err)
	}
	html, err := tab.HTML()
	if err != nil {
		s.log.Debug().Err(err).Msg("failed to read page html")
	}
	images, err := tab.Strings(imagesScript)
	if err != nil {
		s.log.Debug().Err(err).Msg("failed to read gallery images")
	}

	v := s.extractor.Extract(extract.Content{
		SourceURL: listingURL,
		Markdown:  text,
		HTML:      html,
		Images:    images,
	})
	v.SourceURL = listingURL
	return v, nil
}

// BuildSearchURL returns the search results URL for opts.
func BuildSearchURL(opts SearchOptions) string {
	q := url.Values{}
	postcode := strings.TrimSpace(opts.Postcode)
	if postcode == "" {
		postcode = defaultPostcode
	}
	q.Set("postcode", postcode)
	if m := strings.TrimSpace(opts.Make); m != "" {
		q.Set("make", m)
	}
	if m := strings.TrimSpace(opts.Model); m != "" {
		q.Set("model", m)
	}
	q.Set("sort", "relevance")
	return searchURL + "?" + q.Encode()
}

// uniqueListingLinks drops query strings and duplicates, keeping at most limit.
func uniqueListingLinks(links []string, limit int) []string {
	seen := make(map[string]bool)
	var out []string
	for _, l := range links {
		u, err := url.Parse(l)
		if err != nil || !strings.Contains(u.Path, "/car-details/") {
			continue
		}
		u.RawQuery, u.Fragment = "", ""
		key := u.String()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, key)
		if len(out) == limit {
			break
		}
	}
	return out
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
