package crawl

import (
	"context"
	"strings"
	"time"

	html2markdown "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	scrapeerrors "vehiclescraper/internal/errors"
	"vehiclescraper/internal/logger"
)

const (
	directComponent = "crawl-direct"

	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// DirectFetcher downloads pages itself when no crawling API is configured.
// Pages that need JavaScript come back mostly empty; extraction then falls
// back to defaults.
type DirectFetcher struct {
	timeout   time.Duration
	userAgent string
	log       *logger.Logger
}

// NewDirectFetcher creates a fetcher with the given per-request timeout.
func NewDirectFetcher(timeout time.Duration) *DirectFetcher {
	return &DirectFetcher{
		timeout:   timeout,
		userAgent: defaultUserAgent,
		log:       logger.ForComponent(directComponent),
	}
}

// Fetch implements Fetcher
func (d *DirectFetcher) Fetch(ctx context.Context, url string) (*Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c := colly.NewCollector(
		colly.UserAgent(d.userAgent),
		colly.DetectCharset(),
		colly.StdlibContext(ctx),
	)
	c.SetRequestTimeout(d.timeout)

	var (
		page     *Page
		fetchErr error
	)
	c.OnResponse(func(r *colly.Response) {
		page = &Page{
			URL:        r.Request.URL.String(),
			StatusCode: r.StatusCode,
			HTML:       string(r.Body),
		}
	})
	c.OnError(func(r *colly.Response, err error) {
		fetchErr = err
		if r != nil && r.StatusCode != 0 {
			d.log.Warn().Str("url", url).Int("status", r.StatusCode).Err(err).Msg("direct fetch failed")
		}
	})

	if err := c.Visit(url); err != nil && fetchErr == nil {
		fetchErr = err
	}
	c.Wait()

	if fetchErr != nil {
		return nil, scrapeerrors.NewUpstream(directComponent, "failed to fetch page", fetchErr)
	}
	if page == nil {
		return nil, scrapeerrors.NewUpstream(directComponent, "empty response", nil)
	}

	if err := enrichFromHTML(page); err != nil {
		return nil, scrapeerrors.NewParsing(directComponent, "failed to parse page", err)
	}
	return page, nil
}

// enrichFromHTML fills metadata from <meta> tags and the markdown body from
// the HTML.
func enrichFromHTML(page *Page) error {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.HTML))
	if err != nil {
		return err
	}

	meta := map[string]string{}
	if t := strings.TrimSpace(doc.Find("title").First().Text()); t != "" {
		meta["title"] = t
	}
	doc.Find("meta").Each(func(_ int, s *goquery.Selection) {
		key, _ := s.Attr("property")
		if key == "" {
			key, _ = s.Attr("name")
		}
		if key == "" {
			key, _ = s.Attr("itemprop")
		}
		val, _ := s.Attr("content")
		key, val = strings.ToLower(strings.TrimSpace(key)), strings.TrimSpace(val)
		if key == "" || val == "" {
			return
		}
		if _, exists := meta[key]; !exists {
			meta[key] = val
		}
	})
	page.Metadata = meta

	doc.Find("script, style, noscript, nav, footer, header").Remove()
	body, err := doc.Find("body").Html()
	if err != nil {
		return err
	}
	conv := html2markdown.NewConverter("", true, nil)
	md, err := conv.ConvertString(body)
	if err != nil {
		return err
	}
	page.Markdown = strings.TrimSpace(md)
	return nil
}
