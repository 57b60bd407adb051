package crawl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	scrapeerrors "vehiclescraper/internal/errors"
	"vehiclescraper/internal/logger"
)

const apiComponent = "crawl-api"

// APIClient talks to a Firecrawl-compatible scrape endpoint.
type APIClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
	limiter *rate.Limiter
	log     *logger.Logger
}

// APIOption configures an APIClient.
type APIOption func(*APIClient)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) APIOption {
	return func(a *APIClient) { a.http = c }
}

// WithRate paces outbound requests to perSecond with the given burst.
func WithRate(perSecond float64, burst int) APIOption {
	return func(a *APIClient) { a.limiter = rate.NewLimiter(rate.Limit(perSecond), burst) }
}

// NewAPIClient creates a client for baseURL authenticated with apiKey.
func NewAPIClient(baseURL, apiKey string, timeout time.Duration, opts ...APIOption) *APIClient {
	a := &APIClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Inf, 1),
		log:     logger.ForComponent(apiComponent),
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

type scrapeRequest struct {
	URL             string   `json:"url"`
	Formats         []string `json:"formats"`
	OnlyMainContent bool     `json:"onlyMainContent"`
}

type scrapeResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Data    struct {
		Markdown string                     `json:"markdown"`
		HTML     string                     `json:"html"`
		RawHTML  string                     `json:"rawHtml"`
		Images   []string                   `json:"images"`
		Metadata map[string]json.RawMessage `json:"metadata"`
	} `json:"data"`
}

// Fetch implements Fetcher
func (a *APIClient) Fetch(ctx context.Context, url string) (*Page, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, scrapeerrors.NewUpstream(apiComponent, "request pacing interrupted", err)
	}

	body, err := json.Marshal(scrapeRequest{
		URL:     url,
		Formats: []string{"markdown", "html"},
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/v1/scrape", bytes.NewReader(body))
	if err != nil {
		return nil, scrapeerrors.NewUpstream(apiComponent, "failed to build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if a.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+a.apiKey)
	}

	start := time.Now()
	resp, err := a.http.Do(req)
	if err != nil {
		return nil, scrapeerrors.NewUpstream(apiComponent, "request failed", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, scrapeerrors.NewUpstream(apiComponent, "failed to read response", err)
	}

	a.log.Debug().
		Str("url", url).
		Int("status", resp.StatusCode).
		Dur("took", time.Since(start)).
		Msg("crawl api response")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, scrapeerrors.NewUpstream(apiComponent,
			fmt.Sprintf("crawl api returned status %d", resp.StatusCode), apiError(raw))
	}

	var sr scrapeResponse
	if err := json.Unmarshal(raw, &sr); err != nil {
		return nil, scrapeerrors.NewParsing(apiComponent, "invalid crawl api response", err)
	}
	if !sr.Success {
		return nil, scrapeerrors.NewUpstream(apiComponent, "crawl api reported failure", apiError(raw))
	}

	page := &Page{
		URL:        url,
		StatusCode: resp.StatusCode,
		Markdown:   sr.Data.Markdown,
		HTML:       sr.Data.HTML,
		Metadata:   flattenMetadata(sr.Data.Metadata),
		Images:     sr.Data.Images,
	}
	if page.HTML == "" {
		page.HTML = sr.Data.RawHTML
	}
	if code, err := strconv.Atoi(page.Metadata["statuscode"]); err == nil {
		page.StatusCode = code
	}
	// The API succeeds even when the listing itself is blocked or gone.
	if page.StatusCode >= 400 {
		return nil, scrapeerrors.NewUpstream(apiComponent,
			fmt.Sprintf("listing returned status %d", page.StatusCode), nil)
	}
	return page, nil
}

// apiError pulls the error message out of a response body.
func apiError(raw []byte) error {
	var body struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(raw, &body) == nil && body.Error != "" {
		return fmt.Errorf("%s", body.Error)
	}
	if len(raw) > 200 {
		raw = raw[:200]
	}
	return fmt.Errorf("%s", strings.TrimSpace(string(raw)))
}

// flattenMetadata turns string, number and string-array values into plain
// strings; arrays keep their first element.
func flattenMetadata(in map[string]json.RawMessage) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		var s string
		if json.Unmarshal(v, &s) != nil {
			var list []string
			if json.Unmarshal(v, &list) == nil && len(list) > 0 {
				s = list[0]
			} else {
				var n json.Number
				if json.Unmarshal(v, &n) == nil {
					s = n.String()
				}
			}
		}
		if s = strings.TrimSpace(s); s != "" {
			out[normalizeMetaKey(k)] = s
		}
	}
	return out
}
