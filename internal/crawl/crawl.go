// Package crawl fetches listing pages for the extractors, either through a
// hosted crawling API or directly over HTTP.
package crawl

import (
	"context"
	"strings"
	"unicode"

	"vehiclescraper/internal/extract"
)

// Page is one fetched listing.
type Page struct {
	URL        string            `json:"url"`
	StatusCode int               `json:"statusCode"`
	Markdown   string            `json:"markdown"`
	HTML       string            `json:"html"`
	Metadata   map[string]string `json:"metadata"`
	Images     []string          `json:"images"`
}

// Content converts the page into extractor input.
func (p *Page) Content() extract.Content {
	return extract.Content{
		SourceURL: p.URL,
		Markdown:  p.Markdown,
		HTML:      p.HTML,
		Metadata:  p.Metadata,
		Images:    p.Images,
	}
}

// Fetcher retrieves one page.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*Page, error)
}

// normalizeMetaKey maps camel-cased Open Graph keys ("ogImage") onto the
// property names the extractors look up ("og:image").
func normalizeMetaKey(k string) string {
	for _, prefix := range []string{"og", "twitter", "product"} {
		rest := strings.TrimPrefix(k, prefix)
		if rest == k || rest == "" || !unicode.IsUpper(rune(rest[0])) {
			continue
		}
		var b strings.Builder
		b.WriteString(prefix)
		for _, r := range rest {
			if unicode.IsUpper(r) {
				b.WriteByte(':')
				r = unicode.ToLower(r)
			}
			b.WriteRune(r)
		}
		return b.String()
	}
	return strings.ToLower(k)
}
