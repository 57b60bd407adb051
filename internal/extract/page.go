package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Content is the raw material handed to an extractor: whatever the crawling
// API or the browser returned for one listing.
type Content struct {
	SourceURL string
	Markdown  string
	HTML      string
	Metadata  map[string]string
	Images    []string
}

// Page is Content prepared once for the extraction passes.
type Page struct {
	Content
	Text  string // markdown, or block text recovered from HTML
	Title string
	lower string
	doc   *goquery.Document
}

var (
	headingRegex = regexp.MustCompile(`(?m)^#{1,3}\s+(.+)$`)
	spaceRegex   = regexp.MustCompile(`[ \t\x{00A0}]+`)
)

// NewPage prepares c for extraction. It never fails; unparsable HTML simply
// contributes nothing.
func NewPage(c Content) *Page {
	if c.Metadata == nil {
		c.Metadata = map[string]string{}
	}
	p := &Page{Content: c}

	if strings.TrimSpace(c.HTML) != "" {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(c.HTML)); err == nil {
			p.doc = doc
		}
	}

	p.Text = c.Markdown
	if strings.TrimSpace(p.Text) == "" && p.doc != nil {
		p.Text = blockText(p.doc)
	}
	p.lower = strings.ToLower(p.Text)
	p.Title = p.findTitle()
	return p
}

// Meta returns the first non-empty metadata value among keys.
func (p *Page) Meta(keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(p.Metadata[k]); v != "" {
			return v
		}
	}
	return ""
}

// Lines returns the text split into trimmed lines, empty lines kept.
func (p *Page) Lines() []string {
	raw := strings.Split(p.Text, "\n")
	for i, l := range raw {
		raw[i] = strings.TrimSpace(l)
	}
	return raw
}

func (p *Page) findTitle() string {
	if t := p.Meta("title", "og:title", "twitter:title"); t != "" {
		return t
	}
	if m := headingRegex.FindStringSubmatch(p.Text); len(m) > 1 {
		return strings.TrimSpace(m[1])
	}
	if p.doc != nil {
		if t := strings.TrimSpace(p.doc.Find("title").First().Text()); t != "" {
			return t
		}
		if t := strings.TrimSpace(p.doc.Find("h1").First().Text()); t != "" {
			return t
		}
	}
	for _, l := range strings.Split(p.Text, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			return l
		}
	}
	return ""
}

// blockText rebuilds line structure from block elements; list items keep a
// leading dash so the feature pass can see them.
func blockText(doc *goquery.Document) string {
	doc.Find("script, style, noscript, svg").Remove()

	var lines []string
	doc.Find("h1, h2, h3, h4, p, li, dt, dd, td, th").Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(spaceRegex.ReplaceAllString(s.Text(), " "))
		if text == "" {
			return
		}
		if goquery.NodeName(s) == "li" {
			text = "- " + text
		}
		lines = append(lines, text)
	})
	if len(lines) == 0 {
		return strings.TrimSpace(doc.Find("body").Text())
	}
	return strings.Join(lines, "\n")
}
