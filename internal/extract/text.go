package extract

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	minParagraph  = 100
	maxFeatures   = 20
	maxSpecs      = 30
	minFeatureLen = 3
	maxFeatureLen = 100
)

var (
	markdownImageRegex = regexp.MustCompile(`!\[[^\]]*\]\(([^)\s]+)(?:\s+"[^"]*")?\)`)
	markdownLinkRegex  = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	paragraphSplit     = regexp.MustCompile(`\n\s*\n`)
	bulletRegex        = regexp.MustCompile(`^(?:[-*+•·]\s+|[✓✔✅☑]\s*|\d{1,2}[.)]\s+)`)
	featureHeadRegex   = regexp.MustCompile(`(?i)^(?:key\s+|standard\s+)?(?:features|equipment|extras|options)\s*:?\s*(.*)$`)
	specLineRegex      = regexp.MustCompile(`^([A-Za-z][A-Za-z0-9 /().'-]{1,30}?)\s*:\s*(.{1,100})$`)
	markdownMarks      = strings.NewReplacer("**", "", "__", "", "`", "")
)

// Description prefers metadata and falls back to the longest body paragraph.
func Description(p *Page, max int) string {
	d, ok := First[string](p,
		func(p *Page) (string, bool) {
			d := p.Meta("description", "og:description", "twitter:description")
			return d, d != ""
		},
		longestParagraph,
	)
	if !ok {
		return ""
	}
	return truncate(d, max)
}

func longestParagraph(p *Page) (string, bool) {
	best := ""
	for _, para := range paragraphSplit.Split(p.Text, -1) {
		clean := cleanMarkdown(para)
		if len([]rune(clean)) > minParagraph && len(clean) > len(best) {
			best = clean
		}
	}
	return best, best != ""
}

// cleanMarkdown strips markup and collapses whitespace.
func cleanMarkdown(s string) string {
	s = markdownImageRegex.ReplaceAllString(s, "")
	s = markdownLinkRegex.ReplaceAllString(s, "$1")
	s = markdownMarks.Replace(s)
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimLeft(strings.TrimSpace(l), "#> ")
	}
	return strings.TrimSpace(spaceRegex.ReplaceAllString(strings.Join(lines, " "), " "))
}

// truncate cuts s to at most max characters.
func truncate(s string, max int) string {
	r := []rune(strings.TrimSpace(s))
	if max <= 0 || len(r) <= max {
		return string(r)
	}
	return strings.TrimSpace(string(r[:max]))
}

// Images gathers listing photos from the crawl result, page metadata, HTML
// and markdown, in that order.
func Images(p *Page, base string, max int) []string {
	baseURL, _ := url.Parse(base)
	if src, err := url.Parse(p.SourceURL); err == nil && src.Host != "" {
		baseURL = src
	}

	seen := map[string]bool{}
	out := []string{}
	add := func(raw string) {
		if len(out) >= max {
			return
		}
		u, ok := resolveImage(raw, baseURL)
		if !ok || seen[u] {
			return
		}
		seen[u] = true
		out = append(out, u)
	}

	for _, img := range p.Images {
		add(img)
	}
	add(p.Meta("og:image", "og:image:url", "twitter:image"))
	if p.doc != nil {
		p.doc.Find("img").Each(func(_ int, s *goquery.Selection) {
			for _, attr := range []string{"src", "data-src", "data-lazy-src"} {
				if v, ok := s.Attr(attr); ok && v != "" {
					add(v)
					return
				}
			}
		})
	}
	for _, m := range markdownImageRegex.FindAllStringSubmatch(p.Markdown, -1) {
		add(m[1])
	}
	return out
}

var imageNoise = []string{"logo", "icon", "avatar", "banner", "sprite", "placeholder"}

func resolveImage(raw string, base *url.URL) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.HasPrefix(raw, "data:") {
		return "", false
	}
	lower := strings.ToLower(raw)
	for _, n := range imageNoise {
		if strings.Contains(lower, n) {
			return "", false
		}
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	if !u.IsAbs() {
		if base == nil {
			return "", false
		}
		u = base.ResolveReference(u)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", false
	}
	return u.String(), true
}

// Features collects bullet lines and the contents of a "Features:" block.
func Features(p *Page) []string {
	seen := map[string]bool{}
	out := []string{}
	add := func(f string) {
		f = strings.TrimSpace(strings.Trim(markdownMarks.Replace(f), " .;"))
		n := len([]rune(f))
		if n < minFeatureLen || n > maxFeatureLen || len(out) >= maxFeatures {
			return
		}
		lower := strings.ToLower(f)
		if strings.Contains(lower, "price") || strings.Contains(f, "](") || strings.Contains(lower, "http") {
			return
		}
		if seen[lower] {
			return
		}
		seen[lower] = true
		out = append(out, f)
	}

	inBlock := false
	for _, line := range p.Lines() {
		if line == "" {
			inBlock = false
			continue
		}
		plain := strings.TrimSpace(strings.TrimLeft(markdownMarks.Replace(line), "# "))
		if m := featureHeadRegex.FindStringSubmatch(plain); m != nil {
			inBlock = true
			for _, f := range strings.Split(m[1], ",") {
				add(f)
			}
			continue
		}
		if loc := bulletRegex.FindStringIndex(line); loc != nil {
			add(line[loc[1]:])
			continue
		}
		if inBlock {
			for _, f := range strings.Split(line, ",") {
				add(f)
			}
		}
	}
	return out
}

// Specifications reads "Label: value" lines. The first value for a label wins.
func Specifications(p *Page) map[string]string {
	specs := map[string]string{}
	for _, line := range p.Lines() {
		if len(specs) >= maxSpecs {
			break
		}
		plain := strings.TrimSpace(markdownMarks.Replace(bulletRegex.ReplaceAllString(line, "")))
		m := specLineRegex.FindStringSubmatch(plain)
		if m == nil {
			continue
		}
		key, val := strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
		lk := strings.ToLower(key)
		if val == "" || strings.HasSuffix(lk, "http") || strings.HasSuffix(lk, "https") ||
			strings.HasPrefix(val, "//") || strings.Contains(val, "](") {
			continue
		}
		if _, dup := specs[key]; !dup {
			specs[key] = val
		}
	}
	return specs
}
