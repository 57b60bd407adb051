package platform

import "strings"

// Platform identifies the marketplace a listing URL belongs to.
type Platform string

const (
	Bazaraki    Platform = "bazaraki"
	Facebook    Platform = "facebook"
	AutoTrader  Platform = "autotrader"
	Unsupported Platform = "unsupported"
)

type rule struct {
	platform  Platform
	fragments []string
	display   string
	baseURL   string
}

// Order matters: the first matching rule wins.
var rules = []rule{
	{Bazaraki, []string{"bazaraki.com"}, "bazaraki.com", "https://www.bazaraki.com"},
	{Facebook, []string{"facebook.com/marketplace"}, "facebook.com/marketplace", "https://www.facebook.com"},
	{AutoTrader, []string{"autotrader.co.uk", "autotrader.com"}, "autotrader.co.uk", "https://www.autotrader.co.uk"},
}

// Detect classifies rawURL by case-insensitive substring match. No network
// access takes place.
func Detect(rawURL string) Platform {
	lower := strings.ToLower(rawURL)
	for _, r := range rules {
		for _, fragment := range r.fragments {
			if strings.Contains(lower, fragment) {
				return r.platform
			}
		}
	}
	return Unsupported
}

// Supported returns the handled platforms in detection order.
func Supported() []Platform {
	out := make([]Platform, 0, len(rules))
	for _, r := range rules {
		out = append(out, r.platform)
	}
	return out
}

// DisplayNames returns the domain fragment users should recognise for each platform.
func DisplayNames() []string {
	out := make([]string, 0, len(rules))
	for _, r := range rules {
		out = append(out, r.display)
	}
	return out
}

// BaseURL returns the origin used to absolutise relative links, or "" for Unsupported.
func BaseURL(p Platform) string {
	for _, r := range rules {
		if r.platform == p {
			return r.baseURL
		}
	}
	return ""
}

// UsesBrowser reports whether p is scraped with the headless browser instead
// of the crawling API.
func (p Platform) UsesBrowser() bool {
	return p == AutoTrader
}

func (p Platform) String() string {
	return string(p)
}
