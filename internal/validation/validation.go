package validation

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

const maxURLLength = 2048

var (
	postcodeRegex   = regexp.MustCompile(`^[A-Za-z]{1,2}[0-9][A-Za-z0-9]? ?[0-9][A-Za-z]{2}$`)
	searchTermRegex = regexp.MustCompile(`^[\p{L}0-9 .+-]{1,40}$`)
)

// ValidateListingURL trims raw and checks that it is an absolute http(s) URL.
// A bare host such as "www.bazaraki.com/adv/1" gets an https scheme.
func ValidateListingURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("URL is required")
	}
	if len(raw) > maxURLLength {
		return "", fmt.Errorf("URL must be at most %d characters", maxURLLength)
	}
	if strings.ContainsAny(raw, " \t\r\n") {
		return "", fmt.Errorf("URL must not contain whitespace")
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("URL is malformed")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("URL must use http or https")
	}
	if u.Host == "" {
		return "", fmt.Errorf("URL must include a host")
	}
	return u.String(), nil
}

// ValidatePostcode accepts a UK postcode; empty means the default.
func ValidatePostcode(postcode string) error {
	if postcode == "" {
		return nil
	}
	if !postcodeRegex.MatchString(strings.TrimSpace(postcode)) {
		return fmt.Errorf("postcode must be a valid UK postcode")
	}
	return nil
}

// ValidateSearchTerm checks a make or model filter; empty means no filter.
func ValidateSearchTerm(field, value string) error {
	if value == "" {
		return nil
	}
	if !searchTermRegex.MatchString(value) {
		return fmt.Errorf("%s can only contain letters, numbers, spaces, dots, plus signs and hyphens (max 40)", field)
	}
	return nil
}

// ValidateLimit checks a result count against 1..limit; zero means the default.
func ValidateLimit(field string, n, limit int) error {
	if n < 0 || n > limit {
		return fmt.Errorf("%s must be between 1 and %d", field, limit)
	}
	return nil
}
