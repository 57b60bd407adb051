package validation

import (
	"strings"
	"testing"
)

func TestValidateListingURL(t *testing.T) {
	cases := []struct {
		name    string
		raw     string
		want    string
		wantErr string
	}{
		{"empty", "   ", "", "URL is required"},
		{"tooLong", "https://example.com/" + strings.Repeat("a", 2050), "", "URL must be at most 2048 characters"},
		{"whitespace", "https://www.bazaraki.com/adv/1 2", "", "URL must not contain whitespace"},
		{"badScheme", "ftp://www.bazaraki.com/adv/1", "", "URL must use http or https"},
		{"noHost", "https:///adv/1", "", "URL must include a host"},
		{"trimmed", "  https://www.bazaraki.com/adv/1/  ", "https://www.bazaraki.com/adv/1/", ""},
		{"bareHost", "www.autotrader.co.uk/car-details/1", "https://www.autotrader.co.uk/car-details/1", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ValidateListingURL(tc.raw)
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				if got != tc.want {
					t.Fatalf("expected %q, got %q", tc.want, got)
				}
				return
			}
			if err == nil || err.Error() != tc.wantErr {
				t.Fatalf("expected error %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestValidatePostcode(t *testing.T) {
	for _, ok := range []string{"", "SW1A 1AA", "M1 1AE", "b338th"} {
		if err := ValidatePostcode(ok); err != nil {
			t.Fatalf("expected %q to be valid, got %v", ok, err)
		}
	}
	for _, bad := range []string{"12345", "SW1A", "<script>"} {
		if err := ValidatePostcode(bad); err == nil {
			t.Fatalf("expected %q to be rejected", bad)
		}
	}
}

func TestValidateSearchTerm(t *testing.T) {
	if err := ValidateSearchTerm("make", "Mercedes-Benz"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := ValidateSearchTerm("model", "Citroën C4"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	err := ValidateSearchTerm("make", "volvo'; drop table")
	if err == nil || !strings.HasPrefix(err.Error(), "make can only contain") {
		t.Fatalf("expected make error, got %v", err)
	}
}

func TestValidateLimit(t *testing.T) {
	if err := ValidateLimit("limit", 0, 10); err != nil {
		t.Fatalf("zero should mean default, got %v", err)
	}
	if err := ValidateLimit("limit", 11, 10); err == nil || err.Error() != "limit must be between 1 and 10" {
		t.Fatalf("expected range error, got %v", err)
	}
	if err := ValidateLimit("limit", -1, 10); err == nil {
		t.Fatalf("expected negative limit to be rejected")
	}
}
