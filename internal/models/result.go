package models

import "encoding/json"

// Outcome tags where the data in a ScrapeResult came from.
type Outcome int

const (
	// OutcomeLive means the record was extracted from the requested listing.
	OutcomeLive Outcome = iota
	// OutcomeFallback means live scraping failed and the record is sample data.
	OutcomeFallback
)

func (o Outcome) String() string {
	switch o {
	case OutcomeLive:
		return "live"
	case OutcomeFallback:
		return "fallback"
	default:
		return "unknown"
	}
}

// ScrapeResult is either live data or flagged fallback data. Hard failures are
// returned as errors alongside a zero ScrapeResult.
type ScrapeResult struct {
	Outcome Outcome
	Vehicle ExtractedVehicle
	Reason  string
}

// Live wraps a freshly extracted record.
func Live(v ExtractedVehicle) ScrapeResult {
	v.Normalize()
	return ScrapeResult{Outcome: OutcomeLive, Vehicle: v}
}

// Fallback wraps a placeholder record together with the reason live data is missing.
func Fallback(v ExtractedVehicle, reason string) ScrapeResult {
	v.Normalize()
	return ScrapeResult{Outcome: OutcomeFallback, Vehicle: v, Reason: reason}
}

// IsFallback reports whether the record must not be treated as authoritative.
func (r ScrapeResult) IsFallback() bool {
	return r.Outcome == OutcomeFallback
}

// MarshalJSON flattens the vehicle into the body. Fallback results carry
// isFallbackData and fallbackReason in addition to the vehicle fields.
func (r ScrapeResult) MarshalJSON() ([]byte, error) {
	type body struct {
		ExtractedVehicle
		IsFallbackData bool   `json:"isFallbackData,omitempty"`
		FallbackReason string `json:"fallbackReason,omitempty"`
	}
	b := body{ExtractedVehicle: r.Vehicle}
	if r.IsFallback() {
		b.IsFallbackData = true
		b.FallbackReason = r.Reason
	}
	return json.Marshal(b)
}
