package models

import "unicode/utf8"

// Status is the booking state carried by a calendar day's status marker.
// Its value is the raw marker attribute as rendered by the booking widget.
type Status string

const (
	StatusSellingOut Status = "SellingOut"
	StatusAvailable  Status = "Available"
)

// MatchPolicy names how a strategy compares element text to a target label.
type MatchPolicy string

const (
	// MatchExactChild requires a child element whose trimmed text equals the label.
	MatchExactChild MatchPolicy = "exact-child"

	// MatchContains accepts any marker whose full text contains the label.
	// Looser: "2021" matches "20".
	MatchContains MatchPolicy = "contains"
)

// MaxContextLen bounds AvailabilityMatch.Context, in runes.
const MaxContextLen = 200

// AvailabilityMatch is one target date found on a rendered page.
type AvailabilityMatch struct {
	Date     string      `json:"date"`
	Status   Status      `json:"status"`
	Context  string      `json:"context"`
	Strategy string      `json:"strategy"`
	Policy   MatchPolicy `json:"policy"`
}

// SiteRunResult holds the matches of one site for one poll cycle, in
// document order. It is discarded after dispatch.
type SiteRunResult struct {
	Site    SiteConfig
	Matches []AvailabilityMatch
}

// HasDate reports whether any match carries one of the given date labels.
func (r SiteRunResult) HasDate(dates ...string) bool {
	for _, m := range r.Matches {
		for _, d := range dates {
			if m.Date == d {
				return true
			}
		}
	}
	return false
}

// Truncate shortens s to at most n runes.
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
