// Package extract finds availability markers for target dates on a rendered
// booking page by trying an ordered list of strategies.
package extract

import (
	"context"
	"log/slog"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/use-agent/datewatch/browser"
	"github.com/use-agent/datewatch/models"
)

// maxSampledTestIDs bounds Diagnostics.TestIDs.
const maxSampledTestIDs = 10

// Result is the outcome of one cascade run.
type Result struct {
	// Matches found by the winning strategy, in document order.
	Matches []models.AvailabilityMatch

	// Strategy is the name of the strategy that produced Matches, or "".
	Strategy string

	// Diagnostics is set only when no strategy matched.
	Diagnostics *Diagnostics
}

// Diagnostics describes the page when nothing matched. It is for operators
// only and never changes Matches.
type Diagnostics struct {
	HasCalendar     bool     `json:"has_calendar"`
	SellingOutCount int      `json:"selling_out_count"`
	AvailableCount  int      `json:"available_count"`
	TestIDs         []string `json:"test_ids"`
}

// Cascade tries strategies in order and stops at the first non-empty result.
type Cascade struct {
	strategies []Strategy
}

// NewCascade builds the standard cascade: direct document, frames, then
// whole-document containment.
func NewCascade(frameSettle time.Duration) *Cascade {
	return NewCascadeWith(DirectDocument{}, FrameScan{Settle: frameSettle}, WholeDocument{})
}

// NewCascadeWith builds a cascade from explicit strategies.
func NewCascadeWith(strategies ...Strategy) *Cascade {
	return &Cascade{strategies: strategies}
}

// Strategies returns the strategy names in priority order.
func (c *Cascade) Strategies() []string {
	names := make([]string, len(c.strategies))
	for i, s := range c.strategies {
		names[i] = s.Name()
	}
	return names
}

// Run extracts matches for site's target dates from page. Strategy failures
// are logged and treated as empty results, so Run always completes.
func (c *Cascade) Run(ctx context.Context, page browser.Page, site models.SiteConfig) Result {
	log := slog.With("site", site.Name, "stage", "extract")

	for _, s := range c.strategies {
		if ctx.Err() != nil {
			break
		}
		matches, err := attempt(ctx, s, page, site.TargetDates)
		if err != nil {
			log.Warn("strategy failed", "strategy", s.Name(), "code", models.CodeOf(err), "error", err)
			continue
		}
		if len(matches) == 0 {
			log.Debug("strategy found nothing", "strategy", s.Name())
			continue
		}
		for i := range matches {
			matches[i].Strategy = s.Name()
			matches[i].Policy = s.Policy()
		}
		log.Info("availability found", "strategy", s.Name(), "policy", s.Policy(), "matches", len(matches))
		return Result{Matches: matches, Strategy: s.Name()}
	}

	res := Result{}
	if doc, err := page.Document(ctx); err == nil {
		d := Diagnose(doc)
		res.Diagnostics = &d
		log.Info("no matching dates found",
			"target_dates", site.TargetDates,
			"diagnostics", d,
		)
	} else {
		log.Info("no matching dates found", "target_dates", site.TargetDates)
	}
	return res
}

// Diagnose summarises the status markers present in doc.
func Diagnose(doc *goquery.Document) Diagnostics {
	d := Diagnostics{
		HasCalendar:     doc.FindMatcher(calendarContainer).Length() > 0,
		SellingOutCount: doc.FindMatcher(sellingOutMarker).Length(),
		AvailableCount:  doc.FindMatcher(availableMarker).Length(),
		TestIDs:         []string{},
	}
	seen := make(map[string]struct{})
	doc.FindMatcher(anyTestID).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		v, _ := s.Attr(statusAttr)
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			d.TestIDs = append(d.TestIDs, v)
		}
		return len(d.TestIDs) < maxSampledTestIDs
	})
	return d
}
