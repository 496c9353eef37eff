package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/use-agent/datewatch/models"
)

// Selectors of the booking widget's calendar markup.
var (
	calendarContainer = cascadia.MustCompile("#calendar-widget")
	statusMarker      = cascadia.MustCompile(`[data-testid="SellingOut"], [data-testid="Available"]`)
	sellingOutMarker  = cascadia.MustCompile(`[data-testid="SellingOut"]`)
	availableMarker   = cascadia.MustCompile(`[data-testid="Available"]`)
	anyTestID         = cascadia.MustCompile("[data-testid]")
	dayCell           = cascadia.MustCompile("div")
)

const statusAttr = "data-testid"

// scanCalendar looks for the calendar container in doc and returns every
// child cell of a status marker whose trimmed text exactly equals a target
// date. found reports whether the container exists at all.
func scanCalendar(doc *goquery.Document, targetDates []string) (matches []models.AvailabilityMatch, found bool) {
	container := doc.FindMatcher(calendarContainer).First()
	if container.Length() == 0 {
		return nil, false
	}

	targets := toSet(targetDates)
	container.FindMatcher(statusMarker).Each(func(_ int, marker *goquery.Selection) {
		status, _ := marker.Attr(statusAttr)
		snapshot := contextText(marker.Text())
		marker.FindMatcher(dayCell).Each(func(_ int, cell *goquery.Selection) {
			text := strings.TrimSpace(cell.Text())
			if _, ok := targets[text]; ok {
				matches = append(matches, models.AvailabilityMatch{
					Date:    text,
					Status:  models.Status(status),
					Context: snapshot,
					Policy:  models.MatchExactChild,
				})
			}
		})
	})
	return matches, true
}

// scanMarkers ignores the container boundary and accepts any status marker
// whose full text contains a target date, one match per contained date.
func scanMarkers(doc *goquery.Document, targetDates []string) []models.AvailabilityMatch {
	var matches []models.AvailabilityMatch
	doc.FindMatcher(statusMarker).Each(func(_ int, marker *goquery.Selection) {
		text := marker.Text()
		if text == "" {
			return
		}
		status, _ := marker.Attr(statusAttr)
		for _, date := range targetDates {
			if strings.Contains(text, date) {
				matches = append(matches, models.AvailabilityMatch{
					Date:    date,
					Status:  models.Status(status),
					Context: contextText(text),
					Policy:  models.MatchContains,
				})
			}
		}
	})
	return matches
}

// contextText normalises whitespace and bounds the diagnostic snapshot.
func contextText(s string) string {
	return models.Truncate(strings.Join(strings.Fields(s), " "), models.MaxContextLen)
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
