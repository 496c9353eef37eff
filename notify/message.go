package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/use-agent/datewatch/models"
)

// Notification is what every gateway receives. Text is Telegram-flavoured
// Markdown; gateways without Markdown support send it as is.
type Notification struct {
	Site      string                     `json:"site"`
	URL       string                     `json:"url"`
	Triggered []string                   `json:"triggered"`
	Matches   []models.AvailabilityMatch `json:"matches"`
	Subject   string                     `json:"subject"`
	Text      string                     `json:"text"`
	At        time.Time                  `json:"at"`
}

const timestampLayout = "2006-01-02 15:04:05 MST"

// BuildNotification formats the message for a result. triggered lists the
// trigger dates present in the result; every match is enumerated.
func BuildNotification(res models.SiteRunResult, triggered []string, at time.Time) Notification {
	dates := strings.Join(triggered, ", ")

	var b strings.Builder
	fmt.Fprintf(&b, "🎉 *Date %s Available!*\n\n", dates)
	fmt.Fprintf(&b, "📍 *Site:* %s\n", escapeMarkdown(res.Site.Name))
	fmt.Fprintf(&b, "🎯 *FOUND DATE %s AVAILABLE!*\n\n", dates)
	b.WriteString("📅 *All Available Dates:*\n")
	for _, m := range res.Matches {
		fmt.Fprintf(&b, "• Date: %s (%s)\n", escapeMarkdown(m.Date), escapeMarkdown(string(m.Status)))
	}
	fmt.Fprintf(&b, "\n🔗 [Book Now](%s)\n\n", res.Site.URL)
	fmt.Fprintf(&b, "⏰ %s", at.Format(timestampLayout))

	return Notification{
		Site:      res.Site.Name,
		URL:       res.Site.URL,
		Triggered: triggered,
		Matches:   res.Matches,
		Subject:   fmt.Sprintf("Date %s available on %s", dates, res.Site.Name),
		Text:      b.String(),
		At:        at,
	}
}

var markdownEscaper = strings.NewReplacer("_", `\_`, "*", `\*`, "`", "\\`", "[", `\[`)

// escapeMarkdown escapes the characters legacy Telegram Markdown treats as
// entity delimiters.
func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
