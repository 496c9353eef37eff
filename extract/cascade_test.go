package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/datewatch/browser"
	"github.com/use-agent/datewatch/models"
	"golang.org/x/net/html"
)

const calendarPage = `<html><body>
<div id="calendar-widget">
  <div data-testid="Unavailable"><div>18</div></div>
  <div data-testid="Available"><div>20</div></div>
  <div data-testid="SellingOut"><div>19</div></div>
</div>
</body></html>`

// counting wraps a strategy and records how often it ran.
type counting struct {
	Strategy
	calls int
}

func (c *counting) Attempt(ctx context.Context, page browser.Page, dates []string) ([]models.AvailabilityMatch, error) {
	c.calls++
	return c.Strategy.Attempt(ctx, page, dates)
}

type failing struct{ panics bool }

func (failing) Name() string               { return "failing" }
func (failing) Policy() models.MatchPolicy { return models.MatchExactChild }
func (f failing) Attempt(context.Context, browser.Page, []string) ([]models.AvailabilityMatch, error) {
	if f.panics {
		panic("boom")
	}
	return nil, errors.New("evaluation failed")
}

func site(dates ...string) models.SiteConfig {
	return models.SiteConfig{Name: "test", URL: "https://test.example/", TargetDates: dates}
}

func standard() (*Cascade, *counting, *counting, *counting) {
	direct := &counting{Strategy: DirectDocument{}}
	frames := &counting{Strategy: FrameScan{}}
	whole := &counting{Strategy: WholeDocument{}}
	return NewCascadeWith(direct, frames, whole), direct, frames, whole
}

func dates(matches []models.AvailabilityMatch) []string {
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = fmt.Sprintf("%s/%s", m.Date, m.Status)
	}
	return out
}

func TestCascade_DirectDocument(t *testing.T) {
	c, direct, frames, whole := standard()
	page := &browser.StaticPage{HTML: calendarPage, FrameHTML: []string{calendarPage}}

	res := c.Run(context.Background(), page, site("19", "20", "21"))

	assert.Equal(t, []string{"20/Available", "19/SellingOut"}, dates(res.Matches), "document order")
	assert.Equal(t, "direct-document", res.Strategy)
	assert.Nil(t, res.Diagnostics)
	assert.Equal(t, 1, direct.calls)
	assert.Zero(t, frames.calls)
	assert.Zero(t, whole.calls)

	for _, m := range res.Matches {
		assert.Equal(t, models.MatchExactChild, m.Policy)
		assert.Equal(t, "direct-document", m.Strategy)
		assert.Equal(t, m.Date, m.Context)
	}
}

func TestCascade_ExactMatchRejectsConcatenatedText(t *testing.T) {
	page := &browser.StaticPage{HTML: `<div id="calendar-widget">
		<div data-testid="Available"><div>2021</div></div>
	</div>`}
	c, _, _, whole := standard()

	res := c.Run(context.Background(), page, site("20"))

	require.Len(t, res.Matches, 1)
	assert.Equal(t, "whole-document", res.Strategy, "exact strategies must not accept 2021 for 20")
	assert.Equal(t, 1, whole.calls)
}

func TestCascade_FrameScan(t *testing.T) {
	top := `<div data-testid="Available"><div>20</div></div><iframe></iframe><iframe></iframe><iframe></iframe>`
	framed := `<div id="calendar-widget"><div data-testid="SellingOut"><div> 21 </div></div></div>`
	page := &browser.StaticPage{
		HTML: top,
		FrameHTML: []string{
			"", // cross-origin
			`<div id="calendar-widget"></div>`,
			framed,
		},
	}
	c, _, frames, whole := standard()

	res := c.Run(context.Background(), page, site("20", "21"))

	assert.Equal(t, []string{"21/SellingOut"}, dates(res.Matches))
	assert.Equal(t, "frame-scan", res.Strategy)
	assert.Equal(t, 1, frames.calls)
	assert.Zero(t, whole.calls, "a frame match stops the cascade")
}

func TestCascade_FrameScanStopsAtFirstMatchingFrame(t *testing.T) {
	first := `<div id="calendar-widget"><div data-testid="Available"><div>19</div></div></div>`
	second := `<div id="calendar-widget"><div data-testid="Available"><div>20</div></div></div>`
	page := &browser.StaticPage{HTML: `<p>shell</p>`, FrameHTML: []string{first, second}}

	matches, err := FrameScan{}.Attempt(context.Background(), page, []string{"19", "20"})
	require.NoError(t, err)
	assert.Equal(t, []string{"19/Available"}, dates(matches))
}

// crashingFrame fails the way rod does for an out-of-process iframe.
type crashingFrame struct{}

func (crashingFrame) Index() int { return 0 }

func (crashingFrame) Document(context.Context) (*goquery.Document, error) {
	var node *html.Node
	_ = node.FirstChild
	return nil, nil
}

// isolatedPage puts a crashing frame in front of its snapshot frames.
type isolatedPage struct{ *browser.StaticPage }

func (p isolatedPage) Frames(ctx context.Context) ([]browser.Frame, error) {
	frames, err := p.StaticPage.Frames(ctx)
	if err != nil {
		return nil, err
	}
	return append([]browser.Frame{crashingFrame{}}, frames...), nil
}

func TestCascade_FrameScanSkipsCrashingFrame(t *testing.T) {
	framed := `<div id="calendar-widget"><div data-testid="Available"><div>20</div></div></div>`
	page := isolatedPage{&browser.StaticPage{HTML: `<p>shell</p>`, FrameHTML: []string{framed}}}
	c, _, frames, whole := standard()

	res := c.Run(context.Background(), page, site("20"))

	assert.Equal(t, []string{"20/Available"}, dates(res.Matches))
	assert.Equal(t, "frame-scan", res.Strategy)
	assert.Equal(t, 1, frames.calls)
	assert.Zero(t, whole.calls)
}

func TestFrameDocument_PanicIsFrameAccess(t *testing.T) {
	doc, err := frameDocument(context.Background(), crashingFrame{})

	assert.Nil(t, doc)
	require.Error(t, err)
	assert.Equal(t, models.ErrCodeFrameAccess, models.CodeOf(err))
}

func TestCascade_FrameScanSkippedWithoutFrames(t *testing.T) {
	matches, err := FrameScan{}.Attempt(context.Background(), &browser.StaticPage{HTML: calendarPage}, []string{"20"})
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestCascade_WholeDocumentContainment(t *testing.T) {
	page := &browser.StaticPage{HTML: `<section>
		<div data-testid="Available"><span>Sat</span><span>2021</span></div>
		<div data-testid="SoldOut"><span>22</span></div>
	</section>`}
	c, _, _, _ := standard()

	res := c.Run(context.Background(), page, site("19", "20", "21", "22"))

	assert.Equal(t, "whole-document", res.Strategy)
	assert.Equal(t, []string{"20/Available", "21/Available"}, dates(res.Matches),
		"2021 over-matches both 20 and 21; SoldOut is not a status marker")
	for _, m := range res.Matches {
		assert.Equal(t, models.MatchContains, m.Policy)
		assert.Equal(t, "Sat2021", m.Context)
	}
}

func TestCascade_ContextIsBounded(t *testing.T) {
	long := strings.Repeat("x", 500)
	page := &browser.StaticPage{HTML: `<div data-testid="Available">20 ` + long + `</div>`}

	res := NewCascade(0).Run(context.Background(), page, site("20"))

	require.Len(t, res.Matches, 1)
	assert.Len(t, res.Matches[0].Context, models.MaxContextLen)
}

func TestCascade_StrategyFailuresFallThrough(t *testing.T) {
	page := &browser.StaticPage{HTML: calendarPage}
	c := NewCascadeWith(failing{}, failing{panics: true}, DirectDocument{})

	res := c.Run(context.Background(), page, site("20"))

	assert.Equal(t, []string{"20/Available"}, dates(res.Matches))
	assert.Equal(t, "direct-document", res.Strategy)
}

func TestAttempt_WrapsErrors(t *testing.T) {
	_, err := attempt(context.Background(), failing{}, &browser.StaticPage{}, nil)
	require.Error(t, err)
	assert.Equal(t, models.ErrCodeExtractionFailed, models.CodeOf(err))

	_, err = attempt(context.Background(), failing{panics: true}, &browser.StaticPage{}, nil)
	require.Error(t, err)
	assert.Equal(t, models.ErrCodeExtractionFailed, models.CodeOf(err))
}

func TestCascade_NoMatchReportsDiagnostics(t *testing.T) {
	page := &browser.StaticPage{HTML: `<div id="calendar-widget">
		<div data-testid="Header"></div>
		<div data-testid="SellingOut"><div>3</div></div>
		<div data-testid="Available"><div>4</div></div>
		<div data-testid="Available"><div>5</div></div>
		<div data-testid="Header"></div>
	</div>`}

	res := NewCascade(0).Run(context.Background(), page, site("20"))

	assert.Empty(t, res.Matches)
	assert.Empty(t, res.Strategy)
	require.NotNil(t, res.Diagnostics)
	assert.True(t, res.Diagnostics.HasCalendar)
	assert.Equal(t, 1, res.Diagnostics.SellingOutCount)
	assert.Equal(t, 2, res.Diagnostics.AvailableCount)
	assert.Equal(t, []string{"Header", "SellingOut", "Available"}, res.Diagnostics.TestIDs)
}

func TestDiagnose_SamplesAtMostTen(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 15; i++ {
		fmt.Fprintf(&b, `<div data-testid="id-%d"></div>`, i)
	}
	doc, err := browser.ParseDocument(b.String())
	require.NoError(t, err)

	d := Diagnose(doc)
	assert.Len(t, d.TestIDs, maxSampledTestIDs)
	assert.False(t, d.HasCalendar)
}

func TestCascade_Deterministic(t *testing.T) {
	page := &browser.StaticPage{HTML: calendarPage}
	c := NewCascade(0)

	first := c.Run(context.Background(), page, site("19", "20", "21"))
	second := c.Run(context.Background(), page, site("19", "20", "21"))

	assert.Equal(t, first, second)
}

func TestCascade_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := NewCascade(0).Run(ctx, &browser.StaticPage{HTML: calendarPage}, site("20"))
	assert.Empty(t, res.Matches)
}

func TestCascade_Strategies(t *testing.T) {
	assert.Equal(t, []string{"direct-document", "frame-scan", "whole-document"}, NewCascade(0).Strategies())
}
