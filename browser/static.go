package browser

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/use-agent/datewatch/models"
)

// StaticPage is a Page backed by saved HTML snapshots instead of a live
// browser. It serves offline checks of a captured page and tests.
type StaticPage struct {
	// HTML is the top-level document.
	HTML string

	// FrameHTML holds one snapshot per nested frame. An empty string marks a
	// frame that cannot be accessed.
	FrameHTML []string

	// AfterClick, when set, replaces HTML once a located element is clicked.
	AfterClick string

	mu      sync.Mutex
	clicks  []string
	closed  int
	clicked bool
}

// Document returns the current top-level snapshot.
func (p *StaticPage) Document(ctx context.Context) (*goquery.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	src := p.HTML
	if p.clicked && p.AfterClick != "" {
		src = p.AfterClick
	}
	p.mu.Unlock()
	return ParseDocument(src)
}

// Frames lists the configured frame snapshots.
func (p *StaticPage) Frames(ctx context.Context) ([]Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	frames := make([]Frame, len(p.FrameHTML))
	for i, src := range p.FrameHTML {
		frames[i] = staticFrame{index: i, html: src}
	}
	return frames, nil
}

// FindByText finds the first element matching selector whose trimmed text
// contains text. It does not wait: a snapshot never changes on its own.
func (p *StaticPage) FindByText(ctx context.Context, selector, text string) (Element, error) {
	doc, err := p.Document(ctx)
	if err != nil {
		return nil, err
	}
	var found *goquery.Selection
	doc.Find(selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if strings.Contains(strings.TrimSpace(s.Text()), text) {
			found = s
			return false
		}
		return true
	})
	if found == nil {
		return nil, fmt.Errorf("no %s element with text %q", selector, text)
	}
	return &staticElement{page: p, label: strings.TrimSpace(found.Text())}, nil
}

// Close records the release.
func (p *StaticPage) Close() error {
	p.mu.Lock()
	p.closed++
	p.mu.Unlock()
	return nil
}

// Clicks returns the text of every clicked element, in order.
func (p *StaticPage) Clicks() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.clicks...)
}

// CloseCount reports how many times Close was called.
func (p *StaticPage) CloseCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

type staticElement struct {
	page  *StaticPage
	label string
}

func (e *staticElement) Click(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.page.mu.Lock()
	e.page.clicks = append(e.page.clicks, e.label)
	e.page.clicked = true
	e.page.mu.Unlock()
	return nil
}

type staticFrame struct {
	index int
	html  string
}

func (f staticFrame) Index() int { return f.index }

func (f staticFrame) Document(ctx context.Context) (*goquery.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.html == "" {
		return nil, models.NewMonitorError(models.ErrCodeFrameAccess, "",
			fmt.Sprintf("frame %d is not accessible", f.index), nil)
	}
	return ParseDocument(f.html)
}

// StaticRenderer serves StaticPages by URL.
type StaticRenderer struct {
	Pages map[string]*StaticPage
}

// Open returns the page registered for url.
func (r *StaticRenderer) Open(ctx context.Context, url string) (Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, ok := r.Pages[url]
	if !ok {
		return nil, models.NewMonitorError(models.ErrCodeRenderFailed, "",
			fmt.Sprintf("no snapshot for %s", url), nil)
	}
	return p, nil
}
