// Package browser is the page-renderer boundary. The rest of the system sees
// only the Renderer, Page, Frame and Element interfaces and reads the DOM
// through goquery snapshots, so extraction never runs inside the browser.
package browser

import (
	"context"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Renderer loads a URL into a fresh, isolated browsing context.
type Renderer interface {
	// Open loads url, waits for the page to settle and returns an
	// exclusively-owned handle. The caller must Close it exactly once.
	Open(ctx context.Context, url string) (Page, error)
}

// Page is a loaded browsing context for one site and one poll.
type Page interface {
	// Document returns a snapshot of the top-level document.
	Document(ctx context.Context) (*goquery.Document, error)

	// Frames lists nested frames in document order.
	Frames(ctx context.Context) ([]Frame, error)

	// FindByText waits for an element matching selector whose text contains
	// text (case-sensitive). Returns an error when ctx expires first.
	FindByText(ctx context.Context, selector, text string) (Element, error)

	// Close releases the browsing context. Safe to call more than once.
	Close() error
}

// Frame is a nested frame of a Page.
type Frame interface {
	// Index is the zero-based position of the frame in document order.
	Index() int

	// Document returns a snapshot of the frame's document. It fails with a
	// FRAME_ACCESS error when the frame cannot be inspected.
	Document(ctx context.Context) (*goquery.Document, error)
}

// Element is an interactive element located on a live page.
type Element interface {
	Click(ctx context.Context) error
}

// ParseDocument parses an HTML snapshot into a goquery document.
func ParseDocument(rawHTML string) (*goquery.Document, error) {
	root, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return nil, err
	}
	return goquery.NewDocumentFromNode(root), nil
}

// Settle pauses for d, returning early with ctx's error if it is cancelled.
func Settle(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
