package extract

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/use-agent/datewatch/browser"
	"github.com/use-agent/datewatch/models"
)

// Strategy is one way of locating availability markers on a page.
type Strategy interface {
	// Name identifies the strategy in logs and on each match.
	Name() string

	// Policy is how the strategy compares text to target date labels.
	Policy() models.MatchPolicy

	// Attempt returns the matches found, in document order.
	Attempt(ctx context.Context, page browser.Page, targetDates []string) ([]models.AvailabilityMatch, error)
}

// DirectDocument scans the calendar container of the top-level document.
type DirectDocument struct{}

func (DirectDocument) Name() string               { return "direct-document" }
func (DirectDocument) Policy() models.MatchPolicy { return models.MatchExactChild }

func (DirectDocument) Attempt(ctx context.Context, page browser.Page, targetDates []string) ([]models.AvailabilityMatch, error) {
	doc, err := page.Document(ctx)
	if err != nil {
		return nil, err
	}
	matches, found := scanCalendar(doc, targetDates)
	if found {
		slog.Debug("calendar container found in main document", "matches", len(matches))
	}
	return matches, nil
}

// FrameScan repeats the calendar scan inside each nested frame, in document
// order, stopping at the first frame that yields matches. Frames that
// cannot be inspected are skipped.
type FrameScan struct {
	// Settle is the pause before reading each frame.
	Settle time.Duration
}

func (FrameScan) Name() string               { return "frame-scan" }
func (FrameScan) Policy() models.MatchPolicy { return models.MatchExactChild }

func (s FrameScan) Attempt(ctx context.Context, page browser.Page, targetDates []string) ([]models.AvailabilityMatch, error) {
	frames, err := page.Frames(ctx)
	if err != nil {
		return nil, err
	}
	if len(frames) == 0 {
		return nil, nil
	}
	slog.Debug("checking frames", "frames", len(frames))

	for _, frame := range frames {
		if err := browser.Settle(ctx, s.Settle); err != nil {
			return nil, err
		}
		doc, err := frameDocument(ctx, frame)
		if err != nil {
			slog.Debug("could not access frame", "frame", frame.Index()+1, "error", err)
			continue
		}
		matches, found := scanCalendar(doc, targetDates)
		if !found {
			continue
		}
		slog.Debug("calendar container found in frame", "frame", frame.Index()+1, "matches", len(matches))
		if len(matches) > 0 {
			return matches, nil
		}
	}
	return nil, nil
}

// frameDocument reads one frame's document. A panic while reading it is an
// access failure of that frame only, so the scan can move on.
func frameDocument(ctx context.Context, frame browser.Frame) (doc *goquery.Document, err error) {
	defer func() {
		if r := recover(); r != nil {
			doc = nil
			err = models.NewMonitorError(models.ErrCodeFrameAccess, "",
				fmt.Sprintf("frame %d could not be inspected", frame.Index()+1), fmt.Errorf("%v", r))
		}
	}()
	return frame.Document(ctx)
}

// WholeDocument is the last resort: every status marker in the top-level
// document, matched by substring containment. Accepts over-matches such
// as "2021" for the label "20".
type WholeDocument struct{}

func (WholeDocument) Name() string               { return "whole-document" }
func (WholeDocument) Policy() models.MatchPolicy { return models.MatchContains }

func (WholeDocument) Attempt(ctx context.Context, page browser.Page, targetDates []string) ([]models.AvailabilityMatch, error) {
	doc, err := page.Document(ctx)
	if err != nil {
		return nil, err
	}
	return scanMarkers(doc, targetDates), nil
}

// attempt runs s and turns both errors and panics into EXTRACTION_FAILED.
func attempt(ctx context.Context, s Strategy, page browser.Page, targetDates []string) (matches []models.AvailabilityMatch, err error) {
	defer func() {
		if r := recover(); r != nil {
			matches = nil
			err = models.NewMonitorError(models.ErrCodeExtractionFailed, "",
				fmt.Sprintf("strategy %s panicked", s.Name()), fmt.Errorf("%v", r))
		}
	}()

	matches, err = s.Attempt(ctx, page, targetDates)
	if err != nil {
		return nil, models.NewMonitorError(models.ErrCodeExtractionFailed, "",
			fmt.Sprintf("strategy %s failed", s.Name()), err)
	}
	return matches, nil
}
