package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/use-agent/datewatch/browser"
	"github.com/use-agent/datewatch/extract"
	"github.com/use-agent/datewatch/models"
	"github.com/use-agent/datewatch/notify"
)

// Stage is a step of one site's poll.
type Stage string

const (
	StageIdle        Stage = "idle"
	StageRendering   Stage = "rendering"
	StageInteracting Stage = "interacting"
	StageExtracting  Stage = "extracting"
	StageNotifying   Stage = "notifying"
	StageDone        Stage = "done"
	StageFailed      Stage = "failed"
)

// SiteReport is the outcome of polling one site once. Stage is StageDone or
// StageFailed; FailedAt names the stage that failed.
type SiteReport struct {
	Site     string                     `json:"site"`
	Stage    Stage                      `json:"stage"`
	FailedAt Stage                      `json:"failed_at,omitempty"`
	Matches  []models.AvailabilityMatch `json:"matches"`
	Strategy string                     `json:"strategy,omitempty"`
	Outcome  notify.Outcome             `json:"outcome,omitempty"`
	Code     string                     `json:"error_code,omitempty"`
	Error    string                     `json:"error,omitempty"`
	Started  time.Time                  `json:"started"`
	Duration time.Duration              `json:"duration"`

	Diagnostics *extract.Diagnostics `json:"diagnostics,omitempty"`
}

// Checker runs rendering, interaction, extraction and notification for a
// single site.
type Checker struct {
	renderer       browser.Renderer
	interactor     Interactor
	cascade        *extract.Cascade
	dispatcher     *notify.Dispatcher // nil disables notification
	extractTimeout time.Duration
}

// defaultExtractTimeout bounds extraction when no timeout is configured.
const defaultExtractTimeout = time.Minute

// CheckerOption configures a Checker.
type CheckerOption func(*Checker)

// WithExtractTimeout bounds the extraction stage. Non-positive values keep
// the default.
func WithExtractTimeout(d time.Duration) CheckerOption {
	return func(c *Checker) {
		if d > 0 {
			c.extractTimeout = d
		}
	}
}

// NewChecker creates a Checker. dispatcher may be nil.
func NewChecker(r browser.Renderer, i Interactor, c *extract.Cascade, d *notify.Dispatcher, opts ...CheckerOption) *Checker {
	ch := &Checker{renderer: r, interactor: i, cascade: c, dispatcher: d, extractTimeout: defaultExtractTimeout}
	for _, opt := range opts {
		opt(ch)
	}
	return ch
}

// Check polls site. It never returns an error: every failure is recorded in
// the report and the rendering context is released on every path.
func (c *Checker) Check(ctx context.Context, site models.SiteConfig) (report SiteReport) {
	report = SiteReport{Site: site.Name, Stage: StageIdle, Started: time.Now()}
	log := slog.With("site", site.Name)

	stage := StageRendering
	fail := func(err error) {
		report.FailedAt = stage
		report.Stage = StageFailed
		report.Code = models.CodeOf(err)
		report.Error = err.Error()
		log.Error("site check failed", "stage", stage, "code", report.Code, "error", err)
	}
	defer func() {
		if r := recover(); r != nil {
			fail(fmt.Errorf("unexpected panic: %v", r))
		}
		report.Duration = time.Since(report.Started)
	}()

	// ── 1. Render ───────────────────────────────────────────────────
	log.Info("loading site", "url", site.URL)
	page, err := c.renderer.Open(ctx, site.URL)
	if err != nil {
		fail(withSite(err, site.Name))
		return report
	}
	defer func() {
		if err := page.Close(); err != nil {
			log.Warn("failed to release page", "error", err)
		}
	}()

	// ── 2. Interact ─────────────────────────────────────────────────
	stage = StageInteracting
	if err := c.interactor.Interact(ctx, page, site); err != nil {
		fail(err)
		return report
	}

	// ── 3. Extract ──────────────────────────────────────────────────
	stage = StageExtracting
	extractCtx, cancel := context.WithTimeout(ctx, c.extractTimeout)
	res := c.cascade.Run(extractCtx, page, site)
	timedOut := len(res.Matches) == 0 && ctx.Err() == nil && errors.Is(extractCtx.Err(), context.DeadlineExceeded)
	cancel()
	if timedOut {
		fail(models.NewMonitorError(models.ErrCodeExtractionFailed, site.Name,
			fmt.Sprintf("extraction did not finish within %s", c.extractTimeout), extractCtx.Err()))
		return report
	}
	report.Matches = res.Matches
	report.Strategy = res.Strategy
	report.Diagnostics = res.Diagnostics
	for _, m := range res.Matches {
		log.Info("matching date", "date", m.Date, "status", m.Status, "strategy", m.Strategy, "context", models.Truncate(m.Context, 100))
	}

	// ── 4. Notify ───────────────────────────────────────────────────
	stage = StageNotifying
	if c.dispatcher != nil {
		outcome, err := c.dispatcher.Dispatch(ctx, models.SiteRunResult{Site: site, Matches: res.Matches})
		report.Outcome = outcome
		if err != nil {
			// Delivery failure is reported but the poll itself completed.
			report.Code = models.CodeOf(err)
			report.Error = err.Error()
		}
	}

	report.Stage = StageDone
	return report
}

// withSite attaches the site name to a MonitorError that lacks one.
func withSite(err error, site string) error {
	var me *models.MonitorError
	if errors.As(err, &me) && me.Site == "" {
		cp := *me
		cp.Site = site
		return &cp
	}
	return err
}
