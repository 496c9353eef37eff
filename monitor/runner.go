// Package monitor runs poll cycles over the site registry.
package monitor

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/use-agent/datewatch/config"
	"github.com/use-agent/datewatch/models"
)

// CycleReport summarises one poll cycle over every site.
type CycleReport struct {
	ID       string        `json:"id"`
	Started  time.Time     `json:"started"`
	Duration time.Duration `json:"duration"`
	Sites    []SiteReport  `json:"sites"`
	// Interrupted is set when the cycle stopped before checking every site.
	Interrupted bool `json:"interrupted"`
}

// TotalMatches counts matches across all sites.
func (c CycleReport) TotalMatches() int {
	n := 0
	for _, s := range c.Sites {
		n += len(s.Matches)
	}
	return n
}

// Runner polls every site in registry order, either once or on an interval.
// Cycles never overlap: the next interval starts only after a cycle ends.
type Runner struct {
	sites    []models.SiteConfig
	checker  *Checker
	interval time.Duration
	once     bool
	status   *StatusStore
}

// NewRunner creates a Runner. status may be nil.
func NewRunner(reg *config.Registry, checker *Checker, cfg config.MonitorConfig, status *StatusStore) *Runner {
	return &Runner{
		sites:    reg.Sites(),
		checker:  checker,
		interval: cfg.Interval,
		once:     cfg.Once(),
		status:   status,
	}
}

// Run executes cycles until ctx is cancelled, or a single cycle in once
// mode. Cancellation is a clean exit and returns nil.
func (r *Runner) Run(ctx context.Context) error {
	for {
		r.RunCycle(ctx)
		if r.once || ctx.Err() != nil {
			return nil
		}

		slog.Info("next cycle scheduled", "in", r.interval)
		timer := time.NewTimer(r.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}

// RunCycle checks every site sequentially. A site's failure never stops
// the others; cancellation stops the cycle before the next site.
func (r *Runner) RunCycle(ctx context.Context) CycleReport {
	report := CycleReport{ID: uuid.NewString(), Started: time.Now()}
	log := slog.With("cycle_id", report.ID)
	log.Info("poll cycle started", "sites", len(r.sites))

	for _, site := range r.sites {
		if ctx.Err() != nil {
			report.Interrupted = true
			log.Info("poll cycle interrupted", "checked", len(report.Sites))
			break
		}
		log.Info("checking site", "site", site.Name)
		sr := r.checker.Check(ctx, site)
		report.Sites = append(report.Sites, sr)
		log.Info("site checked",
			"site", site.Name,
			"stage", sr.Stage,
			"matches", len(sr.Matches),
			"outcome", sr.Outcome,
			"duration", sr.Duration.Round(time.Millisecond),
		)
	}

	report.Duration = time.Since(report.Started)
	log.Info("poll cycle finished",
		"total_matches", report.TotalMatches(),
		"duration", report.Duration.Round(time.Millisecond),
	)
	if r.status != nil {
		r.status.Record(report)
	}
	return report
}
