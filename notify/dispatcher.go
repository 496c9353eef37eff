package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/use-agent/datewatch/config"
	"github.com/use-agent/datewatch/models"
	"golang.org/x/time/rate"
)

// Outcome is what Dispatch did with a result.
type Outcome string

const (
	OutcomeNoTrigger  Outcome = "no-trigger" // no trigger date in the result
	OutcomeSuppressed Outcome = "suppressed" // no gateway configured
	OutcomeCooldown   Outcome = "cooldown"   // notified within the cooldown window
	OutcomeSent       Outcome = "sent"
	OutcomeFailed     Outcome = "failed"
)

// Dispatcher turns site results into notifications.
type Dispatcher struct {
	gateway  Fanout
	triggers []string
	cooldown *Cooldown
	limiter  *rate.Limiter
	now      func() time.Time
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) { d.now = now }
}

// NewDispatcher creates a Dispatcher over gateways. An empty gateway list
// suppresses every notification without error.
func NewDispatcher(gateways []Gateway, cfg config.NotifyConfig, opts ...Option) *Dispatcher {
	limit := rate.Inf
	burst := 1
	if cfg.RatePerMinute > 0 {
		limit = rate.Limit(float64(cfg.RatePerMinute) / 60)
		burst = cfg.RatePerMinute
	}

	d := &Dispatcher{
		gateway:  Fanout(gateways),
		triggers: append([]string(nil), cfg.TriggerDates...),
		cooldown: NewCooldown(cfg.Cooldown),
		limiter:  rate.NewLimiter(limit, burst),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Configured reports whether at least one gateway is set up.
func (d *Dispatcher) Configured() bool { return len(d.gateway) > 0 }

// Gateways returns the configured gateway names.
func (d *Dispatcher) Gateways() []string {
	names := make([]string, len(d.gateway))
	for i, g := range d.gateway {
		names[i] = g.Name()
	}
	return names
}

// Triggered returns the trigger dates present in res, in trigger order.
func (d *Dispatcher) Triggered(res models.SiteRunResult) []string {
	var out []string
	for _, t := range d.triggers {
		if res.HasDate(t) {
			out = append(out, t)
		}
	}
	return out
}

// Dispatch sends a notification if and only if res contains a trigger date.
// Delivery failure is returned as a DELIVERY_FAILED error with
// OutcomeFailed; it is never retried here.
func (d *Dispatcher) Dispatch(ctx context.Context, res models.SiteRunResult) (Outcome, error) {
	log := slog.With("site", res.Site.Name, "stage", "notify")

	triggered := d.Triggered(res)
	if len(triggered) == 0 {
		log.Debug("no trigger date found, skipping notification", "triggers", d.triggers)
		return OutcomeNoTrigger, nil
	}
	if !d.Configured() {
		log.Info("notification configuration missing, skipping notification", "triggered", triggered)
		return OutcomeSuppressed, nil
	}

	now := d.now()
	if d.cooldown.Active(res.Site.Name, now) {
		log.Info("notification suppressed by cooldown", "triggered", triggered)
		return OutcomeCooldown, nil
	}

	if err := d.limiter.Wait(ctx); err != nil {
		return OutcomeFailed, models.NewMonitorError(models.ErrCodeDeliveryFailed, res.Site.Name,
			"rate limiter wait aborted", err)
	}

	log.Info("trigger date found, sending notification", "triggered", triggered, "matches", len(res.Matches))
	n := BuildNotification(res, triggered, now)
	if err := d.gateway.Send(ctx, n); err != nil {
		log.Error("failed to send notification", "error", err)
		return OutcomeFailed, models.NewMonitorError(models.ErrCodeDeliveryFailed, res.Site.Name,
			"notification delivery failed", err)
	}

	d.cooldown.Mark(res.Site.Name, now)
	return OutcomeSent, nil
}
