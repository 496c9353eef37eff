// Package notify decides when availability warrants an external message and
// delivers it through the configured messaging gateways.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/use-agent/datewatch/config"
)

// Gateway delivers a notification to one messaging service.
type Gateway interface {
	Name() string
	Send(ctx context.Context, n Notification) error
}

// Fanout sends to every gateway and joins their errors. A failing gateway
// does not stop delivery to the others.
type Fanout []Gateway

func (f Fanout) Name() string { return "fanout" }

func (f Fanout) Send(ctx context.Context, n Notification) error {
	var errs []error
	for _, g := range f {
		if err := g.Send(ctx, n); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", g.Name(), err))
			continue
		}
		slog.Info("notification delivered", "gateway", g.Name(), "site", n.Site)
	}
	return errors.Join(errs...)
}

// GatewaysFromConfig builds every gateway whose credentials are present.
// An empty result is the valid "not configured" state.
func GatewaysFromConfig(cfg config.NotifyConfig) []Gateway {
	var gws []Gateway
	if cfg.Telegram.Configured() {
		gws = append(gws, NewTelegram(cfg.Telegram))
	}
	if cfg.Discord.Configured() {
		d, err := NewDiscord(cfg.Discord)
		if err != nil {
			slog.Error("discord gateway disabled", "error", err)
		} else {
			gws = append(gws, d)
		}
	}
	if cfg.Webhook.Configured() {
		gws = append(gws, NewWebhook(cfg.Webhook))
	}
	if cfg.Email.Configured() {
		gws = append(gws, NewEmail(cfg.Email))
	}
	return gws
}
