package monitor

import (
	"context"
	"log/slog"
	"time"

	"github.com/use-agent/datewatch/browser"
	"github.com/use-agent/datewatch/models"
)

// triggerSelector is where the interaction trigger is searched for.
const triggerSelector = "button"

// Interactor opens the booking modal on sites whose calendar is hidden
// until a trigger control is clicked.
type Interactor struct {
	// Wait bounds the search for the trigger and the click itself.
	Wait time.Duration

	// Settle is the pause after the click for the modal to render.
	Settle time.Duration
}

// Interact is a no-op for sites without RequiresInteraction. Otherwise it
// clicks the first button whose text contains the trigger label and waits
// for the page to settle. The page is mutated on purpose.
func (i Interactor) Interact(ctx context.Context, page browser.Page, site models.SiteConfig) error {
	if !site.RequiresInteraction {
		return nil
	}
	log := slog.With("site", site.Name, "stage", "interact")
	log.Info("looking for trigger", "trigger", site.InteractionTrigger)

	findCtx, cancel := context.WithTimeout(ctx, i.Wait)
	defer cancel()

	el, err := page.FindByText(findCtx, triggerSelector, site.InteractionTrigger)
	if err != nil {
		return models.NewMonitorError(models.ErrCodeInteractionFailed, site.Name,
			"trigger \""+site.InteractionTrigger+"\" not found", err)
	}

	log.Info("clicking trigger", "trigger", site.InteractionTrigger)
	if err := el.Click(findCtx); err != nil {
		return models.NewMonitorError(models.ErrCodeInteractionFailed, site.Name, "trigger click failed", err)
	}

	if err := browser.Settle(ctx, i.Settle); err != nil {
		return models.NewMonitorError(models.ErrCodeInteractionFailed, site.Name, "interrupted while settling", err)
	}
	log.Debug("trigger activated, page settled")
	return nil
}
