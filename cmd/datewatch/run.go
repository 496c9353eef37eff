package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/use-agent/datewatch/api"
	"github.com/use-agent/datewatch/browser"
	"github.com/use-agent/datewatch/config"
	"github.com/use-agent/datewatch/extract"
	"github.com/use-agent/datewatch/models"
	"github.com/use-agent/datewatch/monitor"
	"github.com/use-agent/datewatch/notify"
)

var runOnce bool

func init() {
	runCmd.Flags().BoolVar(&runOnce, "once", false, "run a single poll cycle and exit")
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run [--once]",
	Short: "Poll every registered site, once or every interval.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMonitor(cmd.Context(), runOnce)
	},
}

func runMonitor(ctx context.Context, once bool) error {
	if once {
		cfg.Monitor.Mode = config.ModeOnce
	}

	// ── 1. Site registry ────────────────────────────────────────────
	reg, err := config.LoadRegistry(cfg.Monitor.SitesFile)
	if err != nil {
		return err
	}

	// ── 2. Notification gateways ────────────────────────────────────
	gateways := notify.GatewaysFromConfig(cfg.Notify)
	dispatcher := notify.NewDispatcher(gateways, cfg.Notify)
	banner(reg, gateways)

	// ── 3. Browser ──────────────────────────────────────────────────
	renderer, err := browser.NewRodRenderer(cfg.Browser, cfg.Timing)
	if err != nil {
		return err
	}
	defer func() {
		if err := renderer.Close(); err != nil {
			slog.Warn("browser close failed", "error", err)
		}
	}()

	// ── 4. Optional status server ───────────────────────────────────
	status := monitor.NewStatusStore(time.Now())
	if cfg.Status.Addr != "" {
		srv := &http.Server{
			Addr:    cfg.Status.Addr,
			Handler: api.NewRouter(status, reg.Len(), cfg.Status),
		}
		go func() {
			slog.Info("status server listening", "addr", cfg.Status.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("status server error", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				slog.Error("status server forced shutdown", "error", err)
			}
		}()
	}

	// ── 5. Poll ─────────────────────────────────────────────────────
	checker := newChecker(renderer, dispatcher)
	runner := monitor.NewRunner(reg, checker, cfg.Monitor, status)
	if err := runner.Run(ctx); err != nil {
		return err
	}

	slog.Info("datewatch stopped")
	return nil
}

func newChecker(r browser.Renderer, d *notify.Dispatcher) *monitor.Checker {
	return monitor.NewChecker(
		r,
		monitor.Interactor{Wait: cfg.Timing.InteractionWait, Settle: cfg.Timing.InteractionSettle},
		extract.NewCascade(cfg.Timing.FrameSettle),
		d,
		monitor.WithExtractTimeout(cfg.Timing.ExtractTimeout),
	)
}

// banner logs what this process is going to do.
func banner(reg *config.Registry, gateways []notify.Gateway) {
	names := make([]string, 0, len(gateways))
	for _, g := range gateways {
		names = append(names, g.Name())
	}
	slog.Info("datewatch starting",
		"version", models.Version,
		"mode", cfg.Monitor.Mode,
		"interval", cfg.Monitor.Interval,
		"sites", reg.Len(),
		"trigger_dates", strings.Join(cfg.Notify.TriggerDates, ","),
		"gateways", strings.Join(names, ","),
	)
	for _, s := range reg.Sites() {
		slog.Info("watching site",
			"site", s.Name,
			"url", s.URL,
			"dates", strings.Join(s.TargetDates, ","),
			"interaction", s.RequiresInteraction,
		)
	}
	if len(gateways) == 0 {
		slog.Warn("no notification gateway configured, matches will only be logged")
	}
}
