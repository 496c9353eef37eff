package main

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/use-agent/datewatch/browser"
	"github.com/use-agent/datewatch/config"
	"github.com/use-agent/datewatch/monitor"
	"github.com/use-agent/datewatch/notify"
)

var (
	checkNotify bool
	checkHTML   string
)

func init() {
	checkCmd.Flags().BoolVar(&checkNotify, "notify", false, "send notifications for triggering matches")
	checkCmd.Flags().StringVar(&checkHTML, "html", "", "check a saved HTML file instead of loading the site")
	rootCmd.AddCommand(checkCmd)
}

var checkCmd = &cobra.Command{
	Use:   "check <site> [--notify] [--html <file>]",
	Short: "Poll a single site once and print what was found.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := config.LoadRegistry(cfg.Monitor.SitesFile)
		if err != nil {
			return err
		}
		site, ok := reg.Lookup(args[0])
		if !ok {
			return fmt.Errorf("unknown site %q", args[0])
		}

		var renderer browser.Renderer
		if checkHTML != "" {
			raw, err := os.ReadFile(checkHTML)
			if err != nil {
				return err
			}
			renderer = &browser.StaticRenderer{Pages: map[string]*browser.StaticPage{
				site.URL: {HTML: string(raw)},
			}}
		} else {
			rr, err := browser.NewRodRenderer(cfg.Browser, cfg.Timing)
			if err != nil {
				return err
			}
			defer rr.Close()
			renderer = rr
		}

		var dispatcher *notify.Dispatcher
		if checkNotify {
			dispatcher = notify.NewDispatcher(notify.GatewaysFromConfig(cfg.Notify), cfg.Notify)
		}

		rep := newChecker(renderer, dispatcher).Check(cmd.Context(), site)
		printReport(rep)
		if rep.Stage == monitor.StageFailed {
			return fmt.Errorf("check failed at %s: %s", rep.FailedAt, rep.Error)
		}
		return nil
	},
}

func printReport(rep monitor.SiteReport) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle(fmt.Sprintf("%s (%s)", rep.Site, rep.Stage))
	t.AppendHeader(table.Row{"Date", "Status", "Strategy", "Policy", "Context"})
	for _, m := range rep.Matches {
		t.AppendRow(table.Row{m.Date, m.Status, m.Strategy, m.Policy, m.Context})
	}
	if len(rep.Matches) == 0 {
		t.AppendFooter(table.Row{"", "no matches"})
	}
	if rep.Outcome != "" {
		t.AppendFooter(table.Row{"notify", rep.Outcome})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
}
