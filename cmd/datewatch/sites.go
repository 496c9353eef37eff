package main

import (
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/use-agent/datewatch/config"
)

func init() {
	rootCmd.AddCommand(sitesCmd)
}

var sitesCmd = &cobra.Command{
	Use:   "sites",
	Short: "List the site registry.",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := config.LoadRegistry(cfg.Monitor.SitesFile)
		if err != nil {
			return err
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Name", "URL", "Dates", "Trigger"})
		for _, s := range reg.Sites() {
			trigger := "-"
			if s.RequiresInteraction {
				trigger = s.InteractionTrigger
			}
			t.AppendRow(table.Row{s.Name, s.URL, strings.Join(s.TargetDates, ","), trigger})
		}
		t.SetStyle(table.StyleRounded)
		t.Render()
		return nil
	},
}
