package main

import (
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/user/revenue-tracker/internal/source"
)

func newSourcesCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "List the sources a run covers",
		RunE: func(cmd *cobra.Command, args []string) error {
			sources, err := source.Default().Select(c.cfg.SourceIDs())
			if err != nil {
				return err
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"ID", "Base URL", "Feed", "Search Paths"})
			for _, s := range sources {
				feedURL := s.FeedURL
				if feedURL == "" {
					feedURL = "-"
				}
				t.AppendRow(table.Row{s.ID, s.BaseURL, feedURL, strings.Join(s.SearchPaths, "\n")})
			}
			t.Render()
			return nil
		},
	}
}
