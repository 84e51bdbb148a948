package main

import (
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/user/revenue-tracker/internal/entity"
)

func newRunCommand(c *cli) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the pipeline once and print the candidates",
		Long: `Fetch every configured source once, extract revenue disclosures and
print the resulting candidates. Candidates are persisted when a store is
configured. Interrupting the run prints what was finished.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, c.cfg, c.logger)
			if err != nil {
				return err
			}
			defer a.Close()

			report, err := a.tracker.RunOnce(ctx)
			if err != nil {
				return err
			}
			renderCandidates(cmd.OutOrStdout(), report.Candidates, all)
			fmt.Fprintln(cmd.OutOrStdout(), report.Summary())
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "include suppressed candidates")
	return cmd
}

// renderCandidates prints candidates as a table. Suppressed candidates are
// hidden unless all is set.
func renderCandidates(w io.Writer, candidates []entity.RevenueCandidate, all bool) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Source", "Company", "Kind", "Amount", "Title", "URL"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Amount", Align: text.AlignRight},
		{Name: "Title", WidthMax: 60},
	})

	shown := 0
	for _, cand := range candidates {
		if cand.Decision == entity.DecisionSuppress && !all {
			continue
		}
		company := cand.Company
		if company == "" {
			company = "-"
		}
		t.AppendRow(table.Row{
			cand.Article.SourceID,
			company,
			string(cand.Signal.Kind),
			formatMillions(cand.Signal.Amount),
			strings.TrimSpace(cand.Article.Title),
			cand.Article.URL,
		})
		shown++
	}
	t.AppendFooter(table.Row{"", "", "", "", fmt.Sprintf("%d candidates", shown), ""})
	t.Render()
}

func formatMillions(m float64) string {
	if m >= 1000 {
		return fmt.Sprintf("$%.1fB", m/1000)
	}
	return fmt.Sprintf("$%.1fM", m)
}
