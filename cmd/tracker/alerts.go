package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/user/revenue-tracker/internal/entity"
)

var errNoStore = errors.New("alerts need STORE_BACKEND=postgres")

func newAlertsCommand(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "alerts",
		Short: "Inspect and deliver stored revenue alerts",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List pending alerts",
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.withAlerts(cmd.Context(), func(a *app) error {
					pending, err := a.alerts.Pending(cmd.Context())
					if err != nil {
						return err
					}
					renderAlerts(cmd.OutOrStdout(), pending)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "send",
			Short: "Email pending alerts and mark them sent",
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.withAlerts(cmd.Context(), func(a *app) error {
					n, err := a.alerts.SendPending(cmd.Context())
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "sent %d alerts\n", n)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "summary",
			Short: "Email the weekly summary",
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.withAlerts(cmd.Context(), func(a *app) error {
					return a.alerts.SendSummary(cmd.Context())
				})
			},
		},
	)
	return cmd
}

func (c *cli) withAlerts(ctx context.Context, fn func(a *app) error) error {
	a, err := newApp(ctx, c.cfg, c.logger)
	if err != nil {
		return err
	}
	defer a.Close()
	if a.alerts == nil {
		return errNoStore
	}
	return fn(a)
}

func renderAlerts(w io.Writer, alerts []entity.Alert) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"ID", "Company", "Kind", "Amount", "Source", "Found", "URL"})
	t.SetColumnConfigs([]table.ColumnConfig{{Name: "Amount", Align: text.AlignRight}})
	for _, al := range alerts {
		t.AppendRow(table.Row{
			al.ID,
			al.Company,
			string(al.Kind),
			formatMillions(al.Amount),
			al.SourceID,
			al.CreatedAt.Format("2006-01-02"),
			al.ArticleURL,
		})
	}
	t.Render()
}
