package main

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/scopa-ai/signal/internal/collector"
	"github.com/scopa-ai/signal/internal/models"
	"github.com/scopa-ai/signal/internal/ratelimit"
	"github.com/spf13/cobra"
)

func sourcesCommand() *cobra.Command {
	var (
		probe   string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "sources",
		Short: "List the configured scanners, optionally probing each with a query",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, cleanup, err := loadApp(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "SOURCE\tENABLED\tLEAD\tOPPORTUNITY\tPROBE")

			for _, src := range collector.DefaultSources(app.Config, ratelimit.New()) {
				result := "-"
				if probe != "" && src.IsEnabled() {
					ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
					start := time.Now()
					leads, err := src.FetchLeads(ctx, probe, models.ModeLead)
					cancel()
					if err != nil {
						result = "error: " + err.Error()
					} else {
						result = fmt.Sprintf("%d leads in %v", len(leads), time.Since(start).Round(time.Millisecond))
					}
				}
				fmt.Fprintf(w, "%s\t%t\t%t\t%t\t%s\n",
					src.GetName(), src.IsEnabled(),
					src.Supports(models.ModeLead), src.Supports(models.ModeOpportunity), result)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&probe, "probe", "", "query to run against each enabled source")
	cmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "per-source probe timeout")
	return cmd
}
