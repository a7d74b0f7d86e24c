package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/scopa-ai/signal/internal/models"
	"github.com/spf13/cobra"
)

func scanCommand() *cobra.Command {
	var (
		mode   string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "scan <query>",
		Short: "Run one aggregated search and print the ranked leads",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, cleanup, err := loadApp(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			query := strings.Join(args, " ")
			leads := app.Collector.FindRealLeads(cmd.Context(), query, models.ParseSearchMode(mode))

			if asJSON {
				return printJSON(cmd, leads)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "SCORE\tSOURCE\tPOSTED\tBUDGET\tPROSPECT\tURL")
			for _, lead := range leads {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
					lead.FitScore, lead.Source, lead.PostedAt, lead.Budget, lead.ProspectName, lead.SourceURL)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\n%d leads\n", len(leads))
			return nil
		},
	}

	cmd.Flags().StringVar(&mode, "mode", "lead", "search mode: lead or opportunity")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print leads as JSON")
	return cmd
}
