package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/scopa-ai/signal/internal/analysis"
	"github.com/scopa-ai/signal/internal/bootstrap"
	"github.com/scopa-ai/signal/internal/usage"
	"github.com/spf13/cobra"
)

func usageCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "usage",
		Short: "Show this month's metered LLM calls and remaining quota",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			app, err := bootstrap.Build(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			if app.Usage == nil {
				return errors.New("usage metering requires REDIS_URL")
			}
			return printUsage(cmd.Context(), app.Usage, time.Now(), cmd.OutOrStdout())
		},
	}
}

func printUsage(ctx context.Context, tracker *usage.Tracker, now time.Time, out io.Writer) error {
	used, err := tracker.Used(ctx, analysis.ProviderLLM)
	if err != nil {
		return err
	}
	remaining, err := tracker.Remaining(ctx, analysis.ProviderLLM)
	if err != nil {
		return err
	}

	left := "unlimited"
	if remaining >= 0 {
		left = fmt.Sprint(remaining)
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PROVIDER\tMONTH\tUSED\tREMAINING")
	fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", analysis.ProviderLLM, now.UTC().Format("2006-01"), used, left)
	return w.Flush()
}
