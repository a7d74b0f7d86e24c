package main

import (
	"errors"

	"github.com/spf13/cobra"
)

func alertsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "alerts",
		Short: "Manage the market alert batch",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Check every due alert once and print the batch summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, cleanup, err := loadApp(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			if app.Processor == nil {
				return errors.New("alert processing requires DATABASE_URL and LLM_API_KEY")
			}

			summary, err := app.Processor.Run(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd, summary)
		},
	})

	return cmd
}
