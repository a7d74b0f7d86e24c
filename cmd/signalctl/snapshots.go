package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/scopa-ai/signal/internal/bootstrap"
	"github.com/scopa-ai/signal/internal/storage"
	"github.com/spf13/cobra"
)

func snapshotsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshots",
		Short: "Inspect archived search results and alert batches",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list [prefix]",
		Short: "List archived snapshots, e.g. searches/2025-03-10 or alerts/",
		Args:  cobra.MaximumNArgs(1),
		RunE: withStorage(func(ctx context.Context, store storage.StorageInterface, out io.Writer, args []string) error {
			prefix := ""
			if len(args) == 1 {
				prefix = args[0]
			}
			return listSnapshots(ctx, store, prefix, out)
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show <name>",
		Short: "Print one snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: withStorage(func(ctx context.Context, store storage.StorageInterface, out io.Writer, args []string) error {
			return showSnapshot(ctx, store, args[0], out)
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <name>",
		Short: "Remove one snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: withStorage(func(ctx context.Context, store storage.StorageInterface, out io.Writer, args []string) error {
			if err := store.Delete(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(out, "deleted %s\n", args[0])
			return nil
		}),
	})

	return cmd
}

type storageRunner func(ctx context.Context, store storage.StorageInterface, out io.Writer, args []string) error

func withStorage(run storageRunner) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		app, err := bootstrap.Build(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer app.Close()

		if app.Storage == nil {
			return errors.New("no archive configured: set AZURE_STORAGE_ACCOUNT or SNAPSHOT_DIR")
		}
		return run(cmd.Context(), app.Storage, cmd.OutOrStdout(), args)
	}
}

func listSnapshots(ctx context.Context, store storage.StorageInterface, prefix string, out io.Writer) error {
	names, err := store.List(ctx, prefix)
	if err != nil {
		return err
	}
	for _, name := range names {
		fmt.Fprintln(out, name)
	}
	if len(names) == 0 {
		fmt.Fprintln(out, "no snapshots")
	}
	return nil
}

func showSnapshot(ctx context.Context, store storage.StorageInterface, name string, out io.Writer) error {
	data, err := store.Retrieve(ctx, name)
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("snapshot %s does not exist", name)
	}
	if err != nil {
		return err
	}
	_, err = out.Write(append(data, '\n'))
	return err
}
