package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/scopa-ai/signal/internal/bootstrap"
	"github.com/scopa-ai/signal/internal/config"
	"github.com/scopa-ai/signal/internal/proxy"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	debug      bool
	localProxy bool

	rootCmd = &cobra.Command{
		Use:          "signalctl",
		Short:        "Operate the Signal lead and opportunity backend",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logrus.SetLevel(logrus.WarnLevel)
			if debug {
				logrus.SetLevel(logrus.DebugLevel)
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
)

// Execute runs the root command
func Execute() error {
	_ = godotenv.Load()
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&localProxy, "local-proxy", true,
		"serve /api/reddit and /api/twitter in-process instead of calling PROXY_BASE_URL")

	rootCmd.AddCommand(scanCommand())
	rootCmd.AddCommand(sourcesCommand())
	rootCmd.AddCommand(alertsCommand())
	rootCmd.AddCommand(migrateCommand())
	rootCmd.AddCommand(snapshotsCommand())
	rootCmd.AddCommand(usageCommand())
}

// loadApp loads configuration and builds the services. With --local-proxy the
// scanners are pointed at an in-process proxy; the returned func tears it down.
func loadApp(ctx context.Context) (*bootstrap.App, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {}
	if localProxy {
		router := mux.NewRouter()
		proxy.NewHandler(cfg).Register(router)
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return nil, nil, fmt.Errorf("failed to start local proxy: %w", err)
		}
		srv := &http.Server{Handler: router}
		go func() { _ = srv.Serve(ln) }()
		cfg.ProxyBaseURL = "http://" + ln.Addr().String()
		cleanup = func() { _ = srv.Close() }
	}

	app, err := bootstrap.Build(ctx, cfg)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	return app, func() {
		app.Close()
		cleanup()
	}, nil
}

// loadConfig relaxes the cron secret requirement, which only matters for the server
func loadConfig() (*config.Config, error) {
	if os.Getenv("CRON_SECRET") == "" && os.Getenv("ENABLE_CRON_ENDPOINT") == "" {
		_ = os.Setenv("ENABLE_CRON_ENDPOINT", "false")
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
