// Package bootstrap builds the application services from configuration. Both
// the HTTP server and the CLI start from here.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/scopa-ai/signal/internal/alerts"
	"github.com/scopa-ai/signal/internal/analysis"
	"github.com/scopa-ai/signal/internal/collector"
	"github.com/scopa-ai/signal/internal/config"
	"github.com/scopa-ai/signal/internal/database"
	"github.com/scopa-ai/signal/internal/notifications"
	"github.com/scopa-ai/signal/internal/proxy"
	"github.com/scopa-ai/signal/internal/ratelimit"
	"github.com/scopa-ai/signal/internal/server"
	"github.com/scopa-ai/signal/internal/storage"
	"github.com/scopa-ai/signal/internal/usage"
	"github.com/sirupsen/logrus"
)

// App holds the wired services. Optional parts are nil when not configured.
type App struct {
	Config    *config.Config
	Collector *collector.RealDataCollector
	Analyzer  *analysis.Analyzer
	Repo      *database.Repository
	Processor *alerts.Processor
	Proxy     *proxy.Handler
	Storage   storage.StorageInterface
	Usage     *usage.Tracker

	db    *sqlx.DB
	redis *redis.Client
}

// Build connects the configured backends and wires the services together
func Build(ctx context.Context, cfg *config.Config) (*App, error) {
	app := &App{Config: cfg, Proxy: proxy.NewHandler(cfg)}

	store, err := setupStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app.Storage = store

	var quota analysis.QuotaGate
	if cfg.RedisURL != "" {
		client, err := usage.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		app.redis = client
		app.Usage = usage.NewTracker(client, map[string]int{analysis.ProviderLLM: cfg.LLMMonthlyQuota})
		quota = app.Usage
		logrus.Info("LLM usage metering enabled")
	}

	if cfg.LLMEnabled() {
		client := analysis.NewClient(cfg.LLMAPIKey, cfg.LLMBaseURL, analysis.WithModel(cfg.LLMModel))
		app.Analyzer = analysis.NewAnalyzer(client, quota)
		logrus.Infof("LLM analysis enabled with model %s", cfg.LLMModel)
	}

	opts := []collector.Option{collector.WithMaxResults(cfg.MaxResults)}
	if store != nil {
		opts = append(opts, collector.WithStorage(store))
	}
	if app.Analyzer != nil {
		opts = append(opts, collector.WithEnricher(app.Analyzer, cfg.EnrichMinLeads))
	}
	app.Collector = collector.NewRealDataCollector(collector.DefaultSources(cfg, ratelimit.New()), opts...)

	if cfg.DatabaseURL != "" {
		db, err := database.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			app.Close()
			return nil, err
		}
		app.db = db
		app.Repo = database.NewRepository(db)
		logrus.Info("Connected to database")
	}

	if app.Repo != nil && app.Analyzer != nil {
		var procOpts []alerts.Option
		notifier := notifications.NewService(cfg, app.Repo)
		if notifier.Enabled() {
			procOpts = append(procOpts, alerts.WithNotifier(notifier))
		}
		if store != nil {
			procOpts = append(procOpts, alerts.WithArchive(store))
		}
		app.Processor = alerts.NewProcessor(app.Repo, app.Analyzer, procOpts...)
	} else {
		logrus.Warn("Alert processing disabled: requires DATABASE_URL and LLM_API_KEY")
	}

	return app, nil
}

func setupStorage(ctx context.Context, cfg *config.Config) (storage.StorageInterface, error) {
	switch {
	case cfg.StorageAccount != "":
		s, err := storage.NewAzureStorage(ctx, cfg.StorageAccount, cfg.StorageContainer)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize blob storage: %w", err)
		}
		logrus.Infof("Archiving search snapshots to container %s", cfg.StorageContainer)
		return s, nil
	case cfg.SnapshotDir != "":
		s, err := storage.NewFileStorage(cfg.SnapshotDir)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize snapshot directory: %w", err)
		}
		logrus.Infof("Archiving search snapshots to %s", cfg.SnapshotDir)
		return s, nil
	default:
		return nil, nil
	}
}

// Server returns the HTTP server wiring for the app. Nil services are left
// as nil interfaces so their routes report 503.
func (a *App) Server() *server.Server {
	s := &server.Server{
		Leads:              a.Collector,
		Proxy:              a.Proxy,
		CronSecret:         a.Config.CronSecret,
		EnableCronEndpoint: a.Config.EnableCronEndpoint,
	}
	if a.Analyzer != nil {
		s.Opportunities = a.Analyzer
	}
	if a.Repo != nil {
		s.Repo = a.Repo
	}
	if a.Processor != nil {
		s.Alerts = a.Processor
	}
	return s
}

// Close releases the database and Redis connections
func (a *App) Close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			logrus.Errorf("Failed to close database: %v", err)
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			logrus.Errorf("Failed to close redis: %v", err)
		}
	}
}
