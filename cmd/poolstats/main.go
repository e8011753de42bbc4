package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/aevon-lab/poolstats/internal/cache"
	corecfg "github.com/aevon-lab/poolstats/internal/core/config"
	"github.com/aevon-lab/poolstats/internal/core/storage"
	"github.com/aevon-lab/poolstats/internal/core/storage/memory"
	"github.com/aevon-lab/poolstats/internal/core/storage/postgres"
	"github.com/aevon-lab/poolstats/internal/ingestion"
	"github.com/aevon-lab/poolstats/internal/migrations"
	"github.com/aevon-lab/poolstats/internal/projection"
	"github.com/aevon-lab/poolstats/internal/retention"
	"github.com/aevon-lab/poolstats/internal/server"
)

func main() {
	configPath := flag.String("config", "poolstats.yaml", "Path to configuration file")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(*configPath); err != nil {
		slog.Error("Fatal error", "error", err)
		os.Exit(1)
	}
	slog.Info("Shutdown complete")
}

func run(configPath string) error {
	// 1. Load Configuration
	cfg, err := corecfg.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	slog.Info("Loaded config",
		"database", cfg.Database.Type,
		"staleness_window", cfg.Stats.Staleness,
		"leaderboard_window", cfg.Stats.Leaderboard,
		"retention", cfg.Retention.Enabled,
		"cache", cfg.Cache.Enabled,
	)

	// 2. Initialize Storage
	store, err := openStore(cfg.Database)
	if err != nil {
		return err
	}
	defer store.Close()

	// 3. Initialize Services
	ingestionSvc := ingestion.NewService(store, cfg.Server.MaxBodySizeMB)
	projectionSvc := projection.NewService(store, projection.Settings{
		StalenessWindow:   cfg.Stats.Staleness,
		LeaderboardWindow: cfg.Stats.Leaderboard,
		DefaultPageSize:   cfg.Stats.DefaultPageSize,
		MaxPageSize:       cfg.Stats.MaxPageSize,
	})

	checks := map[string]server.HealthChecker{"database": store}

	// 4. Optional Redis response cache for the read endpoints
	var cacheClient *cache.Client
	if cfg.Cache.Enabled {
		cacheClient, err = cache.NewClient(cache.Config{
			Addr:     cfg.Cache.Addr,
			Password: cfg.Cache.Password,
			DB:       cfg.Cache.DB,
			TTL:      cfg.Cache.TTLDuration,
		})
		if err != nil {
			return err
		}
		defer cacheClient.Close()
		checks["cache"] = server.HealthFunc(cacheClient.Health)
	}

	// 5. Initialize Server
	srv := server.New(fmtAddr(cfg.Server.Host, cfg.Server.Port), cfg.Server.Mode, checks)
	ingestionSvc.RegisterRoutes(srv.Engine)

	reads := srv.Engine.Group("")
	if cacheClient != nil {
		reads.Use(cacheClient.Middleware())
	}
	projectionSvc.RegisterRoutes(reads)

	// 6. Start Services
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	if cfg.Retention.Enabled {
		scheduler := retention.NewScheduler(cfg.Retention.IntervalDuration, cfg.Retention.MaxAgeDuration, store)
		g.Go(func() error {
			return scheduler.Start(gctx)
		})
	} else {
		slog.Info("[Retention] Scheduler disabled by config")
	}

	// HTTP server blocks until ctx is cancelled.
	g.Go(func() error {
		return srv.Run(gctx)
	})

	return g.Wait()
}

func openStore(cfg corecfg.DatabaseConfig) (storage.Store, error) {
	if cfg.Type == "memory" {
		slog.Warn("Using in-memory store; snapshots are lost on restart")
		return memory.NewStore(), nil
	}

	db, err := postgres.Open(cfg.DSN, cfg.MaxOpenConns, cfg.MaxIdleConns)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := migrations.RunMigrations(db, cfg.AutoMigrate); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run database migrations: %w", err)
	}

	adapter, err := postgres.NewAdapter(db)
	if err != nil {
		return nil, err
	}
	return adapter, nil
}

func fmtAddr(host string, port int) string {
	return fmt.Sprintf("%s:%d", host, port)
}
