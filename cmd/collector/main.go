// cmd/collector/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/RecandChat/CodeCompass/internal/api"
	"github.com/RecandChat/CodeCompass/internal/config"
	"github.com/RecandChat/CodeCompass/internal/crawl"
	"github.com/RecandChat/CodeCompass/internal/github"
	"github.com/RecandChat/CodeCompass/internal/store"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Application startup error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	mode := flag.String("mode", "build", "collection mode: bulk (full social-graph crawl), build (incremental from user list), topics (search query matrix), merge (combine shards into one dataset)")
	flag.Parse()

	// 1. Initialize structured logger
	logLevel := new(slog.LevelVar)
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	logger := slog.New(handler)
	slog.SetDefault(logger)

	// 2. Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	setLogLevel(cfg.LogLevel, logLevel)
	logger.Info("Configuration loaded successfully", "mode", *mode)

	// 3. Setup context for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// 4. Optional Postgres sink
	var sink crawl.RecordSink
	var pgStore *store.PGStore
	if cfg.DBURL != "" {
		dbpool, err := pgxpool.New(ctx, cfg.DBURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer dbpool.Close()
		logger.Info("Database connection established")

		if err := runMigrations(cfg.DBURL); err != nil {
			return fmt.Errorf("failed to run database migrations: %w", err)
		}
		logger.Info("Database migrations applied successfully")

		pgStore = store.NewPGStore(dbpool, logger)
		sink = pgStore
	}

	// 5. Initialize application components
	shards, err := store.NewShardStore(cfg.DataDir, logger)
	if err != nil {
		return err
	}
	checkpoint := store.NewCheckpoint(cfg.CheckpointFile)
	ghClient := github.NewClient(cfg, logger)
	status := crawl.NewStatus()

	collector := crawl.NewCollector(ghClient, shards, checkpoint, sink, logger, status, crawl.Options{
		SeedUserCount:  cfg.SeedUserCount,
		MaxUsers:       cfg.MaxUsers,
		BatchSize:      cfg.BatchSize,
		MaxShards:      cfg.MaxShards,
		IncludeStarred: cfg.IncludeStarred,
	})

	// 6. Run the collector and the status server together
	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: api.NewRouter(status, shards, ghClient.RateLimiter(), pgStore, logger),
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Status server listening", "addr", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		return server.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		defer cancel() // A finished run also stops the status server.
		var err error
		switch *mode {
		case "bulk":
			err = collector.Collect(gctx)
		case "build":
			err = collector.BuildDataset(gctx, cfg.UserListFile)
		case "topics":
			err = collector.CollectTopics(gctx)
		case "merge":
			err = mergeShards(shards, logger)
		default:
			return fmt.Errorf("unknown mode %q", *mode)
		}
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		logger.Info("Collection run finished", "mode", *mode)
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// mergeShards combines every numbered shard into one deduplicated dataset
// file alongside the shards.
func mergeShards(shards *store.ShardStore, logger *slog.Logger) error {
	records, err := shards.MergeShards()
	if err != nil {
		return fmt.Errorf("merging shards: %w", err)
	}
	path, err := shards.WriteDataset("full_dataset.csv", records)
	if err != nil {
		return err
	}
	logger.Info("Merged dataset written", "path", path, "records", len(records))
	return nil
}

func runMigrations(dbURL string) error {
	m, err := migrate.New("file://migrations", dbURL)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}

func setLogLevel(level string, v *slog.LevelVar) {
	switch level {
	case "debug":
		v.Set(slog.LevelDebug)
	case "warn":
		v.Set(slog.LevelWarn)
	case "error":
		v.Set(slog.LevelError)
	default:
		v.Set(slog.LevelInfo)
	}
}
