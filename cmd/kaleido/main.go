package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"

	"github.com/kaleidonews/kaleido/internal/analytics"
	"github.com/kaleidonews/kaleido/internal/api"
	"github.com/kaleidonews/kaleido/internal/archive"
	"github.com/kaleidonews/kaleido/internal/cache"
	"github.com/kaleidonews/kaleido/internal/config"
	"github.com/kaleidonews/kaleido/internal/feed"
	"github.com/kaleidonews/kaleido/internal/logger"
	"github.com/kaleidonews/kaleido/internal/middleware"
	"github.com/kaleidonews/kaleido/internal/models"
)

func main() {
	root := &cobra.Command{
		Use:   "kaleido",
		Short: "Multi-perspective news feed aggregator",
	}
	root.AddCommand(serveCmd(), fetchCmd(), trendingCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app bundles everything the composition root wires together.
type app struct {
	cfg          *config.Config
	sources      []models.Source
	orchestrator *feed.Orchestrator
	aggCache     *cache.Memory[models.FeedResult]
	srcCache     *cache.Memory[[]models.Article]
	closers      []func()
}

func (a *app) close() {
	for _, fn := range a.closers {
		fn()
	}
}

// buildApp is the composition root: every service object is constructed
// and injected here, nothing lives as a package-level singleton.
func buildApp(ctx context.Context) (*app, error) {
	cfg := config.Load()

	if err := logger.Init(logger.Config{
		Level:  cfg.LogLevel,
		Output: cfg.LogFile,
		Pretty: cfg.Env == "development",
	}); err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	log := logger.Get()

	sources, err := config.LoadSources(cfg.SourcesPath)
	if err != nil {
		return nil, err
	}
	log.Info().Int("sources", len(sources)).Str("path", cfg.SourcesPath).Msg("Sources loaded")

	router := feed.NewRouter(feed.DefaultProxies(), cfg.FailureThreshold)
	fetcher := feed.NewFetcher(router, cfg.FetchTimeout, *log)

	a := &app{cfg: cfg, sources: sources}

	opts := feed.Options{TTL: cfg.CacheTTL}
	if cfg.RedisURL != "" {
		aggRedis, err := cache.NewRedis[models.FeedResult](cfg.RedisURL, cfg.RedisPrefix+"agg:")
		if err != nil {
			return nil, fmt.Errorf("init Redis cache: %w", err)
		}
		srcRedis, err := cache.NewRedis[[]models.Article](cfg.RedisURL, cfg.RedisPrefix+"src:")
		if err != nil {
			aggRedis.Close()
			return nil, fmt.Errorf("init Redis cache: %w", err)
		}
		opts.Aggregate = aggRedis
		opts.PerSource = srcRedis
		a.closers = append(a.closers, func() { aggRedis.Close() }, func() { srcRedis.Close() })
		log.Info().Msg("Using Redis cache backend")
	} else {
		a.aggCache = cache.NewMemory[models.FeedResult]()
		a.srcCache = cache.NewMemory[[]models.Article]()
		a.aggCache.StartJanitor(cfg.SweepInterval)
		a.srcCache.StartJanitor(cfg.SweepInterval)
		opts.Aggregate = a.aggCache
		opts.PerSource = a.srcCache
		a.closers = append(a.closers, a.aggCache.Stop, a.srcCache.Stop)
	}

	if cfg.R2Endpoint != "" {
		archiver, err := archive.New(ctx, archive.Config{
			Endpoint:  cfg.R2Endpoint,
			AccessKey: cfg.R2AccessKey,
			SecretKey: cfg.R2SecretKey,
			Bucket:    cfg.R2Bucket,
		})
		if err != nil {
			return nil, fmt.Errorf("init snapshot archive: %w", err)
		}
		opts.Snapshots = archiver
		log.Info().Str("bucket", cfg.R2Bucket).Msg("Snapshot archiving enabled")
	}

	a.orchestrator = feed.NewOrchestrator(fetcher, router, opts, *log)
	return a, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the aggregator API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()
			log := logger.Get()

			fiberApp := fiber.New(fiber.Config{
				ReadTimeout:  a.cfg.HTTPTimeout,
				WriteTimeout: a.cfg.HTTPTimeout,
				IdleTimeout:  120 * time.Second,
				ErrorHandler: middleware.ErrorHandler,
			})
			api.SetupRoutes(fiberApp, a.orchestrator, a.sources, a.cfg.AdminAPIKey)

			go func() {
				log.Info().Str("port", a.cfg.Port).Msg("Starting server")
				if err := fiberApp.Listen(":" + a.cfg.Port); err != nil {
					log.Fatal().Err(err).Msg("Server error")
				}
			}()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
			<-quit

			log.Info().Msg("Shutting down server...")
			ctx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
			defer cancel()
			if err := fiberApp.ShutdownWithContext(ctx); err != nil {
				log.Error().Err(err).Msg("Server forced to shutdown")
			}
			log.Info().Msg("Server exited properly")
			return nil
		},
	}
}

func fetchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fetch",
		Short: "Run one aggregate fetch cycle and print the result as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			result, err := a.orchestrator.FetchFeeds(cmd.Context(), a.sources)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}
}

func trendingCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "trending",
		Short: "Fetch feeds and print the trending topics",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			result, err := a.orchestrator.FetchFeeds(cmd.Context(), a.sources)
			if err != nil {
				return err
			}

			trending := analytics.TrendingTopics(result.Items, time.Now())
			for _, t := range analytics.NarrativeData(trending, limit) {
				fmt.Printf("%-16s count=%-4d velocity=%.1f share=%.1f%%\n",
					t.Topic, t.Count, t.Velocity, t.Share)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "number of topics to show")
	return cmd
}
