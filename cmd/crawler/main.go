// Command crawler is the sportscanner CLI.
//
// Usage:
//
//	crawler init
//	crawler crawl --sport badminton
//	crawler crawl --sport all
//	crawler serve
//	crawler schedule
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/sportscanner/app-crawlers/internal/api"
	"github.com/sportscanner/app-crawlers/internal/catalogue"
	"github.com/sportscanner/app-crawlers/internal/config"
	"github.com/sportscanner/app-crawlers/internal/crawler"
	"github.com/sportscanner/app-crawlers/internal/db"
	"github.com/sportscanner/app-crawlers/internal/geo"
	"github.com/sportscanner/app-crawlers/internal/pipeline"
	"github.com/sportscanner/app-crawlers/internal/query"
	"github.com/sportscanner/app-crawlers/internal/scheduler"
	"github.com/sportscanner/app-crawlers/internal/storage"
)

var logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

func main() {
	slog.SetDefault(logger)

	// Load .env if present
	_ = godotenv.Load(".env")

	root := &cobra.Command{
		Use:   "crawler",
		Short: "Sportscanner availability aggregator",
	}

	root.AddCommand(initCmd())
	root.AddCommand(crawlCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(scheduleCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// --------------------------------------------------------------------------
// init command
// --------------------------------------------------------------------------

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create schemas and tables, load the venue catalogue",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPool(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				if err := storage.InitSchema(ctx, pool); err != nil {
					return err
				}
				return reloadCatalogue(ctx, cfg, pool)
			})
		},
	}
}

// --------------------------------------------------------------------------
// crawl command
// --------------------------------------------------------------------------

func crawlCmd() *cobra.Command {
	var sportFlag string
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Run the refresh pipeline for one sport or all",
		RunE: func(cmd *cobra.Command, args []string) error {
			sports, err := selectedSports(sportFlag)
			if err != nil {
				return err
			}
			return withPool(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				if err := storage.InitSchema(ctx, pool); err != nil {
					return err
				}
				if err := reloadCatalogue(ctx, cfg, pool); err != nil {
					return err
				}
				p, err := buildPipeline(cfg, pool)
				if err != nil {
					return err
				}

				start := time.Now()
				results := p.RefreshSports(ctx, sports)
				total := 0
				for _, result := range results {
					logger.Info("Pipeline finished", "summary", result.Summary())
					for _, e := range result.Errors {
						logger.Error("pipeline error", "error", e)
					}
					total += result.SlotsCrawled
				}
				logger.Info("Crawl finished",
					"duration", time.Since(start).Round(time.Second), "total_slots", total)

				// A run with zero slots across every adapter signals a
				// system-wide failure; fail loudly for the orchestrator.
				if total == 0 {
					return fmt.Errorf("pipeline produced zero slots")
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&sportFlag, "sport", "all", "Sport to refresh (badminton, squash, pickleball, all)")
	return cmd
}

// --------------------------------------------------------------------------
// serve command
// --------------------------------------------------------------------------

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the query API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPool(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				cat := catalogue.New(pool, logger)
				repo := storage.New(pool, logger)
				geocoder, err := buildGeocoder(cfg)
				if err != nil {
					return err
				}
				search := query.New(cat, repo, geocoder, logger)
				router := api.NewRouter(pool, cat, search, geocoder, cfg)

				addr := fmt.Sprintf("%s:%d", cfg.APIHost, cfg.APIPort)
				srv := &http.Server{
					Addr:         addr,
					Handler:      router,
					ReadTimeout:  10 * time.Second,
					WriteTimeout: 30 * time.Second,
					IdleTimeout:  60 * time.Second,
				}

				go func() {
					logger.Info("Starting Sportscanner API",
						"addr", addr, "environment", cfg.Environment)
					if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
						logger.Error("Server failed", "error", err)
						os.Exit(1)
					}
				}()

				<-ctx.Done()
				logger.Info("Shutting down...")

				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := srv.Shutdown(shutdownCtx); err != nil {
					logger.Error("Shutdown error", "error", err)
				}
				logger.Info("Server stopped")
				return nil
			})
		},
	}
}

// --------------------------------------------------------------------------
// schedule command
// --------------------------------------------------------------------------

func scheduleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schedule",
		Short: "Run periodic refreshes for every sport",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPool(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				if err := storage.InitSchema(ctx, pool); err != nil {
					return err
				}
				if err := reloadCatalogue(ctx, cfg, pool); err != nil {
					return err
				}
				p, err := buildPipeline(cfg, pool)
				if err != nil {
					return err
				}
				return scheduler.New(p, cfg.RefreshInterval, logger).Run(ctx)
			})
		},
	}
}

// --------------------------------------------------------------------------
// Shared setup
// --------------------------------------------------------------------------

func selectedSports(flag string) ([]config.Sport, error) {
	if flag == "all" {
		return config.AllSports(), nil
	}
	sport, err := config.ParseSport(flag)
	if err != nil {
		return nil, err
	}
	return []config.Sport{sport}, nil
}

func reloadCatalogue(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
	organisations, err := catalogue.LoadMappingFile(cfg.VenueMappingFile)
	if err != nil {
		return err
	}
	return catalogue.New(pool, logger).Reload(ctx, organisations)
}

func buildPipeline(cfg *config.Config, pool *db.Pool) (*pipeline.Pipeline, error) {
	client, err := crawler.NewClient(cfg, logger)
	if err != nil {
		return nil, err
	}
	repo := storage.New(pool, logger)
	registry := pipeline.NewRegistry(repo, logger)
	return pipeline.New(catalogue.New(pool, logger), repo, registry, client, logger), nil
}

func buildGeocoder(cfg *config.Config) (*geo.Geocoder, error) {
	cache, err := geo.NewCache(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("initialise geocode cache: %w", err)
	}
	return geo.NewGeocoder(cache, cfg.GeocodeCacheTTL, logger), nil
}

// withPool handles config loading, DB connection, and context cancellation.
func withPool(fn func(ctx context.Context, cfg *config.Config, pool *db.Pool) error) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	pool, err := db.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	return fn(ctx, cfg, pool)
}
