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

	"golang.org/x/sync/errgroup"

	"github.com/hoanghai1803/faves/internal/api"
	"github.com/hoanghai1803/faves/internal/auth"
	"github.com/hoanghai1803/faves/internal/config"
	"github.com/hoanghai1803/faves/internal/feeds"
	"github.com/hoanghai1803/faves/internal/storage"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "config.toml", "path to config file")
	envFile := flag.String("env-file", ".env", "path to optional .env file")
	flag.Parse()

	if err := run(*configPath, *envFile); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath, envFile string) error {
	if err := config.LoadEnvFile(envFile); err != nil {
		return err
	}

	// Load configuration (auto-creates default if missing).
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	slog.SetDefault(newLogger(cfg.Server))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := storage.Open(cfg.Database.Driver, cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	if err := storage.RunMigrations(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	// Create store and seed the starter articles.
	store, err := storage.NewStore(db)
	if err != nil {
		return fmt.Errorf("creating store: %w", err)
	}
	if err := store.SeedDefaults(ctx); err != nil {
		return fmt.Errorf("seeding defaults: %w", err)
	}

	lim, closeLimiter, err := api.NewLimiter(ctx, cfg.RateLimit)
	if err != nil {
		return fmt.Errorf("creating rate limiter: %w", err)
	}
	defer closeLimiter()

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL())
	router, err := api.NewRouter(store, tokens, lim, cfg)
	if err != nil {
		return fmt.Errorf("building router: %w", err)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	importer := feeds.NewImporter(
		feeds.NewFetcher(cfg.Feeds.MaxArticlesPerFeed),
		store,
		cfg.Feeds.URLs,
	)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("starting server", "addr", srv.Addr, "driver", cfg.Database.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listening: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return importer.Run(ctx, cfg.Feeds.RefreshInterval())
	})

	g.Go(func() error {
		<-ctx.Done()
		slog.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// newLogger builds the process logger from the server settings.
func newLogger(cfg config.ServerConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
