// cmd/service/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"chapter-ingest/internal/api"
	"chapter-ingest/internal/config"
	"chapter-ingest/internal/database"
	"chapter-ingest/internal/github"
	"chapter-ingest/internal/projects"
	"chapter-ingest/internal/tweets"
	"chapter-ingest/internal/twitter"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Application startup error", "error", err)
		os.Exit(1)
	}
}

func run() error {
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
	logger.Info("Configuration loaded successfully")

	// 3. Setup context for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// 4. Initialize database connection and run migrations
	dbpool, err := pgxpool.New(ctx, cfg.DBURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer dbpool.Close()
	logger.Info("Database connection established")

	if err := database.RunMigrations(cfg.DBURL); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}
	logger.Info("Database migrations applied successfully")

	// 5. Initialize application components
	store := database.NewStore(dbpool)

	ghClient, err := github.NewClient(cfg.GithubToken, cfg.GithubAPIURL, cfg.ContributorConcurrency, logger)
	if err != nil {
		return fmt.Errorf("failed to create github client: %w", err)
	}
	xClient := twitter.NewClient(cfg.TwitterBearerToken, cfg.TwitterAPIURL, cfg.TwitterUserID, cfg.TwitterUsername, logger)

	publisher := projects.NewPublisher(store, logger)
	tweetService := tweets.NewService(store, xClient, logger, tweets.Options{
		Cooldown:      cfg.TweetCooldown,
		FetchAllCount: cfg.TweetFetchAllCount,
		MarkerName:    cfg.FetchMarkerName,
	}, time.Now)

	// 6. Start the tweet auto-fetcher when enabled
	if cfg.TweetAutoFetchInterval > 0 {
		go tweets.NewSyncer(tweetService, logger, cfg.TweetAutoFetchInterval).Start(ctx)
	}

	// 7. Serve the HTTP API
	facade := api.New(ghClient, publisher, tweetService, logger, api.WithDefaultOrg(cfg.GithubOrg))
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.NewRouter(facade, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// 8. Wait for shutdown signal
	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
	case <-ctx.Done():
		logger.Info("Shutdown signal received. Exiting.")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down http server: %w", err)
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
