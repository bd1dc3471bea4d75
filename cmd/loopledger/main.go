package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"loopledger/internal/auth"
	"loopledger/internal/backup"
	"loopledger/internal/config"
	"loopledger/internal/geocode"
	apphttp "loopledger/internal/http"
	applog "loopledger/internal/log"
	"loopledger/internal/notify"
	"loopledger/internal/services"
	"loopledger/internal/store"
)

func main() {
	// Load .env for local development; absent in production is fine.
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	st, err := store.Open(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to open store", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer st.Close()

	authClient := auth.NewClient(cfg.AuthBaseURL, cfg.AuthAPIKey)
	if authClient.Enabled() {
		logger.Info("Auth service configured", "base_url", cfg.AuthBaseURL)
	} else {
		logger.Info("Auth not configured, running local-only")
	}

	placesClient := geocode.NewClient(cfg.PlacesBaseURL, cfg.PlacesAPIKey)
	if !placesClient.Enabled() {
		logger.Info("Geocoding not configured, address entry is manual")
	}

	hub := notify.NewHub(cfg.ToastRetention)

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Loops:           services.NewLoopService(st, hub),
		Expenses:        services.NewExpenseService(st, hub),
		Income:          services.NewIncomeService(st, hub),
		Settings:        services.NewSettingsService(st, placesClient, hub),
		Backup:          backup.NewEngine(st),
		Auth:            authClient,
		Places:          placesClient,
		Hub:             hub,
		Logger:          logger.WithComponent(applog.ComponentHTTP),
		AuthRedirectTo:  cfg.AuthRedirectTo,
		SummaryCacheTTL: cfg.SummaryCacheTTL,
		SessionCacheTTL: cfg.SessionCacheTTL,
	})
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 0 // SSE connections stay open
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting loopledger server", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
