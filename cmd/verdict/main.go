package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/NorthLot-Market/Verdict/internal/api"
	"github.com/NorthLot-Market/Verdict/internal/config"
	"github.com/NorthLot-Market/Verdict/internal/engine"
	"github.com/NorthLot-Market/Verdict/internal/events"
	"github.com/NorthLot-Market/Verdict/internal/market"
	"github.com/NorthLot-Market/Verdict/internal/store"
	"github.com/NorthLot-Market/Verdict/internal/sweeper"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	db, err := store.NewPostgresStore(ctx, cfg.Database.URL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	logger.Info("connected to database")

	// Events (optional)
	var eventsClient events.Client = events.NoopClient{}
	if cfg.Events.URL != "" {
		ec, err := events.NewNATSClient(ctx, cfg.Events.URL, logger)
		if err != nil {
			logger.Warn("failed to connect to event bus, running without events", "error", err)
		} else {
			eventsClient = ec
			defer ec.Close()
			logger.Info("connected to event bus")
		}
	}

	// Market data
	marketClient := market.NewHTTPClient(cfg.Market.URL, cfg.Market.Token)

	// Scoring engine
	profiles, err := engine.ProfilesWithOverrides(cfg.Scoring.WeightOverrides)
	if err != nil {
		logger.Error("invalid weight overrides", "error", err)
		os.Exit(1)
	}
	engCfg := engine.Config{
		MaterialityFloor:       cfg.Scoring.MaterialityFloor,
		TopContributors:        cfg.Scoring.TopContributors,
		DuplicateFlagThreshold: cfg.Scoring.DuplicateFlagThreshold,
	}
	eng, err := engine.New(profiles, engCfg, engine.SystemClock(), logger)
	if err != nil {
		logger.Error("failed to build scoring engine", "error", err)
		os.Exit(1)
	}
	estimator := engine.NewEstimator(rand.NewSource(time.Now().UnixNano()))

	// Sweeper
	sw := sweeper.New(db, eventsClient, cfg.TickInterval(), cfg.ReviewWindow(), logger)
	sw.Start(ctx)
	defer sw.Stop()
	logger.Info("sweeper started", "tick_interval", cfg.TickInterval(), "review_window", cfg.ReviewWindow())

	// API server
	router := api.NewRouter(db, eventsClient, marketClient, eng, estimator, cfg.Server.AdminToken, cfg.Server.RateLimit, logger)
	apiServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Metrics server
	metricsRouter := api.NewMetricsRouter()
	metricsServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.MetricsPort),
		Handler: metricsRouter,
	}

	go func() {
		logger.Info("API server starting", "port", cfg.Server.Port)
		if err := apiServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("API server error", "error", err)
		}
	}()

	go func() {
		logger.Info("metrics server starting", "port", cfg.Server.MetricsPort)
		if err := metricsServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("metrics server error", "error", err)
		}
	}()

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = apiServer.Shutdown(shutdownCtx)
	_ = metricsServer.Shutdown(shutdownCtx)

	logger.Info("shutdown complete")
}
