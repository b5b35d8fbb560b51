package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	internalconfig "frameworks/api_reaper/internal/config"
	"frameworks/api_reaper/internal/events"
	"frameworks/api_reaper/internal/evidence"
	"frameworks/api_reaper/internal/plex"
	"frameworks/api_reaper/internal/reaper"
	"frameworks/api_reaper/pkg/logging"
	"frameworks/api_reaper/pkg/monitoring"
	"frameworks/api_reaper/pkg/server"
	"frameworks/api_reaper/pkg/version"
)

func main() {
	// Setup structured logger
	logger := logging.NewLoggerWithService("boatswain")

	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		logger.Debug("No .env file found, using environment variables")
	}

	logger.Info("Starting Boatswain (Live Session Reaper)")

	cfg := internalconfig.Load()
	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("Invalid configuration")
	}

	// Setup monitoring
	healthChecker := monitoring.NewHealthChecker("boatswain", version.Version)
	metricsCollector := monitoring.NewMetricsCollector("boatswain", version.Version, version.GitCommit)

	healthChecker.AddCheck("plex", monitoring.HTTPServiceHealthCheck("Plex", cfg.PlexURL+"/identity"))
	healthChecker.AddCheck("config", monitoring.ConfigurationHealthCheck(map[string]string{
		"PLEX_URL":   cfg.PlexURL,
		"PLEX_TOKEN": cfg.PlexToken,
	}))

	plexClient := plex.NewClient(cfg.PlexURL, cfg.PlexToken, logger)
	reaperMetrics := reaper.NewMetrics(metricsCollector)

	var source evidence.Source
	if cfg.LogCommand != "" {
		source = evidence.NewCommandSource(cfg.LogCommand, logger)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var feed reaper.EventFeed
	if cfg.UseEventStream {
		listener := events.NewListener(plexClient.OpenEventStream, logger, func() {
			reaperMetrics.Reconnects.WithLabelValues().Inc()
		})
		healthChecker.AddCheck("event_stream", monitoring.EventStreamHealthCheck(listener.Connected))
		go listener.Run(ctx)
		feed = listener
	}

	r := reaper.New(cfg, plexClient, source, feed, logger, reaperMetrics)

	go func() {
		r.Run(ctx)
		logger.Info("Reaper finished")
	}()

	logger.WithFields(logging.Fields{
		"poll_interval": cfg.PollInterval.String(),
		"idle_timeout":  cfg.IdleTimeout.String(),
		"renew_lease":   cfg.RenewLease.String(),
		"hard_lease":    cfg.HardLease.String(),
		"dry_run":       cfg.DryRun,
		"event_stream":  cfg.UseEventStream,
	}).Info("Reaper loop started")

	// Setup router with unified monitoring
	router := server.SetupServiceRouter(logger, "boatswain", healthChecker, metricsCollector)
	r.RegisterRoutes(router)

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-quit
		logger.WithField("signal", sig.String()).Info("Shutdown signal received")
		cancel()
	}()

	serverConfig := server.DefaultConfig("boatswain", "18032")
	if err := server.Start(serverConfig, router, logger); err != nil {
		logger.WithError(err).Fatal("Server failed")
	}
}
