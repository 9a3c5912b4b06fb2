package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wolfman30/clinic-agenda/internal/agenda"
	"github.com/wolfman30/clinic-agenda/internal/api/router"
	"github.com/wolfman30/clinic-agenda/internal/app/bootstrap"
	appconfig "github.com/wolfman30/clinic-agenda/internal/config"
	"github.com/wolfman30/clinic-agenda/internal/observability/metrics"
	"github.com/wolfman30/clinic-agenda/internal/settings"
	"github.com/wolfman30/clinic-agenda/pkg/logging"
)

func main() {
	dotenvErr := appconfig.LoadDotEnv()

	// Load configuration
	cfg := appconfig.Load()

	// Initialize logger
	logger := logging.New(cfg.LogLevel)
	if dotenvErr != nil {
		logger.Warn("failed to load .env file", "error", dotenvErr)
	}
	logger.Info("starting clinic-agenda API server",
		"env", cfg.Env,
		"port", cfg.Port,
		"settings_backend", cfg.SettingsBackend,
	)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	backend, err := bootstrap.BuildSettingsBackend(ctx, cfg, logger)
	cancel()
	if err != nil {
		logger.Error("failed to initialize settings backend", "error", err)
		os.Exit(1)
	}
	defer backend.Close()

	handler, err := buildHandler(cfg, backend, logger, prometheus.NewRegistry())
	if err != nil {
		logger.Error("failed to build HTTP handler", "error", err)
		os.Exit(1)
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// setupMetrics registers the agenda collectors plus Go and process
// collectors on reg and returns the /metrics handler.
func setupMetrics(reg *prometheus.Registry) (http.Handler, *metrics.AgendaMetrics) {
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	agendaMetrics := metrics.NewAgendaMetrics(reg)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}), agendaMetrics
}

// buildHandler wires the cache, service, handlers and router over backend.
func buildHandler(cfg *appconfig.Config, backend *bootstrap.SettingsBackend, logger *logging.Logger, reg *prometheus.Registry) (http.Handler, error) {
	if backend == nil || backend.Source == nil {
		return nil, errors.New("api: settings backend is required")
	}
	loc, err := time.LoadLocation(cfg.ClinicTimezone)
	if err != nil {
		return nil, fmt.Errorf("api: load clinic timezone: %w", err)
	}

	metricsHandler, agendaMetrics := setupMetrics(reg)

	cache := agenda.NewCache(backend.Source,
		agenda.WithLogger(logger),
		agenda.WithMetrics(agendaMetrics),
	)
	service := agenda.NewService(cache, loc, agenda.WithActiveDayGating(cfg.EnforceActiveDays))

	routerCfg := &router.Config{
		Logger:             logger,
		AgendaHandler:      agenda.NewHandler(service, cache, logger),
		MetricsHandler:     metricsHandler,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimitRPS:       cfg.RateLimitRPS,
		RateLimitBurst:     cfg.RateLimitBurst,
		Readiness:          backend.Ping,
	}
	// Serving the settings API on top of the remote API would only proxy it.
	if cfg.ServeSettingsAPI && cfg.SettingsBackend != appconfig.BackendHTTP {
		routerCfg.SettingsHandler = settings.NewHandler(backend.Source, logger)
		logger.Info("serving clinic-settings API", "backend", backend.Name)
	}
	return router.New(routerCfg), nil
}
