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

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wolfman30/schedule-availability/cmd/mainconfig"
	"github.com/wolfman30/schedule-availability/internal/api/router"
	appconfig "github.com/wolfman30/schedule-availability/internal/config"
	"github.com/wolfman30/schedule-availability/internal/http/handlers"
	httpmiddleware "github.com/wolfman30/schedule-availability/internal/http/middleware"
	"github.com/wolfman30/schedule-availability/internal/observability/metrics"
	"github.com/wolfman30/schedule-availability/internal/schedule"
	"github.com/wolfman30/schedule-availability/pkg/logging"
)

func main() {
	// A missing .env is fine outside local development.
	_ = godotenv.Load()
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting schedule availability API server",
		"env", cfg.Env,
		"port", cfg.Port,
		"source_url", cfg.SourceURL,
		"auto_fetch", cfg.AutoFetch,
	)

	metricsHandler, scheduleMetrics := setupScheduleMetrics()

	startCtx, cancelStart := context.WithTimeout(context.Background(), cfg.FetchTimeout+5*time.Second)
	fetcher, err := mainconfig.NewFetcher(startCtx, cfg, logger, scheduleMetrics)
	if err != nil {
		cancelStart()
		logger.Error("failed to set up schedule source", "error", err)
		os.Exit(1)
	}
	defer fetcher.Close()

	srv, limiter, err := newServer(startCtx, cfg, logger, fetcher, metricsHandler, scheduleMetrics)
	cancelStart()
	if err != nil {
		logger.Error("failed to initialise schedule", "error", err)
		os.Exit(1)
	}
	defer limiter.Close()

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

func setupScheduleMetrics() (http.Handler, *metrics.ScheduleMetrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), metrics.NewScheduleMetrics(reg)
}

// newServer builds the schedule model and the HTTP server around it. With
// auto-fetch on, the snapshot is loaded here and a failing source aborts
// startup; otherwise the first schedule request loads it.
func newServer(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, fetcher schedule.Fetcher, metricsHandler http.Handler, m *metrics.ScheduleMetrics) (*http.Server, *httpmiddleware.RateLimiter, error) {
	model, err := schedule.New(ctx, cfg.SourceURL, cfg.AutoFetch, fetcher)
	if err != nil {
		return nil, nil, err
	}
	if model.Loaded() {
		days, _ := model.Days(nil)
		busy, _ := model.Busy(nil)
		logger.Info("schedule loaded", "source_url", model.SourceURL(), "days", len(days), "timeslots", len(busy))
	}

	limiter := httpmiddleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	handler := router.New(&router.Config{
		Logger:             logger,
		Schedule:           handlers.NewScheduleHandler(model, logger, m),
		MetricsHandler:     metricsHandler,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimiter:        limiter,
	})

	return &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.FetchTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}, limiter, nil
}
