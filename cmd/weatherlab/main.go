package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpapi "github.com/i474232898/weatherlab/internal/api/http"
	"github.com/i474232898/weatherlab/internal/config"
	"github.com/i474232898/weatherlab/internal/observability"
	"github.com/i474232898/weatherlab/internal/scheduler"
	"github.com/i474232898/weatherlab/internal/store"
	"github.com/i474232898/weatherlab/internal/weather"
	"github.com/i474232898/weatherlab/internal/weather/providers"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	slogger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}
	httpCfg := providers.HTTPClientConfig{
		Client:  httpClient,
		Logger:  slogger,
		Metrics: metrics,
	}

	// Open-Meteo providers, each endpoint behind its own circuit breaker.
	geocoder := providers.NewGeocodingProvider(httpCfg, cfg.GeocodingURL, cfg.ReverseGeocodingURL, cfg.GeocoderLanguage)
	forecast := providers.NewForecastProvider(httpCfg, cfg.ForecastURL)
	archive := providers.NewArchiveProvider(httpCfg, cfg.ArchiveURL)

	resolver := weather.NewResolver(geocoder, forecast, archive,
		weather.WithClock(clock),
		weather.WithLogger(slogger),
		weather.WithMetrics(metrics),
	)

	// In-memory store with configured retention.
	memStore := store.NewMemoryStore(cfg.StoreMaxHistory, cfg.StoreMaxAge, clock)

	var defaultQuery weather.LocationQuery
	if cfg.DefaultLocation != "" {
		defaultQuery = weather.CityName(cfg.DefaultLocation)
	} else {
		slogger.Warn("DEFAULT_LOCATION not set; unresolved locations will not fall back")
	}
	tracker := weather.NewTracker(resolver, memStore, defaultQuery, clock, slogger, metrics)

	// Scheduler that periodically refreshes the tracked location.
	sched := scheduler.New(cfg.RefreshInterval, tracker, slogger)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "weatherlab",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          30 * time.Second,
		ErrorHandler:          httpapi.ErrorHandler,
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())

	// Basic health endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "weatherlab",
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// API routes.
	httpapi.RegisterRoutes(app, httpapi.Services{
		Resolver: resolver,
		Tracker:  tracker,
		Records:  memStore,
		Logger:   slogger,
	})

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			slogger.Error("fiber server stopped", "error", err)
		}
	}()
	slogger.Info("weatherlab started", "port", cfg.Port, "refresh_interval", cfg.RefreshInterval)

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slogger.Error("error during shutdown", "error", err)
	}
}
