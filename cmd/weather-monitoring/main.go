package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	_ "modernc.org/sqlite"

	httpapi "github.com/devanshc/weather-monitoring/internal/api/http"
	"github.com/devanshc/weather-monitoring/internal/config"
	"github.com/devanshc/weather-monitoring/internal/notify"
	"github.com/devanshc/weather-monitoring/internal/scheduler"
	"github.com/devanshc/weather-monitoring/internal/store"
	"github.com/devanshc/weather-monitoring/internal/weather"
	"github.com/devanshc/weather-monitoring/internal/weather/providers"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Storage: sqlite by default, in-memory when DB_PATH is empty.
	var (
		observations weather.ObservationStore
		thresholds   weather.ThresholdStore
		summaries    weather.SummaryStore
		alerts       weather.AlertStore
	)
	if cfg.DBPath != "" {
		db, err := sql.Open("sqlite", cfg.DBPath)
		if err != nil {
			log.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		sqlStore := store.NewSQL(db)
		if err := sqlStore.Migrate(); err != nil {
			log.Fatalf("failed to migrate database: %v", err)
		}
		observations = sqlStore.Observations
		thresholds = sqlStore.Thresholds
		summaries = sqlStore.Summaries
		alerts = sqlStore.Alerts
	} else {
		log.Println("main: DB_PATH empty, using in-memory store")
		mem := store.NewMemory()
		observations = mem.Observations
		thresholds = mem.Thresholds
		summaries = mem.Summaries
		alerts = mem.Alerts
	}

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	source := providers.NewOpenWeatherSource(httpClient, cfg.OpenWeatherAPIKey)
	notifier := notify.NewEmailNotifier(cfg.SMTP)

	evaluator := weather.NewAlertEvaluator(thresholds, alerts, notifier)
	pipeline := weather.NewIngestionPipeline(source, observations, evaluator, cfg.Cities, cfg.FetchTimeout)
	aggregator := weather.NewSummaryAggregator(observations, summaries, cfg.Cities)

	// Scheduler driving periodic ingestion and the nightly summary job.
	sched := scheduler.New(cfg.FetchInterval, pipeline, aggregator)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "weather-monitoring",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          60 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())

	// Basic health endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "weather-monitoring",
		})
	})

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// API routes.
	httpapi.RegisterRoutes(app, httpapi.Handlers{
		Pipeline:     pipeline,
		Aggregator:   aggregator,
		Evaluator:    evaluator,
		Observations: observations,
		Thresholds:   thresholds,
		Summaries:    summaries,
		Alerts:       alerts,
	})

	// Start server with graceful shutdown
	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}
