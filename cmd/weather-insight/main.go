package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/i474232898/weather-insight/internal/analysis"
	httpapi "github.com/i474232898/weather-insight/internal/api/http"
	"github.com/i474232898/weather-insight/internal/config"
	"github.com/i474232898/weather-insight/internal/metrics"
	"github.com/i474232898/weather-insight/internal/narrator"
	"github.com/i474232898/weather-insight/internal/scheduler"
	"github.com/i474232898/weather-insight/internal/store"
	"github.com/i474232898/weather-insight/internal/weather"
	"github.com/i474232898/weather-insight/internal/weather/sources"
)

func main() {
	// Load configuration (also reads .env).
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	metrics.Init()

	// Outbound clients. Analysis gets its own timeout since it may wait on this
	// process's narrator.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}
	analysisClient := &http.Client{
		Timeout: cfg.AIAnalysisTimeout,
	}

	// Weather log source: Postgres when configured, the JSON feed otherwise.
	var source weather.Source
	if cfg.WeatherDatabaseURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		pool, err := pgxpool.New(ctx, cfg.WeatherDatabaseURL)
		cancel()
		if err != nil {
			log.Fatalf("failed to connect to weather database: %v", err)
		}
		defer pool.Close()
		source = sources.NewPostgresSource(pool)
	} else {
		source = sources.NewHTTPSource(httpClient, cfg.WeatherStoreURL)
	}

	memStore := store.NewMemoryStore()
	service := weather.NewService(memStore, source, weather.WindowConfig{
		TodayOffset: cfg.TodayOffset,
		Calendar:    cfg.WindowCalendarDiff,
	})

	// Analysis sessions talk to the AI endpoint and own the reveals.
	client := analysis.NewClient(analysisClient, cfg.AIAnalysisURL)
	sessions := analysis.NewRegistry(client, cfg.RevealInterval, cfg.SessionTTL)
	defer sessions.Close()

	var narr narrator.Provider
	if cfg.NarratorProvider != "" {
		narr, err = narrator.New(cfg.NarratorProvider, cfg.NarratorAPIKey, cfg.NarratorModel)
		if err != nil {
			log.Fatalf("failed to configure narrator: %v", err)
		}
		log.Printf("INFO: serving /api/ai-analysis with %s narrator", narr.Name())
	}

	sched := scheduler.New(service, sessions, cfg.StoreRefreshInterval, cfg.SessionSweepInterval)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "weather-insight",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          90 * time.Second,
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
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: "GET,POST,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":       "ok",
			"service":      "weather-insight",
			"source":       source.Name(),
			"logLoadedAt":  memStore.LoadedAt(),
			"openSessions": sessions.Len(),
			"narrator":     cfg.NarratorProvider != "",
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	if cfg.StaticDir != "" {
		app.Static("/db", cfg.StaticDir)
	}

	// API routes.
	httpapi.RegisterRoutes(app, httpapi.Deps{
		Weather:        service,
		Sessions:       sessions,
		Narrator:       narr,
		NarrateTimeout: cfg.NarratorTimeout,
		StreamInterval: cfg.RevealInterval,
	})

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()

	// The JSON feed may be served by this process (STATIC_DIR), so load after Listen.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := service.Load(ctx); err != nil {
			log.Printf("ERROR: initial weather log load failed; serving an empty window: %v", err)
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
