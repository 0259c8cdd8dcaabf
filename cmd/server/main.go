package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/zippicks/critic-backend/internal/apps"
	"github.com/zippicks/critic-backend/internal/cache"
	"github.com/zippicks/critic-backend/internal/config"
	"github.com/zippicks/critic-backend/internal/database"
	"github.com/zippicks/critic-backend/internal/handlers"
	"github.com/zippicks/critic-backend/internal/lists"
	"github.com/zippicks/critic-backend/internal/logging"
	"github.com/zippicks/critic-backend/internal/metrics"
	"github.com/zippicks/critic-backend/internal/middleware"
	"github.com/zippicks/critic-backend/internal/routes"
	"github.com/zippicks/critic-backend/internal/tables"
	"gorm.io/gorm"
)

func main() {
	cfg := config.Load()

	// Structured logging (JSON to stdout) until the sinks are up
	level := logging.ParseLevel(cfg.LogLevel)
	logging.Setup(level)

	if cfg.DBDriver != "sqlite" && cfg.DBPassword == "" {
		slog.Error("DB_PASSWORD environment variable is required")
		os.Exit(1)
	}
	if !cfg.AdminConfigured() {
		slog.Warn("no admin credentials configured; admin routes will refuse every request")
	}

	// Table names
	registry, err := loadTables(cfg)
	if err != nil {
		slog.Error("failed to load table registry", "path", cfg.TablesConfigPath, "error", err)
		os.Exit(1)
	}
	slog.Info("table registry loaded", "prefix", registry.Prefix(), "tables", len(registry.All()))

	// Database
	db, err := database.Open(cfg)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if err := database.MigrateShared(db, registry); err != nil {
		slog.Error("shared migration failed", "error", err)
		os.Exit(1)
	}

	// Log sinks
	fileSink := logging.NewFileSink(cfg.LogFile, cfg.LogMaxSizeMB, cfg.LogMaxBackups, level)
	logsTable := registry.MustName(tables.Logs)
	dbLogHandler := logging.NewDBHandler(db, logsTable, logging.ParseLevel(cfg.LogDBLevel))
	slog.SetDefault(slog.New(logging.NewMultiHandler(
		logging.NewJSONHandler(os.Stdout, level),
		fileSink.Handler(),
		dbLogHandler,
	)))
	logger := logging.New(slog.Default())

	cleanupDone := make(chan struct{})
	logging.StartCleanup(db, logsTable, cfg.LogRetentionDays, cleanupDone)

	// Metrics
	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(promRegistry)

	// Cache
	store, purge := newCacheStore(cfg, db, registry)
	c := cache.New(store,
		cache.WithPrefix("zippicks"),
		cache.WithDefaultTTL(cfg.CacheTTL),
		cache.WithLogger(logger),
		cache.WithMetrics(m),
	)
	purgeDone := make(chan struct{})
	go purgeLoop(purge, purgeDone)
	slog.Info("cache ready", "backend", cfg.CacheBackend, "ttl", cfg.CacheTTL.String())

	// Plugins
	listService := lists.NewService(db, registry, c, logger, m, cfg.CacheTTL)
	renderer := lists.NewRenderer(listService, cfg.SiteURL, logger, m)
	plugins := []apps.Plugin{
		lists.New(listService, renderer, cfg.SiteURL),
	}

	pluginIDs := make([]string, 0, len(plugins))
	for _, p := range plugins {
		pluginIDs = append(pluginIDs, p.ID())
		if models := p.Models(); len(models) > 0 {
			if err := database.MigrateModels(db, registry, models); err != nil {
				slog.Error("plugin migration failed", "plugin", p.ID(), "error", err)
				os.Exit(1)
			}
			slog.Info("plugin migrated", "plugin", p.ID(), "models", len(models))
		}
	}

	healthHandler := handlers.NewHealthHandler(db, pluginIDs)

	// Sentry error tracking
	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              dsn,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      os.Getenv("APP_ENV"),
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit:    4 * 1024 * 1024,
		ErrorHandler: customErrorHandler,
	})

	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path}\n",
	}))
	app.Use(middleware.CORS(cfg))
	app.Use(middleware.SecurityHeaders())

	routes.Setup(app, cfg, c, healthHandler, m, plugins)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	close(cleanupDone)
	close(purgeDone)

	if err := app.Shutdown(); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	dbLogHandler.Stop()
	sentry.Flush(2 * time.Second)
	if err := fileSink.Close(); err != nil {
		slog.Error("log file close error", "error", err)
	}

	if err := database.Close(db); err != nil {
		slog.Error("database close error", "error", err)
	}

	slog.Info("server stopped")
}

func loadTables(cfg *config.Config) (*tables.Registry, error) {
	if cfg.TablesConfigPath != "" {
		return tables.LoadFromFile(cfg.TablesConfigPath, cfg.TablePrefix)
	}
	return tables.NewRegistry(cfg.TablePrefix)
}

type purger func(ctx context.Context) (int64, error)

func newCacheStore(cfg *config.Config, db *gorm.DB, registry *tables.Registry) (cache.Store, purger) {
	if cfg.CacheBackend == "db" {
		store := cache.NewDBStore(db, registry.MustName(tables.Transients))
		return store, store.Purge
	}
	if cfg.CacheBackend != "memory" {
		slog.Warn("unknown cache backend, using memory", "backend", cfg.CacheBackend)
	}
	store := cache.NewMemoryStore()
	return store, store.Purge
}

// purgeLoop drops expired cache entries every ten minutes.
func purgeLoop(purge purger, done chan struct{}) {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			n, err := purge(context.Background())
			if err != nil {
				slog.Warn("cache purge failed", "error", err)
				continue
			}
			if n > 0 {
				slog.Debug("cache purged", "entries", n)
			}
		case <-done:
			return
		}
	}
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	// Only expose error details for client errors (4xx), not server errors (5xx)
	if code >= 500 {
		slog.Error("unhandled server error",
			"method", c.Method(),
			"path", c.Path(),
			"request_id", c.GetRespHeader(fiber.HeaderXRequestID),
			"error", err.Error(),
		)
		message = "Internal server error"
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}
