package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/zippicks/critic-backend/internal/apps"
	"github.com/zippicks/critic-backend/internal/cache"
	"github.com/zippicks/critic-backend/internal/config"
	"github.com/zippicks/critic-backend/internal/handlers"
	"github.com/zippicks/critic-backend/internal/metrics"
	"github.com/zippicks/critic-backend/internal/middleware"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	c cache.Cache,
	healthHandler *handlers.HealthHandler,
	m *metrics.Metrics,
	plugins []apps.Plugin,
) {
	// Prometheus scrape endpoint, outside the rate limiter
	app.Get("/metrics", adaptor.HTTPHandler(m.Handler()))

	api := app.Group("/api")

	// Health is not rate limited
	api.Get("/health", healthHandler.Check)

	// Per-IP limiter; counters live in the shared cache
	api.Use(middleware.RateLimit(c, cfg.RateLimitMax, cfg.RateLimitWindow))

	// Admin (JWT or admin token)
	admin := api.Group("/admin", middleware.JWTOptional(cfg), middleware.AdminRequired(cfg))

	for _, p := range plugins {
		p.RegisterRoutes(api)
		if ap, ok := p.(apps.AdminPlugin); ok {
			ap.RegisterAdminRoutes(admin)
		}
	}
}
