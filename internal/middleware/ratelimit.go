package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/zippicks/critic-backend/internal/cache"
	"github.com/zippicks/critic-backend/internal/dto"
)

// RateLimitGroup is the cache group holding limiter counters.
const RateLimitGroup = "ratelimit"

// RateLimit allows max requests per window per client IP. Counters live in c,
// so a database-backed cache shares them across instances.
func RateLimit(c cache.Cache, max int, window time.Duration) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:               max,
		Expiration:        window,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return "ip:" + c.IP() },
		Storage:           cache.NewFiberStorage(c, RateLimitGroup),
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(dto.ErrorResponse{
				Error: true, Message: "Too many requests",
			})
		},
	})
}
