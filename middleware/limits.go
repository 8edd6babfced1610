// middleware/limits.go
package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"lytic-game-system/utils"
)

// RateLimit allows limit requests per window per client IP.
func RateLimit(name string, limit int, window time.Duration) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        limit,
		Expiration: window,
		KeyGenerator: func(c *fiber.Ctx) string {
			return name + ":" + c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			utils.Log.Warnw("🚦 Rate limit exceeded", "limiter", name, "ip", c.IP(), "path", c.Path())
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":   "Too many requests",
				"message": "Rate limit exceeded",
			})
		},
	})
}

// SaveRateLimit guards the save endpoints: 30 per minute.
func SaveRateLimit() fiber.Handler {
	return RateLimit("save", 30, time.Minute)
}

// ConfigRateLimit guards /api/config: 5 (production) or 10 per 15 minutes.
func ConfigRateLimit(production bool) fiber.Handler {
	if production {
		return RateLimit("config", 5, 15*time.Minute)
	}
	return RateLimit("config", 10, 15*time.Minute)
}

// ReadRateLimit guards stats and leaderboard: 50 (production) or 100 per 15 minutes.
func ReadRateLimit(production bool) fiber.Handler {
	if production {
		return RateLimit("read", 50, 15*time.Minute)
	}
	return RateLimit("read", 100, 15*time.Minute)
}

// SecurityHeaders sets the usual hardening headers.
func SecurityHeaders() fiber.Handler {
	return helmet.New(helmet.Config{
		CrossOriginEmbedderPolicy: "unsafe-none",
	})
}
