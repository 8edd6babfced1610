// handlers/routes.go
package handlers

import (
	"github.com/gofiber/fiber/v2"

	"lytic-game-system/middleware"
	"lytic-game-system/services"
)

type RouteOptions struct {
	Production bool
	// JWTSecret enables player identity from Supabase access tokens.
	JWTSecret string
	// DisableRateLimits is for tests that replay many requests.
	DisableRateLimits bool
}

func SetupRoutes(app *fiber.App, results *services.GameResultService, config *services.ConfigService,
	health *services.HealthService, opts RouteOptions) {

	limit := func(h fiber.Handler) fiber.Handler {
		if opts.DisableRateLimits {
			return func(c *fiber.Ctx) error { return c.Next() }
		}
		return h
	}

	api := app.Group("/api")

	// 🔓 Public, read-only
	api.Get("/health", health.GetHealth)
	api.Get("/config", limit(middleware.ConfigRateLimit(opts.Production)), config.GetConfig)
	api.Get("/stats", limit(middleware.ReadRateLimit(opts.Production)), results.GetStats)
	api.Get("/leaderboard", limit(middleware.ReadRateLimit(opts.Production)), results.GetLeaderboard)

	// 💾 Saving; player identity attached when tokens can be verified
	player := func(c *fiber.Ctx) error { return c.Next() }
	if opts.JWTSecret != "" {
		player = middleware.PlayerContextMiddleware(opts.JWTSecret)
	}
	saveLimit := limit(middleware.SaveRateLimit())
	api.Post("/save-game", saveLimit, player, results.SaveGame)
	api.Post("/save-abandoned-game", saveLimit, player, results.SaveAbandonedGame)
	api.Post("/sync-backup-games", saveLimit, player, results.SyncBackupGames)

	api.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":  "API endpoint not found",
			"path":   c.Path(),
			"method": c.Method(),
		})
	})
}
