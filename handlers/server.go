// handlers/server.go
package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"lytic-game-system/middleware"
	"lytic-game-system/services"
	"lytic-game-system/utils"
)

type ServerOptions struct {
	RouteOptions
	// AllowedOrigins is a comma-separated CORS allow list.
	AllowedOrigins string
}

// NewServer builds the fiber app with global middleware and every API route.
func NewServer(results *services.GameResultService, config *services.ConfigService,
	health *services.HealthService, opts ServerOptions) *fiber.App {

	app := fiber.New(fiber.Config{
		AppName:   "lytic-game-results",
		BodyLimit: 1 * 1024 * 1024, // 1MB
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			msg := "Internal server error"
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
				msg = e.Message
			} else if !opts.Production {
				msg = err.Error()
			}
			utils.Log.Errorw("❌ Server error", "path", c.Path(), "error", err)
			return c.Status(code).JSON(fiber.Map{"error": msg})
		},
	})

	app.Use(recover.New())
	app.Use(middleware.SecurityHeaders())

	origins := opts.AllowedOrigins
	if origins == "" {
		utils.Log.Warn("⚠️  ALLOWED_ORIGINS not set, using default: http://localhost:3000")
		origins = "http://localhost:3000"
	}
	list := strings.Split(origins, ",")
	for i, o := range list {
		list[i] = strings.TrimSpace(o)
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(list, ","),
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, apikey, Prefer",
		MaxAge:       86400,
	}))

	SetupRoutes(app, results, config, health, opts.RouteOptions)
	return app
}
