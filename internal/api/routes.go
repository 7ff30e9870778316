package api

import (
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/kaleidonews/kaleido/internal/feed"
	"github.com/kaleidonews/kaleido/internal/middleware"
	"github.com/kaleidonews/kaleido/internal/models"
)

// SetupRoutes configures all routes for the application.
func SetupRoutes(app *fiber.App, orchestrator *feed.Orchestrator, sources []models.Source, adminAPIKey string) {
	handlers := NewHandlers(orchestrator, sources)

	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} ${method} ${path} - ${status} - ${latency}\n",
	}))

	v1 := app.Group("/api/v1")

	v1.Get("/health", handlers.HealthCheck)
	v1.Get("/sources", handlers.GetSources)
	v1.Get("/feed", handlers.GetFeed)

	stats := v1.Group("/analytics")
	{
		stats.Get("/trending", handlers.GetTrending)
		stats.Get("/hourly", handlers.GetHourly)
		stats.Get("/matrix", handlers.GetMatrix)
		stats.Get("/chart", handlers.GetChart)
		stats.Get("/narrative", handlers.GetNarrative)
	}

	admin := v1.Group("/admin", middleware.APIKey(adminAPIKey))
	{
		admin.Post("/refresh", handlers.Refresh)
		admin.Delete("/cache/:id", handlers.ClearSourceCache)
		admin.Post("/proxies/reset", handlers.ResetProxyHealth)
	}

	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Endpoint not found",
		})
	})
}
