package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/zivkovicn/vestnik/internal/middleware"
)

// SetupRoutes configures all the routes for the application
func SetupRoutes(app *fiber.App, handlers *Handlers) {
	cfg := handlers.config

	app.Use(recover.New())
	app.Use(middleware.RequestLogger())

	api := app.Group("/api/v1")

	api.Get("/health", handlers.HealthCheck)

	// Ingestion trigger, hit by the scheduler.
	api.Get("/ingest", middleware.IngestAuth(cfg.IngestToken), handlers.Ingest)
	api.Post("/ingest", middleware.IngestAuth(cfg.IngestToken), handlers.Ingest)

	// Public read endpoints.
	news := api.Group("/news")
	{
		news.Get("", handlers.ListNews)
		news.Get("/:slug", handlers.GetNewsBySlug)
	}

	// Admin batch jobs and curation.
	admin := api.Group("/admin", middleware.AdminOnly(cfg.AdminAPIKey))
	{
		admin.Post("/reclassify", handlers.Reclassify)
		admin.Post("/covers/backfill", handlers.BackfillCovers)
		admin.Delete("/news/:id", handlers.DeleteNews)
	}

	// 404 Handler
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Endpoint not found",
		})
	})
}
