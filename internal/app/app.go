// Package app assembles the fiber application for the admin API
package app

import (
	"github.com/gofiber/fiber/v2"

	"github.com/betslib/feedsync/internal/api/v1/handlers"
	"github.com/betslib/feedsync/internal/api/v1/middleware"
	"github.com/betslib/feedsync/internal/api/v1/routes"
	"github.com/betslib/feedsync/internal/config"
)

// NewApp builds the fiber app with middleware and routes registered
func NewApp(
	rateLimitCfg config.RateLimitConfig,
	jobHandler *handlers.JobHandler,
	integrationHandler *handlers.IntegrationHandler,
) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: errorHandler,
	})

	app.Use(middleware.Logger())
	app.Use(middleware.RateLimit(middleware.NewRateLimiter(rateLimitCfg)))

	routes.RegisterRoutes(app, jobHandler, integrationHandler)

	return app
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
	})
}
