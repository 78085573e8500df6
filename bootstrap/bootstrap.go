package bootstrap

import (
	"fleetdesk-backend/internal/config"
	"fleetdesk-backend/internal/interfaces/router"
	"fleetdesk-backend/internal/pkg/logger"

	"github.com/gofiber/fiber/v2"
)

// New creates the Fiber app for Vercel serverless (api handler imports this package, not internal).
func New() (*fiber.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger.Setup(logger.Options{Level: cfg.LogLevel, Production: cfg.IsProduction()})
	app, _, _, err := router.CreateApp(cfg)
	return app, err
}
