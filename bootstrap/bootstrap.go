package bootstrap

import (
	"petadopt-backend/internal/config"
	"petadopt-backend/internal/interfaces/router"

	"github.com/gofiber/fiber/v2"
)

// New creates the Fiber app for serverless runtimes (the api handler imports this package, not internal).
func New() (*fiber.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	cfg.SetupLogger()
	app, _, _, err := router.CreateApp(cfg)
	return app, err
}
