package config

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/anonto42/nano-midea/engagement/pkg/logger"
)

// SetupMiddleware installs the global middleware chain.
func SetupMiddleware(e *echo.Echo, l zerolog.Logger) {
	e.Use(middleware.Recover())
	e.Use(logger.EchoMiddleware(l))
	e.Use(middleware.CORS())
	e.Use(middleware.BodyLimit("1M"))
}
