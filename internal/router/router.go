// Package router defines how HTTP routes are registered for the API.
package router

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/simple-chat-api/internal/config"
	"github.com/iliyamo/simple-chat-api/internal/handler"
	"github.com/iliyamo/simple-chat-api/internal/middleware"
	"github.com/iliyamo/simple-chat-api/internal/telemetry"
)

// Deps are the collaborators New wires into the Echo instance.  Only
// Handler is required; Redis and Telemetry may be nil.
type Deps struct {
	Logger    *slog.Logger
	Handler   *handler.Handler
	Cache     config.CacheConfig
	Redis     *redis.Client
	Telemetry *telemetry.Telemetry
}

// New builds an Echo instance with middleware and all routes registered.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handler.ErrorHandler(d.Handler.Logger)

	logger := d.Logger
	if logger == nil {
		logger = d.Handler.Logger
	}
	tel := d.Telemetry
	if tel == nil {
		tel = d.Handler.Telemetry
	}

	// Middleware run in registration order: logging sees the final status,
	// tracing wraps recovery so panics are recorded on the span.
	e.Use(middleware.RequestLogger(logger))
	e.Use(middleware.Tracing(tel))
	e.Use(echomw.RecoverWithConfig(echomw.RecoverConfig{
		DisablePrintStack:   true,
		DisableErrorHandler: true,
	}))

	RegisterRoutes(e, d.Handler, middleware.ResponseCache(d.Cache, d.Redis, logger))
	return e
}

// RegisterRoutes maps the three public endpoints.  Only the welcome route
// goes through the cache; /health must answer without touching Redis.
func RegisterRoutes(e *echo.Echo, h *handler.Handler, cache echo.MiddlewareFunc) {
	e.GET("/", h.Root, cache)
	e.GET("/health", h.Health)
	e.POST("/chat", h.Chat)
}
