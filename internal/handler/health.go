package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/simple-chat-api/internal/config"
)

// RootResponse is the welcome payload served at GET /.
type RootResponse struct {
	Message string `json:"message"`
}

// HealthResponse is the payload served at GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// Root returns the static welcome message.
func (h *Handler) Root(c echo.Context) error {
	h.Logger.Info("Root endpoint accessed")
	return c.JSON(http.StatusOK, RootResponse{Message: "Welcome to " + config.ServiceName})
}

// Health is used by load balancers and monitoring systems to verify that
// the service is running.  It never depends on optional backends.
func (h *Handler) Health(c echo.Context) error {
	h.Logger.Info("Health check endpoint accessed")
	return c.JSON(http.StatusOK, HealthResponse{Status: "healthy", Service: config.ServiceName})
}
