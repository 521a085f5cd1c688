package middleware

import (
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"
)

// RequestLogger logs the start and completion of every request with client
// IP, user agent, status and duration.
func RequestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()
			ua := req.UserAgent()
			if ua == "" {
				ua = "Unknown"
			}

			logger.Info("Request started", "method", req.Method, "url", req.URL.String())
			logger.Info("Client", "ip", c.RealIP(), "user_agent", ua)

			err := next(c)
			if err != nil {
				// Let the error handler write the response so the status below is final.
				c.Error(err)
			}

			logger.Info("Request completed",
				"method", req.Method,
				"url", req.URL.String(),
				"status", c.Response().Status,
				"duration", time.Since(start).Round(100*time.Microsecond).String(),
			)
			return nil
		}
	}
}
