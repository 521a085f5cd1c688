package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
)

// ErrorResponse is the body of every error response.
type ErrorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

// ErrorHandler replaces echo's default error handler.  HTTP errors keep
// their status; anything else is logged and reported as a generic 500.
func ErrorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		body := ErrorResponse{Error: "Internal server error", Detail: err.Error()}

		var he *echo.HTTPError
		if errors.As(err, &he) {
			if he.Internal != nil {
				err = he.Internal
			}
			status = he.Code
			body = ErrorResponse{Error: http.StatusText(status), Detail: fmt.Sprint(he.Message)}
		}

		req := c.Request()
		if status >= http.StatusInternalServerError {
			logger.Error("Unhandled exception occurred",
				"error", err, "method", req.Method, "url", req.URL.String())
		}

		var werr error
		if req.Method == http.MethodHead {
			werr = c.NoContent(status)
		} else {
			werr = c.JSON(status, body)
		}
		if werr != nil {
			logger.Error("failed to write error response", "error", werr)
		}
	}
}
