package middleware

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func TestRequestLoggerLogsFinalStatus(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	e := echo.New()
	e.Use(RequestLogger(logger))
	e.GET("/fail", func(echo.Context) error { return errors.New("boom") })

	req := httptest.NewRequest(http.MethodGet, "/fail", nil)
	req.Header.Set("User-Agent", "probe/1.0")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	out := buf.String()
	assert.Contains(t, out, `msg="Request started"`)
	assert.Contains(t, out, "user_agent=probe/1.0")
	assert.Contains(t, out, "status=500")
}
