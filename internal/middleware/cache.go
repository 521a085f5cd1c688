package middleware

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/simple-chat-api/internal/config"
)

const defaultLookupTimeout = 100 * time.Millisecond

// cachedResponse is the value stored in Redis for one cached route.
type cachedResponse struct {
	Status int         `json:"status"`
	Header http.Header `json:"header"`
	Body   []byte      `json:"body"`
}

// bodyRecorder tees the response body into a buffer while writing it to the
// client.  Once the body exceeds limit the copy is dropped and overflow is set.
type bodyRecorder struct {
	http.ResponseWriter
	status   int
	body     bytes.Buffer
	limit    int
	overflow bool
}

func (r *bodyRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *bodyRecorder) Write(b []byte) (int, error) {
	if !r.overflow {
		if r.limit > 0 && r.body.Len()+len(b) > r.limit {
			r.overflow = true
			r.body.Reset()
		} else {
			r.body.Write(b)
		}
	}
	return r.ResponseWriter.Write(b)
}

// cacheKey identifies a response by method, route pattern and raw query.
func cacheKey(prefix string, c echo.Context) string {
	r := c.Request()
	sum := sha1.Sum([]byte(r.Method + " " + c.Path() + "?" + r.URL.RawQuery))
	return prefix + ":" + hex.EncodeToString(sum[:])
}

// ResponseCache serves repeated requests for cacheable methods from Redis.
// Every Redis call is bounded by cfg.LookupTimeout; a slow, failing or
// missing backend only costs a cache miss.
func ResponseCache(cfg config.CacheConfig, rdb *redis.Client, logger *slog.Logger) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	timeout := cfg.LookupTimeout
	if timeout <= 0 {
		timeout = defaultLookupTimeout
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !cfg.Methods[strings.ToUpper(c.Request().Method)] {
				return next(c)
			}

			ctx := c.Request().Context()
			key := cacheKey(cfg.Prefix, c)

			if cached, ok := lookup(ctx, rdb, key, timeout, logger); ok {
				return replay(c, cached)
			}

			rec := &bodyRecorder{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: cfg.MaxBodyBytes}
			c.Response().Writer = rec
			c.Response().Header().Set("X-Cache", "MISS")

			if err := next(c); err != nil {
				return err
			}
			if rec.status != http.StatusOK || rec.overflow {
				return nil
			}

			hdr := c.Response().Header().Clone()
			hdr.Del("X-Cache")
			hdr.Del(echo.HeaderContentLength)
			payload, err := json.Marshal(cachedResponse{Status: rec.status, Header: hdr, Body: rec.body.Bytes()})
			if err != nil {
				logger.Warn("cache encode failed", "key", key, "error", err)
				return nil
			}

			// The request context may already be cancelled once the body is written.
			storeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
			defer cancel()
			if err := rdb.SetEx(storeCtx, key, payload, ttl).Err(); err != nil {
				logger.Warn("cache store failed", "key", key, "error", err)
			}
			return nil
		}
	}
}

func lookup(ctx context.Context, rdb *redis.Client, key string, timeout time.Duration, logger *slog.Logger) (cachedResponse, bool) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var cached cachedResponse
	bs, err := rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Warn("cache lookup failed", "key", key, "error", err)
		}
		return cached, false
	}
	if err := json.Unmarshal(bs, &cached); err != nil || cached.Status == 0 {
		logger.Warn("cache entry unreadable", "key", key)
		return cached, false
	}
	return cached, true
}

func replay(c echo.Context, cached cachedResponse) error {
	res := c.Response()
	for k, vals := range cached.Header {
		for _, v := range vals {
			res.Header().Add(k, v)
		}
	}
	res.Header().Set("X-Cache", "HIT")
	res.WriteHeader(cached.Status)
	_, err := res.Write(cached.Body)
	return err
}
