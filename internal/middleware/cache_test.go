package middleware

import (
	"net"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/simple-chat-api/internal/config"
	"github.com/iliyamo/simple-chat-api/internal/logging"
)

func testCacheConfig() config.CacheConfig {
	return config.CacheConfig{
		Enabled:       true,
		Methods:       map[string]bool{http.MethodGet: true},
		TTL:           time.Minute,
		LookupTimeout: 100 * time.Millisecond,
		Prefix:        "test",
		MaxBodyBytes:  1 << 20,
	}
}

func cachedEcho(cfg config.CacheConfig, rdb *redis.Client) *echo.Echo {
	e := echo.New()
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"message": "hi"})
	}, ResponseCache(cfg, rdb, logging.Discard()))
	return e
}

func get(e *echo.Echo, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

// stalledListener accepts connections and never answers on them.
func stalledListener(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	var mu sync.Mutex
	var conns []net.Conn
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			mu.Lock()
			conns = append(conns, conn)
			mu.Unlock()
		}
	}()
	t.Cleanup(func() {
		_ = ln.Close()
		mu.Lock()
		defer mu.Unlock()
		for _, c := range conns {
			_ = c.Close()
		}
	})
	return ln.Addr().String()
}

func TestResponseCacheHitAndMiss(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	e := cachedEcho(testCacheConfig(), rdb)

	first := get(e, "/")
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))
	require.Len(t, mr.Keys(), 1)
	assert.Regexp(t, `^test:[0-9a-f]{40}$`, mr.Keys()[0])

	second := get(e, "/")
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, first.Header().Get(echo.HeaderContentType), second.Header().Get(echo.HeaderContentType))

	// a different query string is a different entry
	assert.Equal(t, "MISS", get(e, "/?lang=en").Header().Get("X-Cache"))
	assert.Len(t, mr.Keys(), 2)
}

func TestResponseCacheIgnoresUnreadableEntry(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	e := cachedEcho(testCacheConfig(), rdb)

	require.Equal(t, "MISS", get(e, "/").Header().Get("X-Cache"))
	for _, k := range mr.Keys() {
		require.NoError(t, mr.Set(k, "garbage"))
	}

	rec := get(e, "/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	assert.JSONEq(t, `{"message":"hi"}`, rec.Body.String())
}

func TestResponseCacheBoundsStalledRedis(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:                  stalledListener(t),
		ContextTimeoutEnabled: true,
	})
	t.Cleanup(func() { _ = rdb.Close() })
	e := cachedEcho(testCacheConfig(), rdb)

	start := time.Now()
	rec := get(e, "/")
	elapsed := time.Since(start)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"hi"}`, rec.Body.String())
	assert.Less(t, elapsed, 2*time.Second)
}

func TestBodyRecorderLimit(t *testing.T) {
	rec := httptest.NewRecorder()
	br := &bodyRecorder{ResponseWriter: rec, status: http.StatusOK, limit: 4}

	_, _ = br.Write([]byte("abc"))
	assert.False(t, br.overflow)
	_, _ = br.Write([]byte("def"))

	assert.True(t, br.overflow)
	assert.Zero(t, br.body.Len())
	assert.Equal(t, "abcdef", rec.Body.String())
}

func TestResponseCacheDisabledIsPassThrough(t *testing.T) {
	e := cachedEcho(testCacheConfig(), nil)
	rec := get(e, "/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("X-Cache"))
}
