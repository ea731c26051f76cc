package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/restaurant-reservation/internal/config"
)

func limitedEcho(t *testing.T, cfg config.RateLimitConfig, rdb *redis.Client) *echo.Echo {
	t.Helper()
	logger := zerolog.New(io.Discard)
	e := echo.New()
	e.Use(NewTokenBucket(cfg, rdb, &logger))
	e.GET("/tables", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	return e
}

func get(e *echo.Echo, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/tables", nil)
	req.RemoteAddr = ip + ":5555"
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func testLimit(capacity int) config.RateLimitConfig {
	return config.RateLimitConfig{
		Enabled:        true,
		Capacity:       capacity,
		RefillTokens:   1,
		RefillInterval: time.Hour,
		TTL:            5 * time.Hour,
		KeyStrategy:    "ip",
		Prefix:         "rl",
	}
}

func TestTokenBucketBlocksWhenEmpty(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	e := limitedEcho(t, testLimit(2), rdb)

	first := get(e, "192.0.2.1")
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "2", first.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", first.Header().Get("X-RateLimit-Remaining"))

	assert.Equal(t, http.StatusOK, get(e, "192.0.2.1").Code)

	blocked := get(e, "192.0.2.1")
	assert.Equal(t, http.StatusTooManyRequests, blocked.Code)
	assert.NotEmpty(t, blocked.Header().Get("Retry-After"))
	var body map[string]string
	require.NoError(t, json.Unmarshal(blocked.Body.Bytes(), &body))
	assert.Equal(t, "Too many requests.", body["error"])

	assert.Equal(t, http.StatusOK, get(e, "198.51.100.7").Code, "other clients have their own bucket")
	assert.True(t, mr.Exists("rl:ip:192.0.2.1"))
}

func TestTokenBucketPassThrough(t *testing.T) {
	disabled := testLimit(1)
	disabled.Enabled = false
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	for _, e := range []*echo.Echo{limitedEcho(t, disabled, rdb), limitedEcho(t, testLimit(1), nil)} {
		for i := 0; i < 3; i++ {
			assert.Equal(t, http.StatusOK, get(e, "192.0.2.1").Code)
		}
	}
}

func TestTokenBucketFailsOpen(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	e := limitedEcho(t, testLimit(1), rdb)
	mr.Close()

	assert.Equal(t, http.StatusOK, get(e, "192.0.2.1").Code)
	assert.Equal(t, http.StatusOK, get(e, "192.0.2.1").Code)
}

func TestBuildRateKey(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPut, "/tables/1/seat", nil)
	req.RemoteAddr = "192.0.2.1:5555"
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/tables/:table_id/seat")

	cfg := testLimit(1)
	assert.Equal(t, "rl:ip:192.0.2.1", buildRateKey(cfg, c))
	cfg.KeyStrategy = "route"
	assert.Equal(t, "rl:route:PUT /tables/:table_id/seat", buildRateKey(cfg, c))
	cfg.KeyStrategy = "ip_route"
	assert.Equal(t, "rl:ip:192.0.2.1:route:PUT /tables/:table_id/seat", buildRateKey(cfg, c))
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	e := echo.New()
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: func() string { return "req-1" }}))
	e.Use(RequestLogger(&logger))
	e.POST("/tables", func(c echo.Context) error { return c.NoContent(http.StatusCreated) })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/tables", nil))
	require.Equal(t, http.StatusCreated, rec.Code)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "req-1", line["request_id"])
	assert.Equal(t, "POST", line["method"])
	assert.Equal(t, "/tables", line["path"])
	assert.Equal(t, float64(http.StatusCreated), line["status"])
	assert.Equal(t, "info", line["level"])
}
