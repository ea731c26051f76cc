package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// RedisPinger reports whether Redis answers.  A nil RedisPinger means Redis
// is not configured and is skipped.
type RedisPinger func(ctx context.Context) error

// Health is the liveness probe.  It returns a plain text "ok".
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// Ready returns the readiness probe: 200 once the database (and Redis, when
// configured) answer a ping within one second, 503 otherwise.
func Ready(db Pinger, redis RedisPinger) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return c.String(http.StatusServiceUnavailable, "db not ready")
		}
		if redis != nil {
			if err := redis(ctx); err != nil {
				return c.String(http.StatusServiceUnavailable, "redis not ready")
			}
		}
		return c.String(http.StatusOK, "ready")
	}
}
