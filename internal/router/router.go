// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/iliyamo/restaurant-reservation/internal/handler"
)

// RegisterHealth exposes the liveness and readiness probes and, when
// withMetrics is set, the Prometheus endpoint.
func RegisterHealth(e *echo.Echo, db handler.Pinger, redis handler.RedisPinger, withMetrics bool) {
	e.GET("/healthz", handler.Health)
	e.GET("/readyz", handler.Ready(db, redis))
	if withMetrics {
		e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	}
}

// RegisterReservations registers the Reservation Manager routes.  mw is
// applied to the whole group (rate limiting).
func RegisterReservations(e *echo.Echo, h *handler.ReservationHandler, mw ...echo.MiddlewareFunc) {
	g := e.Group("/reservations", mw...)
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/:reservation_id", h.Read)
	g.PUT("/:reservation_id", h.Update)
	g.PUT("/:reservation_id/status", h.UpdateStatus)
}

// RegisterTables registers the Table Manager routes.
func RegisterTables(e *echo.Echo, h *handler.TableHandler, mw ...echo.MiddlewareFunc) {
	g := e.Group("/tables", mw...)
	g.GET("", h.List)
	g.POST("", h.Create)
	g.PUT("/:table_id/seat", h.Seat)
	g.DELETE("/:table_id/seat", h.Unseat)
}
