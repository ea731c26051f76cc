package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/restaurant-reservation/internal/service"
)

// TableHandler exposes the Table Manager over HTTP.
type TableHandler struct {
	svc    *service.TableService
	logger *zerolog.Logger
}

// NewTableHandler panics if svc is nil.
func NewTableHandler(svc *service.TableService, logger *zerolog.Logger) *TableHandler {
	if svc == nil {
		panic("nil service passed to NewTableHandler")
	}
	return &TableHandler{svc: svc, logger: nopIfNil(logger)}
}

// List handles GET /tables.
func (h *TableHandler) List(c echo.Context) error {
	out, err := h.svc.List(c.Request().Context())
	if err != nil {
		return fail(c, h.logger, err)
	}
	return data(c, http.StatusOK, out)
}

// Create handles POST /tables.  New tables are always vacant.
func (h *TableHandler) Create(c echo.Context) error {
	p, err := bindPayload(c)
	if err != nil {
		return fail(c, h.logger, err)
	}
	t, err := h.svc.Create(c.Request().Context(), p)
	if err != nil {
		return fail(c, h.logger, err)
	}
	return data(c, http.StatusCreated, t)
}

// Seat handles PUT /tables/:table_id/seat with {"data": {"reservation_id": n}}.
func (h *TableHandler) Seat(c echo.Context) error {
	id, err := tableID(c)
	if err != nil {
		return fail(c, h.logger, err)
	}
	p, err := bindPayload(c)
	if err != nil {
		return fail(c, h.logger, err)
	}
	t, err := h.svc.Seat(c.Request().Context(), id, p)
	if err != nil {
		return fail(c, h.logger, err)
	}
	return data(c, http.StatusOK, t)
}

// Unseat handles DELETE /tables/:table_id/seat.
func (h *TableHandler) Unseat(c echo.Context) error {
	id, err := tableID(c)
	if err != nil {
		return fail(c, h.logger, err)
	}
	t, err := h.svc.Unseat(c.Request().Context(), id)
	if err != nil {
		return fail(c, h.logger, err)
	}
	return data(c, http.StatusOK, t)
}

func tableID(c echo.Context) (uint64, error) {
	raw := c.Param("table_id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, &service.Error{Kind: service.KindNotFound, Message: fmt.Sprintf("Table %s not found.", raw)}
	}
	return id, nil
}
