package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/restaurant-reservation/internal/service"
)

// ReservationHandler exposes the Reservation Manager over HTTP.
type ReservationHandler struct {
	svc    *service.ReservationService
	logger *zerolog.Logger
}

// NewReservationHandler panics if svc is nil.
func NewReservationHandler(svc *service.ReservationService, logger *zerolog.Logger) *ReservationHandler {
	if svc == nil {
		panic("nil service passed to NewReservationHandler")
	}
	return &ReservationHandler{svc: svc, logger: nopIfNil(logger)}
}

// List handles GET /reservations.  ?date= lists one day and takes precedence
// over ?mobile_number=, which searches by phone digits across every status.
// With neither, all active reservations are returned.
func (h *ReservationHandler) List(c echo.Context) error {
	ctx := c.Request().Context()
	var (
		out any
		err error
	)
	switch {
	case c.QueryParam("date") != "":
		out, err = h.svc.ListByDate(ctx, c.QueryParam("date"))
	case c.QueryParam("mobile_number") != "":
		out, err = h.svc.Search(ctx, c.QueryParam("mobile_number"))
	default:
		out, err = h.svc.List(ctx)
	}
	if err != nil {
		return fail(c, h.logger, err)
	}
	return data(c, http.StatusOK, out)
}

// Create handles POST /reservations.
func (h *ReservationHandler) Create(c echo.Context) error {
	p, err := bindPayload(c)
	if err != nil {
		return fail(c, h.logger, err)
	}
	r, err := h.svc.Create(c.Request().Context(), p)
	if err != nil {
		return fail(c, h.logger, err)
	}
	return data(c, http.StatusCreated, r)
}

// Read handles GET /reservations/:reservation_id.
func (h *ReservationHandler) Read(c echo.Context) error {
	id, err := reservationID(c)
	if err != nil {
		return fail(c, h.logger, err)
	}
	r, err := h.svc.Read(c.Request().Context(), id)
	if err != nil {
		return fail(c, h.logger, err)
	}
	return data(c, http.StatusOK, r)
}

// Update handles PUT /reservations/:reservation_id.
func (h *ReservationHandler) Update(c echo.Context) error {
	id, err := reservationID(c)
	if err != nil {
		return fail(c, h.logger, err)
	}
	p, err := bindPayload(c)
	if err != nil {
		return fail(c, h.logger, err)
	}
	r, err := h.svc.Update(c.Request().Context(), id, p)
	if err != nil {
		return fail(c, h.logger, err)
	}
	return data(c, http.StatusOK, r)
}

// UpdateStatus handles PUT /reservations/:reservation_id/status and answers
// with {"data": {"status": ...}}.
func (h *ReservationHandler) UpdateStatus(c echo.Context) error {
	id, err := reservationID(c)
	if err != nil {
		return fail(c, h.logger, err)
	}
	p, err := bindPayload(c)
	if err != nil {
		return fail(c, h.logger, err)
	}
	var raw any
	if p != nil {
		raw = p["status"]
	}
	st, err := h.svc.UpdateStatus(c.Request().Context(), id, raw)
	if err != nil {
		return fail(c, h.logger, err)
	}
	return data(c, http.StatusOK, echo.Map{"status": st})
}

// reservationID parses the path id.  An id that cannot exist is reported the
// same way as an unknown one.
func reservationID(c echo.Context) (uint64, error) {
	raw := c.Param("reservation_id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, &service.Error{Kind: service.KindNotFound, Message: fmt.Sprintf("Reservation %s not found.", raw)}
	}
	return id, nil
}
