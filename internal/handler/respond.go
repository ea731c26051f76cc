package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/restaurant-reservation/internal/service"
)

// envelope is the request and response wrapper used by every endpoint.
type envelope struct {
	Data service.Payload `json:"data"`
}

func data(c echo.Context, status int, v any) error {
	return c.JSON(status, echo.Map{"data": v})
}

// fail maps a service error to its status code.  Business errors carry a
// message meant for the caller; anything else is logged and hidden.
func fail(c echo.Context, logger *zerolog.Logger, err error) error {
	var se *service.Error
	switch {
	case errors.Is(err, service.ErrInvalidRequest) && errors.As(err, &se):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": se.Message})
	case errors.Is(err, service.ErrNotFound) && errors.As(err, &se):
		return c.JSON(http.StatusNotFound, echo.Map{"error": se.Message})
	}
	logger.Error().Err(err).Str("path", c.Path()).Msg("request failed")
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
}

// bindPayload decodes the {"data": {...}} body.  A missing or null data key
// yields a nil Payload, which the validators report as absent.
func bindPayload(c echo.Context) (service.Payload, error) {
	var body envelope
	if err := c.Bind(&body); err != nil {
		return nil, &service.Error{Kind: service.KindInvalidRequest, Message: "Request body is not valid JSON."}
	}
	return body.Data, nil
}

func nopIfNil(logger *zerolog.Logger) *zerolog.Logger {
	if logger == nil {
		nop := zerolog.Nop()
		return &nop
	}
	return logger
}
