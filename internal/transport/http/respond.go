package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"barberagenda/internal/service/appointments"
	"barberagenda/internal/service/catalog"
	"barberagenda/internal/store"
)

// writeErr translates service errors into HTTP responses. Anything not
// recognized is logged and reported as a 500 without leaking internals.
func (s *Server) writeErr(c echo.Context, err error) error {
	var apptVal *appointments.ValidationError
	var catVal *catalog.ValidationError

	switch {
	case errors.As(err, &apptVal):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": apptVal.Error()})
	case errors.As(err, &catVal):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": catVal.Error()})
	case errors.Is(err, appointments.ErrPermissionDenied):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, appointments.ErrNotFound), errors.Is(err, store.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	case errors.Is(err, appointments.ErrInvalidState):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, catalog.ErrDayBlocked), errors.Is(err, catalog.ErrSlotTaken):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, store.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "conflict"})
	default:
		s.log.Error("request failed",
			slog.String("method", c.Request().Method),
			slog.String("path", c.Path()),
			slog.String("error", err.Error()),
		)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}
