package http

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"barberagenda/internal/domain"
	"barberagenda/internal/service/catalog"
)

type servicePayload struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Description     string `json:"description,omitempty"`
	PriceCents      int64  `json:"price_cents"`
	DurationMinutes int    `json:"duration_minutes"`
	Active          bool   `json:"active"`
}

func toServicePayload(sv domain.Service) servicePayload {
	return servicePayload{
		ID:              sv.ID.String(),
		Name:            sv.Name,
		Description:     sv.Description,
		PriceCents:      sv.PriceCents,
		DurationMinutes: sv.DurationMinutes,
		Active:          sv.Active,
	}
}

func (s *Server) handleListServices(c echo.Context) error {
	list, err := s.catalog.ListServices(c.Request().Context())
	if err != nil {
		return s.writeErr(c, err)
	}
	out := make([]servicePayload, 0, len(list))
	for _, sv := range list {
		out = append(out, toServicePayload(sv))
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) handleAvailability(c echo.Context) error {
	date := c.QueryParam("date")
	if date == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date query parameter is required"})
	}
	slots, err := s.catalog.AvailableSlots(c.Request().Context(), date)
	if err != nil {
		return s.writeErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"date": date, "slots": slots})
}

type serviceRequest struct {
	Name            string `json:"name"`
	Description     string `json:"description"`
	PriceCents      int64  `json:"price_cents"`
	DurationMinutes int    `json:"duration_minutes"`
	Active          bool   `json:"active"`
}

func (r serviceRequest) input() catalog.ServiceInput {
	return catalog.ServiceInput{
		Name:            r.Name,
		Description:     r.Description,
		PriceCents:      r.PriceCents,
		DurationMinutes: r.DurationMinutes,
		Active:          r.Active,
	}
}

func (s *Server) handleCreateService(c echo.Context) error {
	var req serviceRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	created, err := s.catalog.CreateService(c.Request().Context(), req.input())
	if err != nil {
		return s.writeErr(c, err)
	}
	return c.JSON(http.StatusCreated, toServicePayload(created))
}

func (s *Server) handleUpdateService(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid service id"})
	}
	var req serviceRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	updated, err := s.catalog.UpdateService(c.Request().Context(), id, req.input())
	if err != nil {
		return s.writeErr(c, err)
	}
	return c.JSON(http.StatusOK, toServicePayload(updated))
}

func (s *Server) handleDeleteService(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid service id"})
	}
	if err := s.catalog.DeleteService(c.Request().Context(), id); err != nil {
		return s.writeErr(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

type blockedDayPayload struct {
	Date      string    `json:"date"`
	Reason    string    `json:"reason,omitempty"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *Server) handleListBlockedDays(c echo.Context) error {
	list, err := s.catalog.ListBlockedDays(c.Request().Context())
	if err != nil {
		return s.writeErr(c, err)
	}
	out := make([]blockedDayPayload, 0, len(list))
	for _, d := range list {
		out = append(out, blockedDayPayload{
			Date:      d.Date,
			Reason:    d.Reason,
			CreatedBy: d.CreatedBy,
			CreatedAt: d.CreatedAt,
		})
	}
	return c.JSON(http.StatusOK, out)
}

type blockDayRequest struct {
	Date   string `json:"date"`
	Reason string `json:"reason"`
}

func (s *Server) handleBlockDay(c echo.Context) error {
	var req blockDayRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := s.catalog.BlockDay(c.Request().Context(), identity(c), req.Date, req.Reason); err != nil {
		return s.writeErr(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleUnblockDay(c echo.Context) error {
	if err := s.catalog.UnblockDay(c.Request().Context(), c.Param("date")); err != nil {
		return s.writeErr(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
