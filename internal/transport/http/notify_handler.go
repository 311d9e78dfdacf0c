package http

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"barberagenda/internal/domain"
	"barberagenda/internal/notify"
)

type dispatchRequest struct {
	Role   string            `json:"role,omitempty"`
	UserID string            `json:"user_id,omitempty"`
	Title  string            `json:"title"`
	Body   string            `json:"body"`
	Data   map[string]string `json:"data,omitempty"`
}

// handleDispatchNotification lets staff push a message to one client's
// devices or to every device registered under a role.
func (s *Server) handleDispatchNotification(c echo.Context) error {
	if s.notifier == nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "notifications are not configured"})
	}
	var req dispatchRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if strings.TrimSpace(req.Title) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title is required"})
	}

	var aud notify.Audience
	switch {
	case req.UserID != "":
		aud = notify.AudienceUser(req.UserID)
	case req.Role != "":
		role := domain.Role(req.Role)
		if !role.Valid() {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown role"})
		}
		aud = notify.AudienceRole(role)
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "role or user_id is required"})
	}

	delivered, err := s.notifier.Send(c.Request().Context(), aud, notify.Message{
		Title: req.Title,
		Body:  req.Body,
		Data:  req.Data,
	})
	if err != nil {
		return s.writeErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"delivered": delivered})
}
