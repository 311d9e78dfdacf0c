package http

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"barberagenda/internal/domain"
)

// handleWatch streams the caller's active appointments as server-sent
// events. Each event is the full current snapshot, so a client that
// misses intermediate states still converges on the latest list. Staff
// may pass owner_id to watch one client, or leave it empty to watch the
// whole shop.
func (s *Server) handleWatch(c echo.Context) error {
	actor := identity(c)
	ownerID := actor.ID
	if actor.Role.Staff() {
		ownerID = c.QueryParam("owner_id")
	}

	sub, err := s.appts.Watch(actor, ownerID)
	if err != nil {
		return s.writeErr(c, err)
	}
	defer sub.Close()

	// Deliver the current state before the first change arrives. A watch
	// on the whole shop starts empty and fills in as changes land.
	var initial []domain.Appointment
	if ownerID != "" {
		initial, err = s.appts.ListForOwner(c.Request().Context(), actor, ownerID)
		if err != nil {
			return s.writeErr(c, err)
		}
	}

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set(echo.HeaderCacheControl, "no-cache")
	res.Header().Set("Connection", "keep-alive")
	res.WriteHeader(http.StatusOK)

	flusher, ok := res.Writer.(http.Flusher)
	if !ok {
		return echo.NewHTTPError(http.StatusInternalServerError, "streaming unsupported")
	}

	send := func(snapshot []appointmentPayload) error {
		body, err := json.Marshal(snapshot)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(res, "event: appointments\ndata: %s\n\n", body); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	}

	if ownerID != "" {
		if err := send(toAppointmentPayloads(initial)); err != nil {
			return nil
		}
	}

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case snapshot, open := <-sub.C():
			if !open {
				return nil
			}
			if err := send(toAppointmentPayloads(snapshot)); err != nil {
				return nil
			}
		}
	}
}
