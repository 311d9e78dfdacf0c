package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"barberagenda/internal/domain"
	"barberagenda/internal/notify"
	"barberagenda/internal/queue"
	"barberagenda/internal/service/appointments"
)

type appointmentPayload struct {
	ID                string    `json:"id"`
	OwnerID           string    `json:"owner_id"`
	OwnerName         string    `json:"owner_name"`
	OwnerEmail        string    `json:"owner_email"`
	ServiceName       string    `json:"service_name"`
	ServicePriceCents int64     `json:"service_price_cents"`
	Date              string    `json:"date"`
	TimeSlot          string    `json:"time_slot"`
	ScheduledAt       time.Time `json:"scheduled_at"`
	Status            string    `json:"status"`
	CanceledByClient  bool      `json:"canceled_by_client"`
	StaffNotified     bool      `json:"staff_notified"`
	ClientNote        string    `json:"client_note,omitempty"`
	StaffNote         string    `json:"staff_note,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func toAppointmentPayload(a domain.Appointment) appointmentPayload {
	return appointmentPayload{
		ID:                a.ID.String(),
		OwnerID:           a.OwnerID,
		OwnerName:         a.OwnerName,
		OwnerEmail:        a.OwnerEmail,
		ServiceName:       a.ServiceName,
		ServicePriceCents: a.ServicePriceCents,
		Date:              a.Date,
		TimeSlot:          a.TimeSlot,
		ScheduledAt:       a.ScheduledAt,
		Status:            string(a.Status),
		CanceledByClient:  a.CanceledByClient,
		StaffNotified:     a.StaffNotified,
		ClientNote:        a.ClientNote,
		StaffNote:         a.StaffNote,
		CreatedAt:         a.CreatedAt,
		UpdatedAt:         a.UpdatedAt,
	}
}

func toAppointmentPayloads(list []domain.Appointment) []appointmentPayload {
	out := make([]appointmentPayload, 0, len(list))
	for _, a := range list {
		out = append(out, toAppointmentPayload(a))
	}
	return out
}

type createAppointmentRequest struct {
	OwnerID           string `json:"owner_id"`
	OwnerName         string `json:"owner_name"`
	OwnerEmail        string `json:"owner_email"`
	ServiceName       string `json:"service_name"`
	ServicePriceCents int64  `json:"service_price_cents"`
	Date              string `json:"date"`
	TimeSlot          string `json:"time_slot"`
	ClientNote        string `json:"client_note"`
}

// handleCreateAppointment is the booking entry path: blocked days and
// double bookings are rejected here before the lifecycle manager runs.
func (s *Server) handleCreateAppointment(c echo.Context) error {
	actor := identity(c)
	var req createAppointmentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx := c.Request().Context()

	if err := s.catalog.CheckSlotAvailable(ctx, req.Date, req.TimeSlot); err != nil {
		return s.writeErr(c, err)
	}
	created, err := s.appts.Create(ctx, actor, appointments.CreateInput{
		OwnerID:           req.OwnerID,
		OwnerName:         req.OwnerName,
		OwnerEmail:        req.OwnerEmail,
		ServiceName:       req.ServiceName,
		ServicePriceCents: req.ServicePriceCents,
		Date:              req.Date,
		TimeSlot:          req.TimeSlot,
		ClientNote:        req.ClientNote,
	})
	if err != nil {
		return s.writeErr(c, err)
	}
	s.publishEvent(c, queue.EventCreated, created)
	return c.JSON(http.StatusCreated, toAppointmentPayload(created))
}

func (s *Server) handleListOwn(c echo.Context) error {
	actor := identity(c)
	list, err := s.appts.ListForOwner(c.Request().Context(), actor, actor.ID)
	if err != nil {
		return s.writeErr(c, err)
	}
	return c.JSON(http.StatusOK, toAppointmentPayloads(list))
}

func (s *Server) handleListAll(c echo.Context) error {
	list, err := s.appts.ListAll(c.Request().Context(), identity(c))
	if err != nil {
		return s.writeErr(c, err)
	}
	return c.JSON(http.StatusOK, toAppointmentPayloads(list))
}

// handleClientCancel cancels on the caller's behalf and alerts staff
// devices so the cancellation does not go unseen.
func (s *Server) handleClientCancel(c echo.Context) error {
	actor := identity(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid appointment id"})
	}
	ctx := c.Request().Context()
	initiator := appointments.InitiatedByClient
	if actor.Role.Staff() {
		initiator = appointments.InitiatedByStaff
	}
	if err := s.appts.Cancel(ctx, actor, id, initiator); err != nil {
		return s.writeErr(c, err)
	}
	if s.events != nil {
		err := s.events.Publish(ctx, queue.Event{
			Type:          queue.EventCanceled,
			AppointmentID: id.String(),
			Status:        string(domain.StatusCanceled),
		})
		if err != nil {
			s.log.Warn("event publish failed", "type", queue.EventCanceled, "error", err)
		}
	}
	if s.notifier != nil && initiator == appointments.InitiatedByClient {
		if _, err := s.notifier.Send(ctx, notify.AudienceRole(domain.RoleStaff), notify.Message{
			Title: "Appointment canceled",
			Body:  fmt.Sprintf("%s canceled an appointment", actor.DisplayName),
			Data:  map[string]string{"appointment_id": id.String()},
		}); err != nil {
			s.log.Warn("staff cancel alert failed", "error", err)
		}
	}
	return c.NoContent(http.StatusNoContent)
}

type setStatusRequest struct {
	Status string `json:"status"`
}

func (s *Server) handleSetStatus(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid appointment id"})
	}
	var req setStatusRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	status, err := domain.ParseStatus(req.Status)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if err := s.appts.SetStatus(c.Request().Context(), identity(c), id, status); err != nil {
		return s.writeErr(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

type staffNoteRequest struct {
	Note string `json:"note"`
}

func (s *Server) handleSetStaffNote(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid appointment id"})
	}
	var req staffNoteRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := s.appts.SetStaffNote(c.Request().Context(), identity(c), id, req.Note); err != nil {
		return s.writeErr(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleMoveToTrash(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid appointment id"})
	}
	if err := s.appts.MoveToTrash(c.Request().Context(), identity(c), id); err != nil {
		return s.writeErr(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

type trashedPayload struct {
	ID          string    `json:"id"`
	OriginalID  string    `json:"original_id"`
	OwnerID     string    `json:"owner_id"`
	OwnerName   string    `json:"owner_name"`
	ServiceName string    `json:"service_name"`
	Date        string    `json:"date"`
	TimeSlot    string    `json:"time_slot"`
	Status      string    `json:"status"`
	DeletedAt   time.Time `json:"deleted_at"`
}

func (s *Server) handleListTrash(c echo.Context) error {
	list, err := s.appts.ListTrash(c.Request().Context(), identity(c))
	if err != nil {
		return s.writeErr(c, err)
	}
	out := make([]trashedPayload, 0, len(list))
	for _, t := range list {
		out = append(out, trashedPayload{
			ID:          t.ID.String(),
			OriginalID:  t.OriginalID.String(),
			OwnerID:     t.OwnerID,
			OwnerName:   t.OwnerName,
			ServiceName: t.ServiceName,
			Date:        t.Date,
			TimeSlot:    t.TimeSlot,
			Status:      string(t.Status),
			DeletedAt:   t.DeletedAt,
		})
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) handleRestore(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid trash id"})
	}
	restored, err := s.appts.Restore(c.Request().Context(), identity(c), id)
	if err != nil {
		return s.writeErr(c, err)
	}
	s.publishEvent(c, queue.EventRestored, restored)
	return c.JSON(http.StatusOK, toAppointmentPayload(restored))
}

func (s *Server) handlePurge(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid trash id"})
	}
	if err := s.appts.PurgePermanently(c.Request().Context(), identity(c), id); err != nil {
		return s.writeErr(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleRemoveFromHistory(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid appointment id"})
	}
	if err := s.appts.RemoveFromPersonalHistory(c.Request().Context(), identity(c), id); err != nil {
		return s.writeErr(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleUnseenCancellations(c echo.Context) error {
	list, err := s.appts.DetectUnacknowledgedClientCancellations(c.Request().Context(), identity(c))
	if err != nil {
		return s.writeErr(c, err)
	}
	return c.JSON(http.StatusOK, toAppointmentPayloads(list))
}

func (s *Server) publishEvent(c echo.Context, typ string, a domain.Appointment) {
	if s.events == nil {
		return
	}
	err := s.events.Publish(c.Request().Context(), queue.Event{
		Type:          typ,
		AppointmentID: a.ID.String(),
		OwnerID:       a.OwnerID,
		OwnerName:     a.OwnerName,
		ServiceName:   a.ServiceName,
		Date:          a.Date,
		TimeSlot:      a.TimeSlot,
		Status:        string(a.Status),
	})
	if err != nil {
		s.log.Warn("event publish failed", "type", typ, "error", err)
	}
}
