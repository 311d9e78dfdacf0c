// Package http exposes the booking application over REST. Routes are
// grouped by audience: public catalog reads, authenticated client
// operations, staff management and admin-only user administration.
package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"barberagenda/internal/auth"
	"barberagenda/internal/notify"
	"barberagenda/internal/queue"
	"barberagenda/internal/service/appointments"
	"barberagenda/internal/service/catalog"
	"barberagenda/internal/store"
)

type Server struct {
	echo     *echo.Echo
	log      *slog.Logger
	tokens   *auth.TokenManager
	appts    *appointments.Service
	catalog  *catalog.Service
	notifier *notify.Dispatcher
	events   *queue.Publisher
	users    store.UserStore
	devices  store.DeviceTokenStore
}

type Deps struct {
	Tokens       *auth.TokenManager
	Appointments *appointments.Service
	Catalog      *catalog.Service
	Notifier     *notify.Dispatcher
	Events       *queue.Publisher
	Users        store.UserStore
	Devices      store.DeviceTokenStore
	Logger       *slog.Logger
}

func NewServer(d Deps) *Server {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.Recover())

	s := &Server{
		echo:     e,
		log:      d.Logger,
		tokens:   d.Tokens,
		appts:    d.Appointments,
		catalog:  d.Catalog,
		notifier: d.Notifier,
		events:   d.Events,
		users:    d.Users,
		devices:  d.Devices,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	api := s.echo.Group("/api")

	api.POST("/auth/register", s.handleRegister)
	api.POST("/auth/login", s.handleLogin)
	api.GET("/services", s.handleListServices)
	api.GET("/availability", s.handleAvailability)

	authed := api.Group("", Authenticate(s.tokens))
	authed.POST("/appointments", s.handleCreateAppointment)
	authed.GET("/appointments", s.handleListOwn)
	authed.POST("/appointments/:id/cancel", s.handleClientCancel)
	authed.DELETE("/appointments/:id", s.handleRemoveFromHistory)
	authed.GET("/appointments/watch", s.handleWatch)
	authed.PUT("/profile/name", s.handleRenameProfile)
	authed.POST("/devices", s.handleRegisterDevice)
	authed.DELETE("/devices/:token", s.handleRemoveDevice)

	staff := api.Group("/staff", Authenticate(s.tokens), RequireStaff())
	staff.GET("/appointments", s.handleListAll)
	staff.POST("/appointments", s.handleCreateAppointment)
	staff.PUT("/appointments/:id/status", s.handleSetStatus)
	staff.PUT("/appointments/:id/note", s.handleSetStaffNote)
	staff.POST("/appointments/:id/trash", s.handleMoveToTrash)
	staff.GET("/trash", s.handleListTrash)
	staff.POST("/trash/:id/restore", s.handleRestore)
	staff.DELETE("/trash/:id", s.handlePurge)
	staff.GET("/cancellations/unseen", s.handleUnseenCancellations)
	staff.POST("/services", s.handleCreateService)
	staff.PUT("/services/:id", s.handleUpdateService)
	staff.DELETE("/services/:id", s.handleDeleteService)
	staff.GET("/blocked-days", s.handleListBlockedDays)
	staff.POST("/blocked-days", s.handleBlockDay)
	staff.DELETE("/blocked-days/:date", s.handleUnblockDay)
	staff.POST("/notifications", s.handleDispatchNotification)

	admin := api.Group("/admin", Authenticate(s.tokens), RequireAdmin())
	admin.PUT("/users/:id/role", s.handleSetRole)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
