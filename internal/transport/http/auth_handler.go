package http

import (
	"errors"
	"net/http"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"barberagenda/internal/auth"
	"barberagenda/internal/domain"
	"barberagenda/internal/store"
)

type registerRequest struct {
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
}

type authResponse struct {
	Token string      `json:"token"`
	User  userPayload `json:"user"`
}

type userPayload struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	Role        string `json:"role"`
}

func toUserPayload(u domain.UserProfile) userPayload {
	return userPayload{
		ID:          u.ID.String(),
		DisplayName: u.DisplayName,
		Email:       u.Email,
		Role:        string(u.Role),
	}
}

func (s *Server) handleRegister(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.DisplayName = strings.TrimSpace(req.DisplayName)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.DisplayName == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "display_name is required"})
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid email"})
	}
	if len(req.Password) < 8 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "password must be at least 8 characters"})
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return s.writeErr(c, err)
	}
	created, err := s.users.Create(c.Request().Context(), domain.UserProfile{
		DisplayName:  req.DisplayName,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         domain.RoleClient,
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already registered"})
		}
		return s.writeErr(c, err)
	}

	token, err := s.tokens.Issue(created.Identity())
	if err != nil {
		return s.writeErr(c, err)
	}
	return c.JSON(http.StatusCreated, authResponse{Token: token, User: toUserPayload(created)})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	u, err := s.users.GetByEmail(c.Request().Context(), strings.TrimSpace(strings.ToLower(req.Email)))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		return s.writeErr(c, err)
	}
	if !auth.CheckPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	token, err := s.tokens.Issue(u.Identity())
	if err != nil {
		return s.writeErr(c, err)
	}
	return c.JSON(http.StatusOK, authResponse{Token: token, User: toUserPayload(u)})
}

type renameRequest struct {
	DisplayName string `json:"display_name"`
}

// handleRenameProfile updates the caller's display name and fans the new
// name out across every appointment they own, active or trashed.
func (s *Server) handleRenameProfile(c echo.Context) error {
	actor := identity(c)
	var req renameRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.DisplayName = strings.TrimSpace(req.DisplayName)
	if req.DisplayName == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "display_name is required"})
	}

	uid, err := uuid.Parse(actor.ID)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
	}
	ctx := c.Request().Context()
	if err := s.users.UpdateDisplayName(ctx, uid, req.DisplayName); err != nil {
		return s.writeErr(c, err)
	}
	updated, err := s.appts.RenameOwnerAcrossAppointments(ctx, actor, actor.ID, req.DisplayName)
	if err != nil {
		return s.writeErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"display_name":         req.DisplayName,
		"appointments_renamed": updated,
	})
}

type deviceRequest struct {
	Token    string `json:"token"`
	Platform string `json:"platform"`
}

func (s *Server) handleRegisterDevice(c echo.Context) error {
	actor := identity(c)
	var req deviceRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if strings.TrimSpace(req.Token) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "token is required"})
	}
	err := s.devices.Register(c.Request().Context(), domain.DeviceToken{
		Token:    req.Token,
		OwnerID:  actor.ID,
		Platform: req.Platform,
	})
	if err != nil {
		return s.writeErr(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleRemoveDevice(c echo.Context) error {
	if err := s.devices.Remove(c.Request().Context(), c.Param("token")); err != nil {
		return s.writeErr(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

type setRoleRequest struct {
	Role string `json:"role"`
}

func (s *Server) handleSetRole(c echo.Context) error {
	uid, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	var req setRoleRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	role := domain.Role(req.Role)
	if !role.Valid() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown role"})
	}
	if err := s.users.SetRole(c.Request().Context(), uid, role); err != nil {
		return s.writeErr(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
