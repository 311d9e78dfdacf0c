package http

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"barberagenda/internal/auth"
	"barberagenda/internal/domain"
)

const identityKey = "identity"

// Authenticate validates the Bearer token and stores the caller's
// Identity in the echo context for handlers to pick up.
func Authenticate(tm *auth.TokenManager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if !strings.HasPrefix(header, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			id, err := tm.Parse(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			c.Set(identityKey, id)
			return next(c)
		}
	}
}

// RequireStaff rejects callers whose role is neither staff nor admin.
func RequireStaff() echo.MiddlewareFunc {
	return requireRole(func(r domain.Role) bool { return r.Staff() })
}

// RequireAdmin rejects everyone but admins.
func RequireAdmin() echo.MiddlewareFunc {
	return requireRole(func(r domain.Role) bool { return r == domain.RoleAdmin })
}

func requireRole(allowed func(domain.Role) bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !allowed(identity(c).Role) {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			}
			return next(c)
		}
	}
}

func identity(c echo.Context) domain.Identity {
	id, _ := c.Get(identityKey).(domain.Identity)
	return id
}
