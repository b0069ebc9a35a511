package middleware

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lastmile/admin-api/internal/core/domain"
)

// RequireRoles enforces role-based access on the resolved principal. Every
// listed role must be present; a request without a principal means the auth
// middleware did not run and is treated as unauthenticated.
func RequireRoles(roles ...domain.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			principal, ok := c.Get(principalKey).(domain.Principal)
			if !ok {
				return fmt.Errorf("no principal on request: %w", domain.ErrAuth)
			}
			for _, role := range roles {
				if !principal.HasRole(role) {
					return echo.NewHTTPError(http.StatusForbidden, "forbidden")
				}
			}
			return next(c)
		}
	}
}
