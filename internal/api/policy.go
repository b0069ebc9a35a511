package api

import (
	"fmt"
	"strings"

	"github.com/labstack/echo/v4"

	appmiddleware "github.com/lastmile/admin-api/internal/api/middleware"
	"github.com/lastmile/admin-api/internal/core/domain"
)

const adminPrefix = "/api/admin"

// Route declares one endpoint and its access policy. The policy lives next to
// the path in one table instead of being scattered across handler code.
type Route struct {
	Method  string
	Path    string
	Handler echo.HandlerFunc
	// Public routes skip session authentication entirely.
	Public bool
	// Roles required on the authenticated principal. Empty means any
	// authenticated caller.
	Roles []domain.Role
}

// RegisterRoutes validates the route table and registers it on the echo
// instance. Validation failures are construction-time errors; a misdeclared
// policy must stop the server before it serves a single request.
func RegisterRoutes(e *echo.Echo, routes []Route, sessionAuth echo.MiddlewareFunc) error {
	if err := validateRoutes(routes); err != nil {
		return err
	}

	for _, r := range routes {
		if r.Public {
			e.Add(r.Method, r.Path, r.Handler)
			continue
		}
		mw := []echo.MiddlewareFunc{sessionAuth}
		if len(r.Roles) > 0 {
			mw = append(mw, appmiddleware.RequireRoles(r.Roles...))
		}
		e.Add(r.Method, r.Path, r.Handler, mw...)
	}
	return nil
}

func validateRoutes(routes []Route) error {
	seen := make(map[string]struct{}, len(routes))
	for _, r := range routes {
		if r.Method == "" || r.Path == "" || r.Handler == nil {
			return fmt.Errorf("route %s %s: method, path and handler are all required", r.Method, r.Path)
		}

		key := r.Method + " " + r.Path
		if _, dup := seen[key]; dup {
			return fmt.Errorf("route %s declared twice", key)
		}
		seen[key] = struct{}{}

		if r.Public && len(r.Roles) > 0 {
			return fmt.Errorf("route %s: public routes cannot require roles", key)
		}

		if underAdminPrefix(r.Path) && !requiresRole(r, domain.RoleSuperAdmin) {
			return fmt.Errorf("route %s: paths under %s must require the %s role", key, adminPrefix, domain.RoleSuperAdmin)
		}
	}
	return nil
}

// underAdminPrefix matches the admin segment itself and its children, not
// sibling paths that merely share the characters (such as /api/administrators).
func underAdminPrefix(path string) bool {
	return path == adminPrefix || strings.HasPrefix(path, adminPrefix+"/")
}

func requiresRole(r Route, role domain.Role) bool {
	if r.Public {
		return false
	}
	for _, have := range r.Roles {
		if have == role {
			return true
		}
	}
	return false
}
