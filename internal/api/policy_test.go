package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/lastmile/admin-api/internal/core/domain"
)

func okHandler(c echo.Context) error { return c.NoContent(http.StatusOK) }

func passthroughAuth(next echo.HandlerFunc) echo.HandlerFunc { return next }

func TestRegisterRoutesRejectsDuplicates(t *testing.T) {
	routes := []Route{
		{Method: http.MethodGet, Path: "/api/account", Handler: okHandler},
		{Method: http.MethodGet, Path: "/api/account", Handler: okHandler},
	}
	err := RegisterRoutes(echo.New(), routes, passthroughAuth)
	if err == nil || !strings.Contains(err.Error(), "declared twice") {
		t.Fatalf("expected a duplicate-route error, got %v", err)
	}
}

func TestRegisterRoutesRejectsUnguardedAdminPath(t *testing.T) {
	cases := []Route{
		{Method: http.MethodGet, Path: "/api/admin/user", Handler: okHandler},
		{Method: http.MethodGet, Path: "/api/admin/user", Handler: okHandler, Public: true},
	}
	for _, route := range cases {
		if err := RegisterRoutes(echo.New(), []Route{route}, passthroughAuth); err == nil {
			t.Fatalf("route %+v should be rejected without the %s role", route, domain.RoleSuperAdmin)
		}
	}
}

func TestRegisterRoutesAdminPrefixExactMatch(t *testing.T) {
	// The bare admin segment needs the role like its children do.
	bare := Route{Method: http.MethodGet, Path: "/api/admin", Handler: okHandler}
	if err := RegisterRoutes(echo.New(), []Route{bare}, passthroughAuth); err == nil {
		t.Fatalf("%s should be rejected without the %s role", bare.Path, domain.RoleSuperAdmin)
	}

	// A sibling path that merely shares the characters is not admin territory.
	sibling := Route{Method: http.MethodGet, Path: "/api/administrators", Handler: okHandler, Public: true}
	if err := RegisterRoutes(echo.New(), []Route{sibling}, passthroughAuth); err != nil {
		t.Fatalf("%s should not fall under the admin policy: %v", sibling.Path, err)
	}
}

func TestRegisterRoutesRejectsPublicWithRoles(t *testing.T) {
	routes := []Route{
		{Method: http.MethodPost, Path: "/api/account/login", Handler: okHandler, Public: true, Roles: []domain.Role{domain.RoleSuperAdmin}},
	}
	if err := RegisterRoutes(echo.New(), routes, passthroughAuth); err == nil {
		t.Fatal("public routes declaring roles should be rejected")
	}
}

func TestRegisterRoutesRejectsIncompleteRoute(t *testing.T) {
	routes := []Route{{Method: http.MethodGet, Path: "/api/account"}}
	if err := RegisterRoutes(echo.New(), routes, passthroughAuth); err == nil {
		t.Fatal("a route without a handler should be rejected")
	}
}

func TestRegisterRoutesWiresPolicies(t *testing.T) {
	e := echo.New()
	var sawAuth bool
	auth := func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sawAuth = true
			c.Set("principal", domain.Principal{
				UserID: "user-1",
				Roles:  []string{string(domain.RoleSuperAdmin)},
			})
			return next(c)
		}
	}

	routes := []Route{
		{Method: http.MethodPost, Path: "/api/account/login", Handler: okHandler, Public: true},
		{Method: http.MethodGet, Path: "/api/account", Handler: okHandler},
		{Method: http.MethodGet, Path: "/api/admin/user", Handler: okHandler, Roles: []domain.Role{domain.RoleSuperAdmin}},
	}
	if err := RegisterRoutes(e, routes, auth); err != nil {
		t.Fatalf("register: %v", err)
	}

	// Public route: no auth middleware involved.
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/account/login", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("public route: expected 200, got %d", rec.Code)
	}
	if sawAuth {
		t.Fatal("public routes must not pass through session auth")
	}

	// Authenticated route runs the auth middleware.
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/account", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("authenticated route: expected 200, got %d", rec.Code)
	}
	if !sawAuth {
		t.Fatal("protected routes must pass through session auth")
	}

	// Admin route passes RBAC with the SuperAdmin principal.
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/admin/user", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("admin route: expected 200, got %d", rec.Code)
	}
}
