package handler

import (
	"fmt"

	"github.com/labstack/echo/v4"

	"github.com/lastmile/admin-api/internal/api/middleware"
	"github.com/lastmile/admin-api/internal/core/domain"
)

// ctxPrincipal extracts the principal injected by the session middleware and
// fast-fails before any service call. A protected handler running without a
// principal means the route table is miswired; reject as unauthenticated.
func ctxPrincipal(c echo.Context) (domain.Principal, error) {
	principal, ok := middleware.Principal(c)
	if !ok {
		return domain.Principal{}, fmt.Errorf("missing principal on request: %w", domain.ErrAuth)
	}
	if principal.UserID == "" {
		return domain.Principal{}, domain.ErrMissingIdentity
	}
	return principal, nil
}
