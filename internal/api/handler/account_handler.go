package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lastmile/admin-api/internal/api/metrics"
	"github.com/lastmile/admin-api/internal/core/domain"
	"github.com/lastmile/admin-api/internal/core/ports"
)

// SessionCookier turns sessions into Set-Cookie headers and back out again.
type SessionCookier interface {
	Name() string
	Encode(session *domain.Session) (*http.Cookie, error)
	Clear() *http.Cookie
}

type AccountHandler struct {
	accounts ports.AccountService
	users    ports.UserService
	cookies  SessionCookier
}

func NewAccountHandler(accounts ports.AccountService, users ports.UserService, cookies SessionCookier) *AccountHandler {
	return &AccountHandler{accounts: accounts, users: users, cookies: cookies}
}

type loginRequest struct {
	Email        string `json:"email" validate:"required,email"`
	Password     string `json:"password" validate:"required"`
	StaySignedIn bool   `json:"staySignedIn"`
}

type updateSelfRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type verifyPasswordRequest struct {
	Password string `json:"password" validate:"required"`
}

// Login authenticates a user and establishes the session cookie.
//
// @Summary      Log in with email and password
// @Tags         account
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Credentials"
// @Success      200   {object}  domain.User
// @Failure      400   {object}  api.Problem
// @Failure      401   {object}  api.Problem
// @Router       /api/account/login [post]
func (h *AccountHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, user, session, err := h.accounts.LoginWithEmail(c.Request().Context(), req.Email, req.Password, req.StaySignedIn)
	if err != nil {
		return err
	}
	if !result.Succeeded {
		// Same response for an unknown email and a wrong password.
		metrics.LoginAttemptsTotal.WithLabelValues("failure").Inc()
		return domain.ErrInvalidCredentials
	}

	cookie, err := h.cookies.Encode(session)
	if err != nil {
		return err
	}
	c.SetCookie(cookie)

	metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()
	metrics.SessionsIssuedTotal.Inc()
	return c.JSON(http.StatusOK, user)
}

// Logout invalidates the caller's session and clears the cookie.
//
// @Summary      Log out
// @Tags         account
// @Success      204
// @Failure      401   {object}  api.Problem
// @Router       /api/account/logout [post]
func (h *AccountHandler) Logout(c echo.Context) error {
	principal, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	if err := h.accounts.Logout(c.Request().Context(), principal); err != nil {
		return err
	}

	c.SetCookie(h.cookies.Clear())
	metrics.SessionsRevokedTotal.Inc()
	return c.NoContent(http.StatusNoContent)
}

// Me returns the directory record of the authenticated caller.
//
// @Summary      Current user
// @Tags         account
// @Produce      json
// @Success      200  {object}  domain.User
// @Failure      401  {object}  api.Problem
// @Router       /api/account [get]
func (h *AccountHandler) Me(c echo.Context) error {
	principal, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	user, err := h.users.GetByPrincipal(c.Request().Context(), principal)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

type refreshCookieRequest struct {
	UserID string `json:"userId" validate:"required"`
}

// RefreshCookie reissues the caller's session cookie with a fresh role
// snapshot. The target user id must name the caller; anything else is an
// invalid operation.
//
// @Summary      Refresh the session cookie
// @Tags         account
// @Accept       json
// @Success      204
// @Failure      401  {object}  api.Problem
// @Failure      403  {object}  api.Problem
// @Router       /api/account/refreshcookie [post]
func (h *AccountHandler) RefreshCookie(c echo.Context) error {
	principal, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	var req refreshCookieRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	session, err := h.accounts.RefreshCookie(c.Request().Context(), principal, req.UserID)
	if err != nil {
		return err
	}

	cookie, err := h.cookies.Encode(session)
	if err != nil {
		return err
	}
	c.SetCookie(cookie)
	return c.NoContent(http.StatusNoContent)
}

// VerifyPassword re-checks the caller's password, for confirmation prompts
// ahead of sensitive actions.
//
// @Summary      Verify the current password
// @Tags         account
// @Accept       json
// @Success      204
// @Failure      400  {object}  api.Problem
// @Failure      401  {object}  api.Problem
// @Router       /api/account/verifypassword [post]
func (h *AccountHandler) VerifyPassword(c echo.Context) error {
	principal, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	var req verifyPasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ok, err := h.accounts.VerifyPassword(c.Request().Context(), principal.UserID, req.Password)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrInvalidPassword
	}
	return c.NoContent(http.StatusNoContent)
}

// UpdateSelf updates the caller's own profile. Only the email is editable.
//
// @Summary      Update own profile
// @Tags         account
// @Accept       json
// @Success      204
// @Failure      400  {object}  api.Problem
// @Failure      401  {object}  api.Problem
// @Router       /api/account [put]
func (h *AccountHandler) UpdateSelf(c echo.Context) error {
	principal, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	var req updateSelfRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.accounts.UpdateSelf(c.Request().Context(), principal.UserID, ports.UpdateSelfInput{Email: req.Email}); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
