package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lastmile/admin-api/internal/api/metrics"
	"github.com/lastmile/admin-api/internal/core/domain"
	"github.com/lastmile/admin-api/internal/core/ports"
)

// UserHandler serves the admin-panel user directory endpoints. Every route it
// registers lives under /api/admin and is gated on SuperAdmin.
type UserHandler struct {
	users ports.UserService
}

func NewUserHandler(users ports.UserService) *UserHandler {
	return &UserHandler{users: users}
}

type createUserRequest struct {
	Email          string `json:"email" validate:"required,email"`
	UserName       string `json:"username" validate:"required"`
	FullName       string `json:"fullName" validate:"required"`
	PhoneNumber    string `json:"phoneNumber"`
	PersonalNumber string `json:"personalNumber" validate:"required"`
	Role           string `json:"role" validate:"required"`
	// Password is optional; without it the account is created without
	// credentials and cannot log in until one is set.
	Password string `json:"password"`
}

type roleRequest struct {
	Role string `json:"role" validate:"required"`
}

type emailFreeResponse struct {
	Free bool `json:"free"`
}

// List returns all directory records.
//
// @Summary      List users
// @Tags         admin
// @Produce      json
// @Success      200  {array}   domain.User
// @Failure      401  {object}  api.Problem
// @Failure      403  {object}  api.Problem
// @Router       /api/admin/user [get]
func (h *UserHandler) List(c echo.Context) error {
	users, err := h.users.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, users)
}

// Get returns one user with resolved role names.
//
// @Summary      Get a user
// @Tags         admin
// @Produce      json
// @Param        id   path      string  true  "User id"
// @Success      200  {object}  domain.DetailedUser
// @Failure      404  {object}  api.Problem
// @Router       /api/admin/user/{id} [get]
func (h *UserHandler) Get(c echo.Context) error {
	user, err := h.users.GetDetailed(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// Create provisions a new admin-panel user. The email is checked for
// availability before any write so the caller gets the coded 400 instead of a
// constraint failure from the store.
//
// @Summary      Create a user
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        body  body      createUserRequest  true  "New user"
// @Success      201   {object}  domain.DetailedUser
// @Failure      400   {object}  api.Problem
// @Router       /api/admin/user [post]
func (h *UserHandler) Create(c echo.Context) error {
	principal, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	var req createUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	if err := h.users.VerifyEmailIsFree(ctx, req.Email); err != nil {
		return err
	}

	creator, err := h.users.GetByPrincipal(ctx, principal)
	if err != nil {
		return err
	}

	in := ports.CreateAdminUserInput{
		Email:          req.Email,
		UserName:       req.UserName,
		FullName:       req.FullName,
		PhoneNumber:    req.PhoneNumber,
		PersonalNumber: req.PersonalNumber,
		Role:           domain.Role(req.Role),
	}

	var created *domain.DetailedUser
	if req.Password != "" {
		created, err = h.users.CreateAdminUserWithPassword(ctx, in, req.Password, creator.Email)
	} else {
		created, err = h.users.CreateAdminUser(ctx, in, creator.Email)
	}
	if err != nil {
		return err
	}

	metrics.UsersCreatedTotal.Inc()
	return c.JSON(http.StatusCreated, created)
}

// Delete removes a user. Expected failures come back itemized in the result
// body rather than as an error status.
//
// @Summary      Delete a user
// @Tags         admin
// @Produce      json
// @Param        id   path      string  true  "User id"
// @Success      200  {object}  domain.Result
// @Failure      404  {object}  api.Problem
// @Router       /api/admin/user/{id} [delete]
func (h *UserHandler) Delete(c echo.Context) error {
	result, err := h.users.DeleteUserByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	if result.Succeeded() {
		metrics.UsersDeletedTotal.Inc()
	}
	return c.JSON(http.StatusOK, result)
}

// AddRole grants a role to a user.
//
// @Summary      Grant a role
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        id    path      string       true  "User id"
// @Param        body  body      roleRequest  true  "Role to grant"
// @Success      200   {object}  domain.Result
// @Failure      400   {object}  api.Problem
// @Failure      404   {object}  api.Problem
// @Router       /api/admin/user/{id}/roles [post]
func (h *UserHandler) AddRole(c echo.Context) error {
	var req roleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := h.users.AddRoleToUser(c.Request().Context(), c.Param("id"), domain.Role(req.Role))
	if err != nil {
		metrics.RoleMutationsTotal.WithLabelValues("grant", "failure").Inc()
		return err
	}

	outcome := "success"
	if !result.Succeeded() {
		outcome = "failure"
	}
	metrics.RoleMutationsTotal.WithLabelValues("grant", outcome).Inc()
	return c.JSON(http.StatusOK, result)
}

// RemoveRole revokes a role from a user.
//
// @Summary      Revoke a role
// @Tags         admin
// @Produce      json
// @Param        id    path      string  true  "User id"
// @Param        role  path      string  true  "Role to revoke"
// @Success      200   {object}  domain.Result
// @Failure      400   {object}  api.Problem
// @Failure      404   {object}  api.Problem
// @Router       /api/admin/user/{id}/roles/{role} [delete]
func (h *UserHandler) RemoveRole(c echo.Context) error {
	result, err := h.users.RemoveRoleFromUser(c.Request().Context(), c.Param("id"), domain.Role(c.Param("role")))
	if err != nil {
		metrics.RoleMutationsTotal.WithLabelValues("revoke", "failure").Inc()
		return err
	}

	outcome := "success"
	if !result.Succeeded() {
		outcome = "failure"
	}
	metrics.RoleMutationsTotal.WithLabelValues("revoke", outcome).Inc()
	return c.JSON(http.StatusOK, result)
}

// EmailFree reports whether an email is available for a new account.
//
// @Summary      Check email availability
// @Tags         admin
// @Produce      json
// @Param        email  query     string  true  "Email to check"
// @Success      200    {object}  emailFreeResponse
// @Router       /api/admin/user/emailfree [get]
func (h *UserHandler) EmailFree(c echo.Context) error {
	free, err := h.users.IsEmailFree(c.Request().Context(), c.QueryParam("email"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, emailFreeResponse{Free: free})
}
