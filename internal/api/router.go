package api

import (
	"database/sql"
	"net/http"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/lastmile/admin-api/docs"
	"github.com/lastmile/admin-api/internal/api/handler"
	appmiddleware "github.com/lastmile/admin-api/internal/api/middleware"
	"github.com/lastmile/admin-api/internal/core/domain"
	"github.com/lastmile/admin-api/internal/core/ports"
	"github.com/lastmile/admin-api/internal/infrastructure/config"
	"github.com/lastmile/admin-api/internal/infrastructure/identity"
	"github.com/lastmile/admin-api/internal/infrastructure/jobs"
)

// Dependencies carries everything the router needs. All of it is constructed
// in main; the router only wires.
type Dependencies struct {
	Config    *config.Config
	DB        *sql.DB
	Redis     *redis.Client
	Users     ports.UserService
	Accounts  ports.AccountService
	Sessions  ports.SessionManager
	Cookies   *identity.CookieCodec
	Scheduler *jobs.Scheduler
	Logger    zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
// An invalid route policy is a construction error; the caller must not start
// the server.
func NewRouter(deps Dependencies) (*echo.Echo, error) {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("lastmile"))
	// The session cookie needs credentials; origins must be listed explicitly.
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     deps.Config.CorsOrigins,
		AllowCredentials: true,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
	}))

	// --- Handlers ---
	accountHandler := handler.NewAccountHandler(deps.Accounts, deps.Users, deps.Cookies)
	userHandler := handler.NewUserHandler(deps.Users)
	jobsHandler := handler.NewJobsHandler(deps.Scheduler)
	sessionAuth := appmiddleware.SessionAuth(deps.Sessions, deps.Cookies)

	superAdmin := []domain.Role{domain.RoleSuperAdmin}
	routes := []Route{
		// Account surface.
		{Method: http.MethodPost, Path: "/api/account/login", Handler: accountHandler.Login, Public: true},
		{Method: http.MethodPost, Path: "/api/account/logout", Handler: accountHandler.Logout},
		{Method: http.MethodGet, Path: "/api/account", Handler: accountHandler.Me},
		{Method: http.MethodPut, Path: "/api/account", Handler: accountHandler.UpdateSelf},
		{Method: http.MethodPost, Path: "/api/account/refreshcookie", Handler: accountHandler.RefreshCookie},
		{Method: http.MethodPost, Path: "/api/account/verifypassword", Handler: accountHandler.VerifyPassword},

		// Admin panel.
		{Method: http.MethodGet, Path: "/api/admin/user", Handler: userHandler.List, Roles: superAdmin},
		{Method: http.MethodPost, Path: "/api/admin/user", Handler: userHandler.Create, Roles: superAdmin},
		{Method: http.MethodGet, Path: "/api/admin/user/emailfree", Handler: userHandler.EmailFree, Roles: superAdmin},
		{Method: http.MethodGet, Path: "/api/admin/user/:id", Handler: userHandler.Get, Roles: superAdmin},
		{Method: http.MethodDelete, Path: "/api/admin/user/:id", Handler: userHandler.Delete, Roles: superAdmin},
		{Method: http.MethodPost, Path: "/api/admin/user/:id/roles", Handler: userHandler.AddRole, Roles: superAdmin},
		{Method: http.MethodDelete, Path: "/api/admin/user/:id/roles/:role", Handler: userHandler.RemoveRole, Roles: superAdmin},
		{Method: http.MethodGet, Path: "/api/admin/jobs", Handler: jobsHandler.List, Roles: superAdmin},
	}
	if err := RegisterRoutes(e, routes, sessionAuth); err != nil {
		return nil, err
	}

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(deps.DB, deps.Redis)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?

	// --- Operational surfaces ---
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/docs/public/*", echoSwagger.EchoWrapHandler(echoSwagger.InstanceName("public")))
	e.GET("/docs/admin/*", echoSwagger.EchoWrapHandler(echoSwagger.InstanceName("admin")))

	return e, nil
}
