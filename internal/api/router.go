package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/jwt-pizza/pizza-service/docs"
	"github.com/jwt-pizza/pizza-service/internal/api/handler"
	"github.com/jwt-pizza/pizza-service/internal/api/middleware"
	"github.com/jwt-pizza/pizza-service/internal/core/domain"
	"github.com/jwt-pizza/pizza-service/internal/core/ports"
	"github.com/jwt-pizza/pizza-service/internal/infrastructure/http/handlers"
)

// Dependencies is everything the router wires into handlers.
type Dependencies struct {
	AuthService ports.AuthService
	// Checks feed the readiness probe, keyed by dependency name.
	Checks map[string]handlers.Check
	Log    zerolog.Logger
	// Registerer and Gatherer default to the global Prometheus registry.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	registerer := deps.Registerer
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "pizza",
		Registerer: registerer,
	}))
	e.Use(middleware.Authenticate(deps.AuthService, deps.Log))
	e.Use(middleware.RequestLogger(deps.Log))
	e.Use(middleware.BodyLogger(deps.Log))

	// --- Dependencies ---
	authHandler := handler.NewAuthHandler(deps.AuthService)
	userHandler := handler.NewUserHandler(deps.AuthService)

	// --- Auth routes ---
	auth := e.Group("/api/auth")
	auth.POST("", authHandler.Register)
	auth.PUT("", authHandler.Login)
	auth.DELETE("", authHandler.Logout)
	auth.PUT("/:userId", authHandler.UpdateUser, middleware.RequireAuth(), middleware.SelfOrAdmin("userId"))

	// --- User routes ---
	user := e.Group("/api/user", middleware.RequireAuth())
	user.GET("/me", userHandler.Me)
	user.GET("/:userId", userHandler.Get, middleware.RBAC(domain.RoleAdmin))

	// --- Health probes (no auth required) ---
	healthHandler := handlers.NewHealthHandler()
	healthDepsHandler := handlers.NewHealthDependenciesHandler(deps.Checks)

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthDepsHandler.Readiness)

	// --- Operational endpoints ---
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}
