package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/crmhub/crm-backend/internal/api/handler"
	"github.com/crmhub/crm-backend/internal/api/middleware"
	"github.com/crmhub/crm-backend/internal/core/ports"
)

// Deps are the collaborators the HTTP layer needs.
type Deps struct {
	Clients       ports.ClientService
	Opportunities ports.OpportunityService
	Users         ports.UserService

	// Readiness dependencies keyed by the name reported by /health/ready.
	Readiness map[string]handler.Pinger
	Logger    zerolog.Logger

	// Registerer and Gatherer default to the prometheus globals.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Deps) *echo.Echo {
	if deps.Registerer == nil {
		deps.Registerer = prometheus.DefaultRegisterer
	}
	if deps.Gatherer == nil {
		deps.Gatherer = prometheus.DefaultGatherer
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestLogger(deps.Logger))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "crm",
		Subsystem:  "http",
		Registerer: deps.Registerer,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	}))

	// --- Health probes and metrics ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(deps.Readiness)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{
		Gatherer: deps.Gatherer,
	}))

	v1 := e.Group("/v1")

	// --- Client routes ---
	clientHandler := handler.NewClientHandler(deps.Clients)
	clients := v1.Group("/clients")
	clients.POST("", clientHandler.Create)
	clients.GET("", clientHandler.List)
	clients.GET("/lookup", clientHandler.Lookup)
	clients.GET("/:id", clientHandler.Get)
	clients.PUT("/:id", clientHandler.Update)
	clients.DELETE("/:id", clientHandler.Delete)

	// --- Opportunity routes ---
	opportunityHandler := handler.NewOpportunityHandler(deps.Opportunities)
	opportunities := v1.Group("/opportunities")
	opportunities.POST("", opportunityHandler.Create)
	opportunities.GET("", opportunityHandler.List)
	opportunities.GET("/:id", opportunityHandler.Get)
	opportunities.PUT("/:id", opportunityHandler.Update)
	opportunities.DELETE("/:id", opportunityHandler.Delete)
	opportunities.PUT("/:id/status", opportunityHandler.ChangeStatus)

	// --- User routes ---
	userHandler := handler.NewUserHandler(deps.Users)
	users := v1.Group("/users")
	users.POST("", userHandler.Create)
	users.GET("", userHandler.List)
	users.GET("/:id", userHandler.Get)
	users.PUT("/:id", userHandler.Update)

	return e
}
