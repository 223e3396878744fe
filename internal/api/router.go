package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/credgate/auth-gateway/docs"
	"github.com/credgate/auth-gateway/internal/api/handler"
	"github.com/credgate/auth-gateway/internal/api/middleware"
	"github.com/credgate/auth-gateway/internal/core/ports"
)

const defaultAuthRateLimit = 5

// Dependencies is everything the HTTP layer needs from the rest of the process.
type Dependencies struct {
	Registrar     ports.Registrar
	Authenticator ports.Authenticator
	// Checks feed the readiness probe, keyed by dependency name.
	Checks map[string]handler.Check
	Log    zerolog.Logger

	CookieSecure bool
	// AuthRateLimit is requests per second per client on /signup and /token.
	AuthRateLimit float64

	// Registerer and Gatherer default to the Prometheus default registry.
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

	registerer, gatherer := deps.Registerer, deps.Gatherer
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	rateLimit := deps.AuthRateLimit
	if rateLimit <= 0 {
		rateLimit = defaultAuthRateLimit
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestLogger(deps.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "credgate",
		Registerer: registerer,
	}))

	// --- Credential routes ---
	accountHandler := handler.NewAccountHandler(deps.Registrar, deps.Authenticator, deps.CookieSecure)
	limited := middleware.AuthRateLimit(rateLimit)

	e.POST("/signup", accountHandler.Signup, limited)
	e.POST("/token", accountHandler.Token, limited)
	e.POST("/login", accountHandler.Token, limited)
	e.GET("/logout", accountHandler.Logout)

	// --- Protected area ---
	e.GET("/dashboard", accountHandler.Dashboard, middleware.Session(deps.Authenticator))

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(deps.Checks)

	e.GET("/health", healthHandler.Liveness)           // liveness  – is the process alive?
	e.GET("/health/ready", readinessHandler.Readiness) // readiness – are dependencies up?

	// --- Operational endpoints ---
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}
