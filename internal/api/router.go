package api

import (
	"context"
	"sync"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/99minutos/business-units/internal/api/handler"
	"github.com/99minutos/business-units/internal/api/middleware"
	"github.com/99minutos/business-units/internal/core/ports"
	// Registers the Swagger document served on /swagger/*.
	_ "github.com/99minutos/business-units/internal/docs"
)

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies are the collaborators the router wires into handlers.
type Dependencies struct {
	AuthService         ports.AuthService
	BusinessUnitService ports.BusinessUnitService
	Tokens              ports.TokenVerifier
	Logger              zerolog.Logger

	// Postgres is required for readiness; Redis is probed only when set.
	Postgres Pinger
	Redis    handler.Check
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(deps.Logger))
	e.Use(httpMetrics())

	// --- Dependencies ---
	authHandler := handler.NewAuthHandler(deps.AuthService)
	unitHandler := handler.NewBusinessUnitHandler(deps.BusinessUnitService)
	authMiddleware := middleware.Auth(deps.Tokens)

	e.GET("/", handler.Root)

	// --- Business units (mounted with and without the /api prefix) ---
	for _, prefix := range []string{"", "/api"} {
		g := e.Group(prefix + "/business-units")
		g.POST("", unitHandler.Create)
		g.GET("", unitHandler.List)
	}

	// --- Users ---
	users := e.Group("/api/users")
	users.POST("/register", authHandler.Register)
	users.POST("/login", authHandler.Login)
	users.GET("/me", authHandler.Me, authMiddleware)

	// --- Health probes (no auth required) ---
	checks := map[string]handler.Check{}
	if deps.Postgres != nil {
		checks["postgres"] = deps.Postgres.Ping
	}
	if deps.Redis != nil {
		checks["redis"] = deps.Redis
	}
	e.GET("/health", handler.NewHealthHandler().Liveness)
	e.GET("/health/ready", handler.NewReadinessHandler(checks, deps.Logger).Readiness)

	// --- Ops ---
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

var (
	httpMetricsOnce sync.Once
	httpMetricsMW   echo.MiddlewareFunc
)

// httpMetrics returns the request counter/latency middleware. Its collectors
// live in the default registry, so it is built once per process.
func httpMetrics() echo.MiddlewareFunc {
	httpMetricsOnce.Do(func() {
		httpMetricsMW = echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
			Subsystem: "business_units",
			Skipper: func(c echo.Context) bool {
				return c.Path() == "/metrics"
			},
		})
	})
	return httpMetricsMW
}

// requestLogger emits one zerolog line per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			evt := log.Info()
			if v.Status >= 500 {
				evt = log.Error().Err(v.Error)
			}
			evt.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
