package router

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/studioops/backend/internal/infrastructure/config"
	"github.com/studioops/backend/internal/infrastructure/logger"
	"github.com/studioops/backend/internal/interfaces/http/middleware"
)

// RouteRegistrar is implemented by handlers that register their own routes.
type RouteRegistrar interface {
	RegisterRoutes(api *gin.RouterGroup)
}

// Router owns the gin engine and the versioned API group.
type Router struct {
	engine *gin.Engine
	api    *gin.RouterGroup
}

// New builds the engine with the standard middleware chain: request ID,
// structured request logging, panic recovery, CORS, and tracing when the
// collector is configured.
func New(cfg *config.Config, log *zap.Logger) *Router {
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		_ = engine.SetTrustedProxies(cfg.HTTP.TrustedProxies)
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.GinMiddleware(log))
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.CORS(&cfg.HTTP))
	if cfg.Telemetry.Enabled {
		engine.Use(otelgin.Middleware(cfg.Telemetry.ServiceName))
	}

	return &Router{
		engine: engine,
		api:    engine.Group("/api/v1"),
	}
}

// Register wires each handler's routes into the API group.
func (r *Router) Register(registrars ...RouteRegistrar) {
	for _, registrar := range registrars {
		registrar.RegisterRoutes(r.api)
	}
}

// Engine exposes the underlying gin engine for the HTTP server.
func (r *Router) Engine() *gin.Engine {
	return r.engine
}
