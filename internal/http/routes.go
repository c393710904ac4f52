// Package http exposes the task service as a JSON API.
package http

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nhle/taskboard/internal/http/handlers"
	"github.com/nhle/taskboard/internal/http/middleware"
)

// Deps are the collaborators the router wires into its handlers.
type Deps struct {
	Service handlers.TaskService
	Store   handlers.Pinger
	Limiter *middleware.RateLimiter
	Log     *slog.Logger
	Version string
}

// NewRouter builds a gin engine with recovery, request logging and metrics
// middleware and every route registered.
func NewRouter(deps Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(deps.Log))
	r.Use(middleware.Metrics())

	RegisterRoutes(r, deps)
	return r
}

// RegisterRoutes mounts health, metrics and the /api/v1 task routes on r.
func RegisterRoutes(r *gin.Engine, deps Deps) {
	health := handlers.NewHealthHandler(deps.Store, deps.Version)
	tasks := handlers.NewTaskHandler(deps.Service, deps.Log)

	// Health checks and metrics are not rate limited.
	r.GET("/healthz", health.Liveness)
	r.GET("/readyz", health.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	api.Use(deps.Limiter.Middleware())
	{
		api.GET("/tasks", tasks.List)
		api.POST("/tasks", tasks.Create)
		api.GET("/tasks/:id", tasks.Get)
		api.PUT("/tasks/:id", tasks.Update)
		api.DELETE("/tasks/:id", tasks.Delete)
		api.PATCH("/tasks/:id/complete", tasks.Complete)
		api.PATCH("/tasks/:id/pending", tasks.Reopen)
	}
}
