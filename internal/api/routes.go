package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yegors/hamsearch/internal/config"
	"github.com/yegors/hamsearch/pkg/logger"
)

// Router is the API router
type Router struct {
	handler    *Handler
	middleware *Middleware
	gatherer   prometheus.Gatherer
	config     config.ServerConfig
	logger     *logger.Logger
}

// NewRouter creates a new API router. gatherer may be nil to leave /metrics unmounted.
func NewRouter(service Executor, auditLog AuditLog, gatherer prometheus.Gatherer, cfg config.ServerConfig, logger *logger.Logger) *Router {
	return &Router{
		handler:    NewHandler(service, auditLog, logger),
		middleware: NewMiddleware(logger),
		gatherer:   gatherer,
		config:     cfg,
		logger:     logger.Named("api-router"),
	}
}

// Routes returns the API routes
func (r *Router) Routes() http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(r.middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(r.middleware.CORS(r.config.CORSAllowedOrigins))

	router.Route("/api/v1", func(router chi.Router) {
		// Commands
		router.Get("/lookup/{callsign}", r.handler.GetLookup)
		router.Get("/stats/{callsign}", r.handler.GetStats)
		router.Get("/distance/{from}/{to}", r.handler.GetDistance)
		router.Get("/conditions", r.handler.GetConditions)

		router.Get("/audit", r.handler.GetAudit)
		router.Get("/health", r.handler.GetHealth)
	})

	if r.config.MetricsEnabled && r.gatherer != nil {
		router.Handle("/metrics", promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{}))
	}

	return router
}
