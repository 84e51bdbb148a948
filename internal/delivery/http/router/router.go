package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/user/revenue-tracker/internal/delivery/http/handler"
	"github.com/user/revenue-tracker/internal/delivery/http/middleware"
	"github.com/user/revenue-tracker/pkg/metrics"
)

// New builds the API router. gatherer backs the /metrics endpoint.
func New(h *handler.Handler, m *metrics.Metrics, gatherer prometheus.Gatherer, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logging(logger))
	r.Use(middleware.Metrics(m))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))

	r.Get("/api/health", h.HandleHealthCheck)
	r.Get("/api/sources", h.HandleListSources)
	r.Get("/api/candidates", h.HandleListCandidates)
	r.Post("/api/runs", h.HandleStartRun)
	r.Get("/api/runs/last", h.HandleLastRun)

	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	return r
}
