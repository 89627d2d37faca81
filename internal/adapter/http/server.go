package http

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/floodplan-service/internal/dashboard"
	"github.com/couchcryptid/floodplan-service/internal/domain"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ChartRenderer turns chart specs into an HTML page, degrading to a
// placeholder when it cannot.
type ChartRenderer interface {
	RenderOrPlaceholder(w io.Writer, dashboard, title string, specs []domain.ChartSpec) error
}

// Server exposes the dashboards API alongside health, readiness, and metrics.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	dashboards map[string]*dashboard.Dashboard
	order      []string
	charts     ChartRenderer
}

// NewServer creates an HTTP server routing to the given dashboards.
func NewServer(addr string, dashboards []*dashboard.Dashboard, charts ChartRenderer, ready sharedobs.ReadinessChecker, logger *slog.Logger) *Server {
	router := mux.NewRouter()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      router,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger:     logger,
		dashboards: make(map[string]*dashboard.Dashboard, len(dashboards)),
		charts:     charts,
	}
	for _, d := range dashboards {
		s.dashboards[d.ID()] = d
		s.order = append(s.order, d.ID())
	}

	router.HandleFunc("/healthz", sharedobs.LivenessHandler()).Methods(http.MethodGet)
	router.HandleFunc("/readyz", sharedobs.ReadinessHandler(ready)).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/dashboards", s.handleList).Methods(http.MethodGet)
	api.HandleFunc("/dashboards/{id}", s.withDashboard(s.handleDashboard)).Methods(http.MethodGet)
	api.HandleFunc("/dashboards/{id}/closest", s.withDashboard(s.handleClosest)).Methods(http.MethodGet)
	api.HandleFunc("/dashboards/{id}/regions/{region}/score", s.withDashboard(s.handleScore)).Methods(http.MethodGet)
	api.HandleFunc("/dashboards/{id}/forecast", s.withDashboard(s.handleForecast)).Methods(http.MethodGet)
	api.HandleFunc("/dashboards/{id}/map", s.withDashboard(s.handleMap)).Methods(http.MethodGet)
	api.HandleFunc("/dashboards/{id}/charts", s.withDashboard(s.handleCharts)).Methods(http.MethodGet)
	api.HandleFunc("/dashboards/{id}/charts.html", s.withDashboard(s.handleChartsHTML)).Methods(http.MethodGet)
	api.HandleFunc("/dashboards/{id}/refresh", s.withDashboard(s.handleRefresh)).Methods(http.MethodPost)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr, "dashboards", s.order)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

// AllReady combines readiness checkers; the result is ready only when every
// checker is.
func AllReady(checkers ...sharedobs.ReadinessChecker) sharedobs.ReadinessChecker {
	return readinessGroup(checkers)
}

type readinessGroup []sharedobs.ReadinessChecker

func (g readinessGroup) CheckReadiness(ctx context.Context) error {
	var errs []error
	for _, c := range g {
		if err := c.CheckReadiness(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
