// internal/api/server.go
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/newthinker/stratlab/internal/api/handler/api"
	"github.com/newthinker/stratlab/internal/api/job"
	"github.com/newthinker/stratlab/internal/api/middleware"
	"github.com/newthinker/stratlab/internal/api/response"
	"github.com/newthinker/stratlab/internal/backtest"
	"github.com/newthinker/stratlab/internal/metrics"
	"github.com/newthinker/stratlab/internal/storage/results"
	"github.com/newthinker/stratlab/internal/strategy"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const healthPath = "/api/health"

// Server represents the stratlab HTTP server.
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
	mux        *http.ServeMux
	handler    http.Handler
}

// Config holds server configuration.
type Config struct {
	Host        string
	Port        int
	APIKey      string
	MaxJobs     int
	JobTTL      time.Duration
	MetricsPath string
}

// Dependencies holds the components the handlers serve. Reports and
// Metrics are optional.
type Dependencies struct {
	Backtester *backtest.Backtester
	Strategies *strategy.Registry
	Reports    *results.Store
	Metrics    *metrics.Registry
	Universe   []string
}

// NewServer creates a new HTTP server.
func NewServer(cfg Config, deps Dependencies, logger *zap.Logger) (*Server, error) {
	if deps.Backtester == nil || deps.Strategies == nil {
		return nil, fmt.Errorf("api server requires a backtester and a strategy registry")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	mux := http.NewServeMux()
	s := &Server{
		logger: logger,
		mux:    mux,
	}
	s.setupRoutes(cfg, deps)

	var handler http.Handler = mux
	handler = middleware.APIKeyAuth(cfg.APIKey, healthPath, cfg.MetricsPath)(handler)
	if deps.Metrics != nil {
		handler = metrics.HTTPMiddleware(deps.Metrics)(handler)
	}
	handler = metrics.LoggingMiddleware(logger)(handler)
	s.handler = handler

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes(cfg Config, deps Dependencies) {
	maxJobs, ttl := cfg.MaxJobs, cfg.JobTTL
	if maxJobs <= 0 {
		maxJobs = 100
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	jobs := job.NewStore(maxJobs, ttl)

	opts := []api.HandlerOption{api.WithLogger(s.logger)}
	if deps.Metrics != nil {
		opts = append(opts, api.WithMetrics(deps.Metrics))
	}
	if deps.Reports != nil {
		opts = append(opts, api.WithReports(deps.Reports))
	}

	backtests := api.NewBacktestHandler(jobs, deps.Backtester, deps.Strategies, opts...)
	sweeps := api.NewSweepHandler(jobs, deps.Backtester, opts...)
	strategies := api.NewStrategiesHandler(deps.Strategies)
	universe := api.NewUniverseHandler(deps.Universe)

	s.mux.HandleFunc("GET "+healthPath, s.handleHealth)
	s.mux.HandleFunc("GET /api/strategies", strategies.List)
	s.mux.HandleFunc("GET /api/universe", universe.List)
	s.mux.HandleFunc("POST /api/backtest", backtests.Create)
	s.mux.HandleFunc("GET /api/backtest/{id}", backtests.GetStatus)
	s.mux.HandleFunc("POST /api/sweep", sweeps.Create)
	s.mux.HandleFunc("GET /api/sweep/{id}", sweeps.GetStatus)

	if deps.Reports != nil {
		reports := api.NewReportsHandler(deps.Reports)
		s.mux.HandleFunc("GET /api/reports", reports.List)
		s.mux.HandleFunc("GET /api/reports/{path...}", reports.Get)
	}

	if deps.Metrics != nil && cfg.MetricsPath != "" {
		s.mux.Handle("GET "+cfg.MetricsPath,
			promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{Registry: deps.Metrics}))
	}
}

// Handler returns the root handler with middleware applied.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
