// Package httpserver assembles the careguide HTTP surface and runs it.
//
// Requests are dispatched by raw path prefix, never cleaned: /api/ goes to
// the JSON API, the metrics path (when enabled) to Prometheus, and
// everything else to the static responder.
package httpserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/careguide/careguide/server/internal/config"
	"github.com/careguide/careguide/server/internal/metrics"
	"github.com/careguide/careguide/server/internal/middleware"
)

// Route groups used for request metrics.
const (
	RouteAPI     = "api"
	RouteMetrics = "metrics"
	RouteStatic  = "static"
)

const apiPrefix = "/api/"

// Options holds the handlers the router dispatches to.
type Options struct {
	API     http.Handler
	Static  http.Handler
	Metrics *metrics.Metrics // nil disables /metrics and request counting
	Logger  *slog.Logger     // nil means slog.Default()
}

// Server is the careguide HTTP server.
type Server struct {
	cfg     config.ServerConfig
	handler http.Handler
	logger  *slog.Logger
}

// New builds the router and middleware chain for cfg.
func New(cfg *config.Config, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := &router{api: opts.API, static: opts.Static}
	if opts.Metrics != nil && cfg.Metrics.Enabled {
		r.metricsPath = cfg.Metrics.Path
		r.metrics = opts.Metrics.Handler()
	}

	chain := middleware.Chain(
		middleware.RequestID,
		middleware.Logger(logger),
		middleware.Metrics(opts.Metrics, r.group),
		middleware.Recovery(logger),
	)

	return &Server{
		cfg:     cfg.Server,
		handler: chain(r),
		logger:  logger,
	}
}

// Handler returns the fully wrapped handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run listens on the configured port and serves until ctx is cancelled, then
// shuts down gracefully within the shutdown timeout.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.cfg.Port))
	if err != nil {
		return fmt.Errorf("httpserver: listen on port %d: %w", s.cfg.Port, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      s.handler,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
		ErrorLog:     slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("httpserver: serve: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("http server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("httpserver: shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("httpserver: serve: %w", err)
	}
	return nil
}

// LogStartup writes the startup banner. When no upstream is configured it
// also says how to enable live data.
func LogStartup(logger *slog.Logger, cfg *config.Config, datasetSize int) {
	logger.Info("careguide-server ready",
		"url", fmt.Sprintf("http://localhost:%d", cfg.Server.Port),
		"upstream_configured", cfg.Upstream.Enabled(),
		"dataset_entries", datasetSize,
	)
	if !cfg.Upstream.Enabled() {
		logger.Info("no GUIDELINES_API_BASE configured, serving sample data only; " +
			"export GUIDELINES_API_BASE (and optionally GUIDELINES_API_KEY) to enable live data")
	}
}

// router dispatches on the raw request path.
type router struct {
	api         http.Handler
	static      http.Handler
	metrics     http.Handler
	metricsPath string
}

func (rt *router) group(r *http.Request) string {
	switch {
	case strings.HasPrefix(r.URL.Path, apiPrefix):
		return RouteAPI
	case rt.metrics != nil && r.URL.Path == rt.metricsPath:
		return RouteMetrics
	default:
		return RouteStatic
	}
}

func (rt *router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch rt.group(r) {
	case RouteAPI:
		rt.api.ServeHTTP(w, r)
	case RouteMetrics:
		rt.metrics.ServeHTTP(w, r)
	default:
		rt.static.ServeHTTP(w, r)
	}
}
