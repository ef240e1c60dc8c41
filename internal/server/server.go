// Package server runs the console's HTTP listener.
//
// It mounts the application handler behind request-ID, recovery and access
// log middleware, exposes the health probes and drains connections on
// shutdown.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/felixgeelhaar/retailctl/internal/health"
	"github.com/felixgeelhaar/retailctl/internal/log"
	"github.com/felixgeelhaar/retailctl/internal/metrics"
)

// Server provides HTTP server functionality with health endpoints.
type Server struct {
	httpServer      *http.Server
	probeManager    *health.ProbeManager
	logger          *log.Logger
	inShutdown      atomic.Bool
	shutdownTimeout time.Duration
}

// Config holds server configuration.
type Config struct {
	// Address is the listen address, e.g. "127.0.0.1:8088".
	Address string

	// ShutdownTimeout bounds connection draining. Defaults to 10 seconds.
	ShutdownTimeout time.Duration

	// ReadTimeout defaults to 15 seconds.
	ReadTimeout time.Duration

	// WriteTimeout defaults to 15 seconds.
	WriteTimeout time.Duration

	// IdleTimeout defaults to 60 seconds.
	IdleTimeout time.Duration

	// Metrics instruments requests when set.
	Metrics *metrics.Metrics

	// MetricsHandler is served on GET /metrics when set.
	MetricsHandler http.Handler
}

func (c Config) withDefaults() Config {
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = 10 * time.Second
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 15 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 15 * time.Second
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 60 * time.Second
	}
	return c
}

// NewServer wraps app with the console middleware and health endpoints.
func NewServer(probeManager *health.ProbeManager, app http.Handler, cfg Config, logger *log.Logger) *Server {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = log.Discard()
	}

	s := &Server{
		probeManager:    probeManager,
		logger:          logger,
		shutdownTimeout: cfg.ShutdownTimeout,
	}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(AccessLog(logger))
	r.Use(Instrument(cfg.Metrics))
	r.Use(Recovery(logger))

	r.Get("/health/live", s.handleLiveness)
	r.Get("/health/ready", s.handleReadiness)
	r.Get("/health/startup", s.handleStartup)
	if cfg.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.MetricsHandler)
	}
	if app != nil {
		r.Mount("/", app)
	}

	s.httpServer = &http.Server{
		Addr:         cfg.Address,
		Handler:      r,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return s
}

// Handler returns the root handler; tests serve it through httptest.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Addr is the configured listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Start listens on the configured address and blocks. It returns
// http.ErrServerClosed after Shutdown.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.httpServer.Addr, err)
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln and blocks.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("console listening", "addr", ln.Addr().String())
	return s.httpServer.Serve(ln)
}

// Shutdown fails readiness, stops keep-alives and waits for in-flight
// requests up to the shutdown timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	s.inShutdown.Store(true)
	s.probeManager.MarkShutdown()
	s.httpServer.SetKeepAlivesEnabled(false)

	shutdownCtx, cancel := context.WithTimeout(ctx, s.shutdownTimeout)
	defer cancel()

	return s.httpServer.Shutdown(shutdownCtx)
}

// IsShuttingDown returns whether the server is shutting down.
func (s *Server) IsShuttingDown() bool {
	return s.inShutdown.Load()
}

func (s *Server) writeProbeResponse(w http.ResponseWriter, result *health.ProbeResult, unhealthyStatus int) {
	w.Header().Set("Content-Type", "application/json")
	if result.Status == health.StatusUnhealthy {
		w.WriteHeader(unhealthyStatus)
	} else {
		w.WriteHeader(http.StatusOK)
	}

	if err := json.NewEncoder(w).Encode(result); err != nil {
		s.logger.Warn("encode probe response", "error", err)
	}
}

// GET /health/live always answers 200, degraded during shutdown.
func (s *Server) handleLiveness(w http.ResponseWriter, r *http.Request) {
	s.writeProbeResponse(w, s.probeManager.CheckLiveness(r.Context()), http.StatusOK)
}

// GET /health/ready answers 503 when shutting down or a checker is unhealthy.
func (s *Server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	s.writeProbeResponse(w, s.probeManager.CheckReadiness(r.Context()), http.StatusServiceUnavailable)
}

// GET /health/startup answers 503 until the stored session is restored.
func (s *Server) handleStartup(w http.ResponseWriter, r *http.Request) {
	s.writeProbeResponse(w, s.probeManager.CheckStartup(r.Context()), http.StatusServiceUnavailable)
}
