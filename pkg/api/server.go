// Package api exposes the trainer over HTTP.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/vctlabs/vct/internal/history"
	"github.com/vctlabs/vct/pkg/brain"
	"github.com/vctlabs/vct/pkg/logging"
	"github.com/vctlabs/vct/pkg/metrics"
	"github.com/vctlabs/vct/pkg/mode"
)

// ShutdownTimeout bounds how long Stop waits for in-flight requests.
const ShutdownTimeout = 5 * time.Second

// actPath is the command endpoint; the latency histogram is scoped to it.
const actPath = "/robot/act"

// Server serves the trainer API on a single port.
type Server struct {
	port  int
	brain *brain.Brain
	mode  mode.Mode

	recorder        history.Recorder
	metricsRegistry *metrics.Registry

	apiKeyConfig APIKeyConfig
	apiKeyAuth   *apiKeyAuth

	httpServer *http.Server
	listener   net.Listener
	startTime  time.Time
	version    string
	simSeed    int64
	log        *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the operational logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Server) {
		if log != nil {
			s.log = log
		}
	}
}

// WithVersion sets the version string reported by GET /status.
func WithVersion(v string) Option {
	return func(s *Server) { s.version = v }
}

// WithAPIKey sets a specific API key for authentication.
func WithAPIKey(key string) Option {
	return func(s *Server) {
		s.apiKeyConfig.Key = key
		s.apiKeyConfig.Enabled = true
	}
}

// WithAuthDisabled turns off API key authentication entirely.
func WithAuthDisabled() Option {
	return func(s *Server) { s.apiKeyConfig.Enabled = false }
}

// WithRecorder sets the history store backing GET /robot/history.
func WithRecorder(r history.Recorder) Option {
	return func(s *Server) {
		if r != nil {
			s.recorder = r
		}
	}
}

// WithMetrics sets the metrics registry. Pass the same registry the brain
// uses so command and reward counters show up on GET /metrics.
func WithMetrics(m *metrics.Registry) Option {
	return func(s *Server) {
		if m != nil {
			s.metricsRegistry = m
		}
	}
}

// WithSimSeed sets the default seed for POST /robot/simulate runs that
// don't carry their own.
func WithSimSeed(seed int64) Option {
	return func(s *Server) { s.simSeed = seed }
}

// New creates a Server for the given brain. The operating mode is taken
// from the brain and fixed for the server's lifetime.
func New(port int, b *brain.Brain, opts ...Option) (*Server, error) {
	if b == nil {
		return nil, fmt.Errorf("api: brain is required")
	}

	s := &Server{
		port:            port,
		brain:           b,
		mode:            b.Mode(),
		recorder:        history.Nop{},
		metricsRegistry: metrics.NewRegistry(),
		apiKeyConfig:    DefaultAPIKeyConfig(),
		log:             logging.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	auth, err := newAPIKeyAuth(s.apiKeyConfig, s.mode, s.log)
	if err != nil {
		return nil, err
	}
	s.apiKeyAuth = auth

	mux := http.NewServeMux()
	s.registerRoutes(mux)

	handler := correlationMiddleware(s.metricsMiddleware(auth.middleware(mux)))
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// registerRoutes sets up all API routes.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.Handle("GET /metrics", s.metricsRegistry.Handler())

	mux.HandleFunc("POST "+actPath, s.handleAct)
	mux.HandleFunc("POST /robot/simulate", s.handleSimulate)
	mux.HandleFunc("GET /robot/history", s.handleHistory)
}

// Handler returns the fully wired handler chain. Exposed for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// APIKey returns the active API key, or "" when auth is disabled.
func (s *Server) APIKey() string {
	if s.apiKeyAuth == nil {
		return ""
	}
	return s.apiKeyAuth.getKey()
}

// Start binds the listener and begins serving. Bind errors are returned
// synchronously so callers can fail before reporting the server as up.
func (s *Server) Start() error {
	s.startTime = time.Now()

	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("bind port %d: %w", s.port, err)
	}
	s.listener = ln

	s.log.Info("starting API server", "addr", ln.Addr().String(), "mode", s.mode.String())
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.log.Error("API server error", "error", err)
		}
	}()
	return nil
}

// Addr returns the bound listener address. Valid only after Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.httpServer.Addr
	}
	return s.listener.Addr().String()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}

// Uptime returns the server uptime in seconds.
func (s *Server) Uptime() int {
	return int(time.Since(s.startTime).Seconds())
}
