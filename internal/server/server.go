// Package server exposes the compiler over HTTP in serve mode: compilation
// on demand, attention management, integrity operations, and Prometheus
// metrics.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/flemzord/loadout/internal/compiler"
	"github.com/flemzord/loadout/internal/config"
	"github.com/flemzord/loadout/internal/engine"
	"github.com/flemzord/loadout/internal/workspace"
)

const (
	defaultReadTimeout     = 10 * time.Second
	defaultWriteTimeout    = 30 * time.Second
	defaultShutdownTimeout = 10 * time.Second
)

// Server is the HTTP surface over one Engine.
type Server struct {
	cfg       *config.Config
	engine    *engine.Engine
	ws        *workspace.Workspace
	logger    *slog.Logger
	metrics   *Metrics
	server    *http.Server
	startedAt time.Time

	mu         sync.Mutex
	lastResult *engine.Result
}

// rememberResult keeps the most recent compile result for /status.
func (s *Server) rememberResult(result engine.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastResult = &result
}

// lastReport returns the report of the most recent compile, nil if none ran.
func (s *Server) lastReport() *compiler.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastResult == nil {
		return nil
	}
	report := s.lastResult.Report
	return &report
}

// New creates a Server. The engine and workspace are shared with the
// scheduler; handlers serialize through the components' own locks.
func New(cfg *config.Config, eng *engine.Engine, ws *workspace.Workspace, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		cfg:     cfg,
		engine:  eng,
		ws:      ws,
		logger:  logger,
		metrics: NewMetrics(),
	}
}

// Metrics exposes the server's metric set so scheduled jobs can record into
// the same registry.
func (s *Server) Metrics() *Metrics { return s.metrics }

// Start binds the listen address and serves in the background.
func (s *Server) Start() error {
	addr := s.cfg.Server.Listen
	if addr == "" {
		addr = config.DefaultListen
	}

	s.startedAt = time.Now()
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.buildRouter(),
		ReadTimeout:  defaultReadTimeout,
		WriteTimeout: defaultWriteTimeout,
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(context.Background(), "tcp", addr)
	if err != nil {
		return errors.New("server: listen failed: " + err.Error())
	}

	go func() {
		s.logger.Info("server listening", "addr", addr)
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("server serve error", "error", err)
		}
	}()

	return nil
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, defaultShutdownTimeout)
	defer cancel()

	s.logger.Info("server shutting down")
	return s.server.Shutdown(shutdownCtx)
}
