package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"kumabeacon/internal/store"
)

const shutdownTimeout = 5 * time.Second

// Server exposes the beacon's current state over HTTP.
//
// The server is read-only: it reflects the store maintained by the poll
// loop and never touches reconciliation state itself.
type Server struct {
	store      store.Store
	addr       string
	registry   *prom.Registry
	logger     *slog.Logger
	httpServer *http.Server
	boundAddr  string
}

// NewServer creates a status [Server] on the given listen address.
//
// The registry backs the /metrics endpoint; nil disables it. The server is
// not started until [Server.Start] is called.
func NewServer(st store.Store, addr string, registry *prom.Registry, logger *slog.Logger) *Server {
	return &Server{
		store:    st,
		addr:     addr,
		registry: registry,
		logger:   logger,
	}
}

// Start begins serving in a background goroutine.
//
// Start binds the listener synchronously, so an unusable address is
// reported to the caller rather than logged from a goroutine. The server
// runs until the context is cancelled, then shuts down gracefully with a
// bounded timeout.
func (s *Server) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/healthz", s.handleHealthz)
	if s.registry != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	}

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to bind to %s: %w", s.addr, err)
	}

	s.httpServer = &http.Server{
		Handler: mux,
		// request contexts derive from the beacon context, so handlers
		// observe shutdown
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	s.boundAddr = ln.Addr().String()

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error("status server error", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("status server shutdown error", "error", err)
		}
	}()

	s.logger.Info("status server listening", "addr", ln.Addr().String())
	return nil
}

// Addr returns the bound listen address. Before Start succeeds it returns
// the configured address; after, the actual one (useful with ":0").
func (s *Server) Addr() string {
	if s.boundAddr != "" {
		return s.boundAddr
	}
	return s.addr
}

// handleStatus returns the full state overview as JSON.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")

	if err := json.NewEncoder(w).Encode(s.store.Overview()); err != nil {
		s.logger.Error("failed to encode status response", "error", err)
	}
}

// handleHealthz reports readiness: 200 only while the loop is running.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	phase := s.store.Overview().Health.Phase
	code := http.StatusServiceUnavailable
	if phase == store.PhaseRunning {
		code = http.StatusOK
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(code)
	_, _ = fmt.Fprintln(w, phase)
}
