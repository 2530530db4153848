// Package statusserver exposes a minimal HTTP endpoint for operators who run
// this tool as a scheduled job and want to scrape progress: a liveness check
// and the Prometheus metrics registry, for the duration of one invocation.
package statusserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server serves /healthz and /metrics on a fixed address.
type Server struct {
	addr   string
	logger *slog.Logger

	mu     sync.Mutex
	status string
	srv    *http.Server
}

// New returns a Server bound to addr (e.g. ":9191"), not yet listening.
func New(addr string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{addr: addr, logger: logger, status: "starting"}
}

// SetStatus updates the text returned by /healthz.
func (s *Server) SetStatus(status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	status := s.status
	s.mu.Unlock()

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, status)
}

// Start begins serving in a background goroutine and returns immediately.
func (s *Server) Start() {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())

	s.srv = &http.Server{Addr: s.addr, Handler: mux}

	go func() {
		s.logger.Info("status server listening", slog.String("addr", s.addr))
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Warn("status server stopped", slog.String("error", err.Error()))
		}
	}()
}

// Shutdown stops the server, waiting up to the given timeout for in-flight
// requests to finish.
func (s *Server) Shutdown(timeout time.Duration) error {
	if s.srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.srv.Shutdown(ctx)
}
