// Package status serves the client's prometheus metrics and a JSON view of
// the current session over HTTP.
package status

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gafferongames/cubes/internal/client"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const shutdownTimeout = 2 * time.Second

type Option func(cfg *config)

type config struct {
	logger *slog.Logger
}

func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) {
		cfg.logger = logger
	}
}

// Server is written to by the frame loop through Publish and read by HTTP
// handlers on other goroutines.
type Server struct {
	logger  *slog.Logger
	router  chi.Router
	session atomic.Pointer[client.Status]
}

func New(gatherer prometheus.Gatherer, opts ...Option) *Server {
	cfg := config{
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	s := &Server{
		logger: cfg.logger,
		router: chi.NewRouter(),
	}

	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.GetHead)
	s.router.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	s.router.Get("/session", s.handleSession)
	return s
}

// Publish replaces the session view served on /session.
func (s *Server) Publish(st client.Status) {
	s.session.Store(&st)
}

func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	st := s.session.Load()
	if st == nil {
		http.Error(w, "no session yet", http.StatusServiceUnavailable)
		return
	}

	data, err := json.Marshal(st)
	if err != nil {
		s.logger.Warn("failed to encode session", "error", err)
		http.Error(w, "cannot encode session", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(append(data, '\n')); err != nil {
		s.logger.Debug("failed to write session", "remote", r.RemoteAddr, "error", err)
	}
}

// Serve answers requests on ln until ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("failed to shut down status server", "error", err)
		}
	}()

	s.logger.Info("serving status", "address", ln.Addr())
	err := srv.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		<-stopped
		return nil
	}
	return fmt.Errorf("serving status on %q: %w", ln.Addr(), err)
}

func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("binding to tcp %q: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}
