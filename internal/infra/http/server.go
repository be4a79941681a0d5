package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"telegram-user-bot/internal/config"
	"telegram-user-bot/internal/infra/metrics"
)

// ReadinessCheck is a dependency probed by /ready.
type ReadinessCheck interface {
	Name() string
	Ready(ctx context.Context) error
}

// Server is the admin HTTP surface: health, readiness, metrics and, in
// webhook mode, the Telegram webhook endpoint.
type Server struct {
	router *chi.Mux
	server *http.Server
	checks []ReadinessCheck
	log    *zerolog.Logger
}

func NewServer(cfg *config.Config, logger *zerolog.Logger, checks ...ReadinessCheck) *Server {
	s := &Server{router: chi.NewRouter(), checks: checks, log: logger}

	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)

	s.router.Get("/health", s.handleHealthCheck)
	s.router.Get("/ready", s.handleReady)
	s.router.Method(http.MethodGet, "/metrics", metrics.Handler())

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Admin.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Mount registers the webhook endpoint. Call before Start.
func (s *Server) Mount(path string, h http.Handler) {
	s.router.Method(http.MethodPost, path, h)
}

func (s *Server) Handler() http.Handler { return s.router }

// Start blocks serving until Shutdown.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("admin HTTP server listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK")
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	status := http.StatusOK
	report := make(map[string]string, len(s.checks))
	for _, c := range s.checks {
		if err := c.Ready(ctx); err != nil {
			s.log.Warn().Err(err).Str("check", c.Name()).Msg("readiness check failed")
			report[c.Name()] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		report[c.Name()] = "ok"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(report)
}
