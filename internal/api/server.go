package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/alexanderramin/roofline/internal/config"
	"github.com/alexanderramin/roofline/internal/service"
)

// Services are the use cases the HTTP layer exposes.
type Services struct {
	Ledger    service.TimeTrackingService
	Jobs      service.JobService
	Customers service.CustomerService
	Users     service.UserService
}

// Server maps HTTP routes onto Services.
type Server struct {
	svc    Services
	logger *slog.Logger
	mux    *http.ServeMux
}

func NewServer(svc Services, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Server{svc: svc, logger: logger, mux: http.NewServeMux()}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
	})

	s.mux.Handle("POST /api/time-tracking/clock-in", s.authed(s.clockIn))
	s.mux.Handle("POST /api/time-tracking/clock-out", s.authed(s.clockOut))
	s.mux.Handle("GET /api/time-tracking/status", s.authed(s.clockStatus))
	s.mux.Handle("GET /api/time-tracking/entries", s.authed(s.listEntries))
	s.mux.Handle("PUT /api/time-tracking/entries/{id}/approve", s.authed(s.approveEntry))
	s.mux.Handle("PUT /api/time-tracking/entries/{id}/reject", s.authed(s.rejectEntry))

	s.mux.Handle("GET /api/jobs", s.authed(s.listJobs))
	s.mux.Handle("POST /api/jobs", s.authed(s.createJob))
	s.mux.Handle("GET /api/jobs/stats", s.authed(s.jobStats))
	s.mux.Handle("GET /api/jobs/{id}", s.authed(s.getJob))
	s.mux.Handle("PUT /api/jobs/{id}", s.authed(s.updateJob))
	s.mux.Handle("DELETE /api/jobs/{id}", s.authed(s.deleteJob))
	s.mux.Handle("PUT /api/jobs/{id}/assign", s.authed(s.assignJob))
	s.mux.Handle("POST /api/jobs/{id}/recalculate", s.authed(s.recalculateJob))

	s.mux.Handle("GET /api/customers", s.authed(s.listCustomers))
	s.mux.Handle("POST /api/customers", s.authed(s.createCustomer))
	s.mux.Handle("GET /api/customers/{id}", s.authed(s.getCustomer))
	s.mux.Handle("PUT /api/customers/{id}", s.authed(s.updateCustomer))
	s.mux.Handle("DELETE /api/customers/{id}", s.authed(s.deleteCustomer))

	s.mux.Handle("GET /api/users", s.authed(s.listUsers))
	s.mux.Handle("POST /api/users", s.authed(s.createUser))
	s.mux.Handle("GET /api/users/me", s.authed(s.me))
	s.mux.Handle("PUT /api/users/{id}/deactivate", s.authed(s.deactivateUser))
}

// Handler returns the routed handler wrapped in panic recovery and request
// logging.
func (s *Server) Handler() http.Handler {
	return s.logRequests(s.recoverPanics(s.mux))
}

// Run serves on cfg.Addr until ctx is cancelled, then drains in-flight
// requests for at most the shutdown timeout.
func (s *Server) Run(ctx context.Context, cfg config.ServerConfig) error {
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  cfg.ReadTimeout(),
		WriteTimeout: cfg.WriteTimeout(),
		IdleTimeout:  cfg.IdleTimeout(),
		ErrorLog:     slog.NewLogLogger(s.logger.Handler(), slog.LevelError),
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http_listen", "addr", cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving http: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
	defer cancel()
	s.logger.Info("http_shutdown", "timeout_ms", cfg.ShutdownTimeoutMs)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}
	return nil
}
