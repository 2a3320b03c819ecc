package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// HTTPServer exposes the scheduling operations over HTTP.
type HTTPServer struct {
	server  *http.Server
	booking BookingService
	apiKey  string
	limiter *rate.Limiter
	logger  *zerolog.Logger
}

// Config holds HTTP server settings.
type Config struct {
	Port           int
	APIKey         string
	RateLimitRPS   float64
	RateLimitBurst int
}

// NewHTTPServer creates the API server and registers routes.
func NewHTTPServer(cfg Config, booking BookingService, logger *zerolog.Logger) *HTTPServer {
	s := &HTTPServer{
		booking: booking,
		apiKey:  cfg.APIKey,
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst),
		logger:  logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/availability", s.withAuth(s.handleAvailability))
	mux.HandleFunc("/api/conflict-check", s.withAuth(s.handleConflictCheck))
	mux.HandleFunc("/api/appointments", s.withAuth(s.handleCreateAppointment))
	mux.HandleFunc("/api/appointments/reschedule", s.withAuth(s.handleReschedule))
	mux.HandleFunc("/api/appointments/cancel", s.withAuth(s.handleCancel))
	mux.HandleFunc("/api/schedule/export", s.withAuth(s.handleExportDaySheet))

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Start runs the server until the context is cancelled.
func (s *HTTPServer) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

// Handler returns the underlying handler, for tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) withAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		if s.apiKey != "" && r.Header.Get("X-API-Key") != s.apiKey {
			writeError(w, http.StatusUnauthorized, "invalid API key")
			return
		}
		next(w, r)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
