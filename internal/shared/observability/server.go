package observability

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Status is the /health payload.
type Status struct {
	Status    string    `json:"status"`
	LastBuild time.Time `json:"last_build,omitempty"`
	Errors    int       `json:"errors"`
	Message   string    `json:"message,omitempty"`
}

// StatusFunc reports the current build status. A Status other than "up"
// answers 503.
type StatusFunc func(ctx context.Context) Status

type Server struct {
	addr   string
	status StatusFunc
	server *http.Server
}

func NewServer(addr string, status StatusFunc) *Server {
	return &Server{addr: addr, status: status}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		status := Status{Status: "up"}
		if s.status != nil {
			status = s.status(r.Context())
		}
		w.Header().Set("Content-Type", "application/json")
		if status.Status != "up" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		if err := json.NewEncoder(w).Encode(status); err != nil {
			slog.Warn("health encode failed", "error", err)
		}
	})
	return mux
}

func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	slog.Info("observability server starting", "addr", s.addr)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("observability server failed", "error", err)
		}
	}()
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
