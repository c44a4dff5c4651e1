package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rshade/storekit/internal/logging"
)

const readHeaderTimeout = 5 * time.Second

// Server serves /metrics for a Recorder.
type Server struct {
	server *http.Server
}

// NewServer builds a server on addr (for example ":9090").
func NewServer(rec *Recorder, addr string) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(rec.Registry(), promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	return &Server{
		server: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: readHeaderTimeout,
		},
	}
}

// Handler returns the server's routes, for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start serves in the background until Stop. Listen errors are logged.
func (s *Server) Start(ctx context.Context) {
	log := logging.FromContext(ctx)
	go func() {
		log.Info().Str("component", "metrics").Str("addr", s.server.Addr).Msg("serving metrics")
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Str("component", "metrics").Err(err).Msg("metrics server stopped")
		}
	}()
}

// Stop shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
