package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server serves /metrics and /healthz on a dedicated listen address,
// separate from the protocol's own port, matching the teacher's
// metrics-server pattern.
type Server struct {
	http *http.Server
}

// NewServer builds a chi-routed metrics server. addr may be empty, in which
// case it returns nil — services run fine without a metrics endpoint.
func NewServer(addr string, reg *Registry) *Server {
	if addr == "" {
		return nil
	}

	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.HandlerFor(reg.Gatherer(), promhttp.HandlerOpts{}))
	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	return &Server{http: &http.Server{Addr: addr, Handler: r}}
}

// Start runs the HTTP server until ctx is cancelled. Safe to call on a nil
// *Server (addr was empty): it serves nothing and returns nil once ctx is
// cancelled.
func (s *Server) Start(ctx context.Context) error {
	if s == nil {
		<-ctx.Done()
		return nil
	}

	errCh := make(chan error, 1)
	go func() { errCh <- s.http.ListenAndServe() }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
