package http

import (
	"context"
	"errors"
	stdhttp "net/http"
	"time"

	"prtimeline/internal/platform/config"
	"prtimeline/internal/platform/logger"

	"github.com/go-chi/chi/v5"
)

const (
	defaultAddr  = ":4000"
	drainTimeout = 10 * time.Second
)

// Server is a thin wrapper over chi + stdlib http.Server
type Server struct {
	addr string
	mux  *chi.Mux
	srv  *stdhttp.Server
}

// NewServer builds a server listening on PORT under cfg (":4000" when unset).
// opts receive the *chi.Mux so callers can mount routes or middleware
func NewServer(cfg config.Conf, opts ...func(*chi.Mux)) *Server {
	addr := defaultAddr
	if cfg.MayString("PORT", "") != "" {
		addr = cfg.MustPort("PORT")
	}
	m := chi.NewRouter()
	for _, o := range opts {
		o(m)
	}
	return &Server{
		addr: addr,
		mux:  m,
		srv: &stdhttp.Server{
			Addr:              addr,
			Handler:           m,
			ReadHeaderTimeout: 10 * time.Second,
			WriteTimeout:      cfg.MayDuration("WRITE_TIMEOUT", 5*time.Minute),
		},
	}
}

// Router returns a Router facade over the internal chi mux
func (s *Server) Router() Router { return AdaptChi(s.mux) }

// Addr returns the listening address
func (s *Server) Addr() string { return s.addr }

// Run serves until ctx is done, then drains in flight requests
func (s *Server) Run(ctx context.Context) error {
	log := logger.Named("http")
	errc := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.addr).Msg("http listening")
		errc <- s.srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, stdhttp.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		log.Info().Msg("http shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
		defer cancel()
		return s.Shutdown(sctx)
	}
}

// Shutdown stops the server gracefully
func (s *Server) Shutdown(ctx context.Context) error { return s.srv.Shutdown(ctx) }
