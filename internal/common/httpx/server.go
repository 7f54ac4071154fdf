package httpx

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"coffee-storefront/internal/config"
)

type Server struct {
	*http.Server
	shutdownTimeout time.Duration
}

func New(cfg config.ServerConfig, h http.Handler) *Server {
	return &Server{
		Server: &http.Server{
			Addr:              ":" + strconv.Itoa(cfg.Port),
			Handler:           h,
			ReadTimeout:       cfg.ReadTimeout,
			ReadHeaderTimeout: cfg.ReadTimeout,
			WriteTimeout:      cfg.WriteTimeout,
			IdleTimeout:       120 * time.Second,
		},
		shutdownTimeout: cfg.ShutdownTimeout,
	}
}

// Run serves until ctx ends, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() { errCh <- s.ListenAndServe() }()
	select {
	case <-ctx.Done():
		timeout := s.shutdownTimeout
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		ctx2, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return errors.Wrap(s.Shutdown(ctx2), "http shutdown")
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrapf(err, "listen on %s", s.Addr)
	}
}
