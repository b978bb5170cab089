// Package api assembles the HTTP facade: route table, middleware order,
// scheduled background jobs and the server lifecycle.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/afrelay/afrelay/internal/afiptime"
	"github.com/afrelay/afrelay/internal/caea"
	"github.com/afrelay/afrelay/internal/config"
	"github.com/afrelay/afrelay/internal/middleware"
	"github.com/afrelay/afrelay/internal/observability"
	"github.com/afrelay/afrelay/internal/service"
	"github.com/afrelay/afrelay/internal/state"
	"github.com/afrelay/afrelay/internal/ticket"
)

// Deps carries everything the route table and the background jobs need.
type Deps struct {
	Config    *config.Config
	Logger    *logrus.Logger
	WSFE      *service.WSFE
	WSPCI     *service.WSPCI
	Tickets   *ticket.Manager
	Engine    *caea.Engine
	Worker    *caea.Worker
	State     *state.Store
	Collector *observability.Collector
	Time      *afiptime.Source
	Registry  *prometheus.Registry
}

// Server owns the HTTP side of the relay.
type Server struct {
	deps    Deps
	limiter *middleware.ClientLimiter
}

func NewServer(deps Deps) *Server {
	s := &Server{deps: deps}
	if deps.Config.Server.RateLimitPerMinute > 0 {
		s.limiter = middleware.NewClientLimiter(deps.Config.Server.RateLimitPerMinute, deps.Logger)
	}
	return s
}

// Run serves until ctx is cancelled, then drains in-flight requests. The
// rate limiter's window sweeper shares the server's lifetime.
func (s *Server) Run(ctx context.Context) error {
	if s.limiter != nil {
		go s.limiter.Run(ctx)
	}

	srv := &http.Server{
		Addr:         ":" + s.deps.Config.Server.Port,
		Handler:      s.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	s.deps.Logger.Infof("afrelay listening on %s (env=%s)", srv.Addr, s.deps.Config.Server.Env)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		<-errCh
		return nil
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
