// Package server exposes the gateway's HTTP surface: a chi router whose
// resource routes run behind the tenant middleware, and a thin wrapper
// around http.Server with graceful shutdown.
package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/koustreak/OrgRoute/internal/config"
	"github.com/koustreak/OrgRoute/internal/logger"
	"github.com/koustreak/OrgRoute/internal/tenant"
)

// Router assembles the full gateway handler. Resource routes resolve a
// tenant first; the health route does not, so probes work even when a
// tenant backend is down.
func Router(h *Handler, resolver tenant.Resolver, registry *tenant.Registry, log *logger.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(requestLogger(log))
	r.Use(recoverer)

	r.Get("/healthz", h.healthz)

	r.Group(func(r chi.Router) {
		r.Use(tenant.Middleware(resolver, registry))
		for _, op := range operations {
			r.Method(op.method, op.path, h.handle(op))
		}
	})

	return r
}

// Server wraps http.Server with config-driven timeouts and graceful shutdown.
type Server struct {
	srv             *http.Server
	log             *logger.Logger
	shutdownTimeout config.Duration
}

// NewServer builds the listener for the assembled handler.
func NewServer(cfg config.ServerConfig, handler http.Handler, log *logger.Logger) *Server {
	return &Server{
		srv: &http.Server{
			Addr:         cfg.Addr,
			Handler:      handler,
			ReadTimeout:  cfg.ReadTimeout.Std(),
			WriteTimeout: cfg.WriteTimeout.Std(),
		},
		log:             log,
		shutdownTimeout: cfg.ShutdownTimeout,
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully within the
// configured timeout. In-flight requests get to finish; new connections are
// refused immediately.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.srv.ListenAndServe()
	}()

	s.log.Infof("listening on %s", s.srv.Addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout.Std())
		defer cancel()

		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		err := <-errCh
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case err := <-errCh:
		return err
	}
}
