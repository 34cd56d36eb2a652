// Package api exposes the automation engine over HTTP: a chi router with
// request logging, panic recovery, CORS and API-key admission, answering
// with the {success,data,meta}/{success,error} envelope.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/Leo190198/promoShare/internal/config"
)

// Server is the admin API server.
type Server struct {
	config  config.ServerConfig
	handler http.Handler
	server  *http.Server
}

// NewServer creates the API server around the automation service.
func NewServer(cfg config.ServerConfig, svc AutomationService) *Server {
	h := NewHandlers(svc)
	return &Server{
		config:  cfg,
		handler: SetupRoutes(h, cfg.APIKey),
	}
}

// ListenAndServe starts the HTTP server on the configured address.
func (s *Server) ListenAndServe() error {
	s.server = &http.Server{
		Addr:    s.config.Addr(),
		Handler: s.handler,
		// Payloads are small JSON bodies; tight timeouts keep a stuck
		// client from pinning a worker.
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Handler returns the HTTP handler for testing.
func (s *Server) Handler() http.Handler {
	return s.handler
}
