// package server contains the router, middleware and OAuth callback handling for the authorization flow
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
type Middleware func(http.Handler) http.Handler

// Handler is an [http.Handler] that knows the paths it serves.
type Handler interface {
	http.Handler      // ServeHTTP handles the HTTP request and writes the response
	Routes() []string // Routes returns the path patterns this handler serves
}

// Router defines the interface for HTTP routing and middleware management.
type Router interface {
	Use(middleware ...Middleware)                     // Use adds middleware to the router's middleware stack
	Handle(method, path string, handler http.Handler) // Handle registers a handler for the specified method and path
	Handler(handler Handler)                          // Handler registers a custom Handler implementation
	ServeHTTP(w http.ResponseWriter, r *http.Request) // ServeHTTP implements http.Handler for the entire router
}

// CallbackServer is a short-lived HTTP server bound to a loopback address.
type CallbackServer struct {
	srv      *http.Server
	listener net.Listener
	errs     chan error
	logger   *log.Logger
}

// Listen binds addr and starts serving handler in the background.
//
// Port 0 picks a free port; use [CallbackServer.Addr] for the bound address.
func Listen(addr string, handler http.Handler, logger *log.Logger) (*CallbackServer, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	s := &CallbackServer{
		srv: &http.Server{
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		listener: listener,
		errs:     make(chan error, 1),
		logger:   logger,
	}

	go func() {
		if err := s.srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.errs <- err
		}
	}()

	if logger != nil {
		logger.Info("callback server listening", "addr", s.Addr())
	}
	return s, nil
}

// Addr returns the bound host:port.
func (s *CallbackServer) Addr() string {
	return s.listener.Addr().String()
}

// URL returns an absolute http URL for path on this server.
func (s *CallbackServer) URL(path string) string {
	return "http://" + s.Addr() + path
}

// Errors receives at most one error if serving fails.
func (s *CallbackServer) Errors() <-chan error {
	return s.errs
}

// Shutdown stops the server, waiting for in-flight requests until ctx expires.
func (s *CallbackServer) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
