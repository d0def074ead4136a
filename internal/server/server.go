package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/stacks/internal/shared"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
// Common middleware includes logging, request ids, panic recovery, CORS, etc.
type Middleware func(http.Handler) http.Handler

// Handler defines the interface for HTTP request handlers that own their routes.
// Implementations handle specific endpoints (remote control transport, status).
type Handler interface {
	http.Handler      // ServeHTTP handles the HTTP request and writes the response
	Routes() []string // Routes returns the path patterns this handler serves
}

// Router defines the interface for HTTP routing and middleware management.
// Implementations register handlers, apply middleware, and configure the HTTP server.
type Router interface {
	Use(middleware ...Middleware)                     // Use adds middleware to the router's middleware stack
	Handle(method, path string, handler http.Handler) // Handle registers a handler for the specified method and path
	Handler(handler Handler)                          // Handler registers a custom Handler implementation
	ServeHTTP(w http.ResponseWriter, r *http.Request) // ServeHTTP implements http.Handler for the entire router
}

const shutdownTimeout = 5 * time.Second

// Server is the remote-control HTTP server.
type Server struct {
	addr   string
	router *BasicRouter
	remote *Remote
	logger *log.Logger
}

// New wires the status endpoints and the socket.io remote onto a [BasicRouter].
func New(cfg shared.ServerConfig, p Player, logger *log.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}

	router := NewBasicRouter()
	router.Use(Recover(logger), RequestID, Logging(logger))

	status := &StatusHandler{player: p}
	router.Handle(http.MethodGet, "/health", http.HandlerFunc(status.Health))
	router.Handle(http.MethodGet, "/api/state", http.HandlerFunc(status.State))

	remote := NewRemote(p, logger, opts...)
	router.Handler(remote)

	return &Server{addr: cfg.Addr(), router: router, remote: remote, logger: logger}
}

// Handler returns the fully wrapped router.
func (s *Server) Handler() http.Handler { return s.router }

// Remote returns the socket.io transport.
func (s *Server) Remote() *Remote { return s.remote }

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is [Server.ListenAndServe] on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	httpServer := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go s.remote.Run(ctx)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("remote control listening", "addr", ln.Addr().String())
		errCh <- httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		s.remote.Close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.remote.Close()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	s.logger.Info("remote control stopped")
	return nil
}
