// Package gateway runs the HTTP server that exposes webhook endpoints and
// a health check. Channels mount their handlers at runtime.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

// Server is the gateway HTTP server. Webhook handlers are mounted and
// unmounted dynamically as channels start and stop.
type Server struct {
	addr   string
	router *chi.Mux

	mu       sync.RWMutex
	handlers map[string]http.Handler

	srv *http.Server
}

// NewServer creates a gateway server listening on host:port.
func NewServer(host string, port int) *Server {
	s := &Server{
		addr:     fmt.Sprintf("%s:%d", host, port),
		handlers: make(map[string]http.Handler),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		render.JSON(w, req, map[string]string{"status": "ok"})
	})
	r.Handle("/*", http.HandlerFunc(s.dispatch))

	s.router = r
	return s
}

// Mount registers a handler at path. An existing handler at the same path
// is replaced.
func (s *Server) Mount(path string, handler http.Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[path] = handler
	log.Printf("[gateway] mounted %s", path)
}

// Unmount removes the handler at path.
func (s *Server) Unmount(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.handlers, path)
	log.Printf("[gateway] unmounted %s", path)
}

// dispatch routes requests to dynamically mounted handlers.
func (s *Server) dispatch(w http.ResponseWriter, req *http.Request) {
	s.mu.RLock()
	handler, ok := s.handlers[req.URL.Path]
	s.mu.RUnlock()

	if !ok {
		render.Status(req, http.StatusNotFound)
		render.JSON(w, req, map[string]string{"error": "Not Found"})
		return
	}
	handler.ServeHTTP(w, req)
}

// Handler returns the server's root handler (useful for testing).
func (s *Server) Handler() http.Handler {
	return s.router
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.addr
}

// Run starts the server and blocks until the context is cancelled, then
// shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	s.srv = &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[gateway] listening on %s", s.addr)
		errCh <- s.srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("gateway shutdown: %w", err)
	}
	log.Println("[gateway] stopped")
	return nil
}
