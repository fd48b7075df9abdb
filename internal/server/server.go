package server

import (
	"context"
	_ "embed"
	"errors"
	"log"
	"net/http"
	"time"
)

//go:embed static/index.html
var indexHTML []byte

// Composer answers a natural-language question. Failures are reported in the
// returned text, so the handler always has an answer to send.
type Composer interface {
	Compose(ctx context.Context, query string) string
}

// Config configures a new Server instance.
type Config struct {
	Composer Composer
	Chunks   func() int // Optional: ingested chunk count reported by /health
}

// Server is the HTTP boundary in front of the answer composer.
type Server struct {
	composer Composer
	chunks   func() int
}

// New creates a new Server with the given configuration.
func New(cfg Config) (*Server, error) {
	if cfg.Composer == nil {
		return nil, errors.New("server: composer is required")
	}
	chunks := cfg.Chunks
	if chunks == nil {
		chunks = func() int { return 0 }
	}
	return &Server{composer: cfg.Composer, chunks: chunks}, nil
}

// Handler returns an http.Handler for the page, query and health routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /query", s.handleQuery)
	mux.HandleFunc("GET /health", s.handleHealth)

	return requestIDMiddleware(mux)
}

// ListenAndServe serves Handler on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Printf("[server] Listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		log.Printf("[server] Shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}
