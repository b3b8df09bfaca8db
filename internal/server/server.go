// Package server exposes the converter over HTTP: GET /health and
// POST /convert, behind CORS, request-size and logging middleware.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/rs/cors"

	"github.com/alnah/go-html2pdf"
)

// Converter is the job lifecycle the handlers drive.
type Converter interface {
	Convert(ctx context.Context, filename string, body io.Reader) (*html2pdf.Result, error)
	Release(job *html2pdf.Job)
	Discard(job *html2pdf.Job)
	MaxFileSize() int64
}

var _ Converter = (*html2pdf.Converter)(nil)

// Default HTTP timeouts. There is no write timeout: large PDFs over slow
// links are bounded by the client, not the server.
const (
	defaultReadHeaderTimeout = 10 * time.Second
	defaultIdleTimeout       = 120 * time.Second
	defaultShutdownTimeout   = 10 * time.Second
)

// Options configures the HTTP layer.
type Options struct {
	AllowedOrigins    []string
	ReadHeaderTimeout time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration

	// RateLimit caps POST /convert at this many requests per second
	// across all clients; 0 disables it. RateBurst defaults to ceil(RateLimit).
	RateLimit float64
	RateBurst int
}

// Server wires handlers and middleware around a Converter.
type Server struct {
	conv   Converter
	logger *slog.Logger
	opts   Options
}

// New creates a Server. A nil logger uses slog.Default().
func New(conv Converter, logger *slog.Logger, opts Options) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.ReadHeaderTimeout <= 0 {
		opts.ReadHeaderTimeout = defaultReadHeaderTimeout
	}
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = defaultIdleTimeout
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = defaultShutdownTimeout
	}
	return &Server{conv: conv, logger: logger, opts: opts}
}

// Handler returns the routed handler with middleware applied.
// Order, outermost first: logging, CORS, content-length guard, routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("POST /convert", RateLimit(s.opts.RateLimit, s.opts.RateBurst)(http.HandlerFunc(s.handleConvert)))

	c := cors.New(cors.Options{
		AllowedOrigins:   s.opts.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: false,
	})

	var h http.Handler = mux
	h = LimitContentLength(s.conv.MaxFileSize())(h)
	h = c.Handler(h)
	h = LoggingMiddleware(s.logger)(h)
	return h
}

// Serve serves on ln until ctx is canceled, then shuts down gracefully.
// In-flight requests get ShutdownTimeout to finish.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: s.opts.ReadHeaderTimeout,
		IdleTimeout:       s.opts.IdleTimeout,
		ErrorLog:          slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}
