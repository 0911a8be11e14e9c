// Package server is the hosted translate function: a small HTTP service that
// forwards batches to a chat-completion provider with the fixed translation
// prompt. provider.FunctionProvider is its client.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/ZaguanLabs/dobhasi"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// DefaultMaxTexts caps the number of texts in one request.
const DefaultMaxTexts = 200

// Server serves POST /translate, GET /healthz and GET /metrics.
type Server struct {
	provider        dobhasi.AIProvider
	logger          *zap.Logger
	apiKey          string
	maxTexts        int
	shutdownTimeout time.Duration
	router          *gin.Engine
}

// Option is a functional option for configuring the Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithAPIKey requires "Authorization: Bearer <key>" on /translate.
func WithAPIKey(key string) Option {
	return func(s *Server) {
		s.apiKey = key
	}
}

// WithMaxTexts caps the batch size.
func WithMaxTexts(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxTexts = n
		}
	}
}

// WithShutdownTimeout bounds graceful shutdown in Run.
func WithShutdownTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.shutdownTimeout = d
		}
	}
}

// New creates a server in front of provider.
func New(provider dobhasi.AIProvider, opts ...Option) *Server {
	s := &Server{
		provider:        provider,
		logger:          zap.NewNop(),
		maxTexts:        DefaultMaxTexts,
		shutdownTimeout: 10 * time.Second,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.router = s.routes()
	return s
}

func (s *Server) routes() *gin.Engine {
	router := gin.New()
	router.Use(requestID(), requestLogger(s.logger), recovery(s.logger))

	// Health check and metrics (no auth required)
	router.GET("/healthz", s.health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.POST("/translate", bearerAuth(s.apiKey), s.translate)

	return router
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run listens on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("translate function listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	s.logger.Info("shutting down translate function")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
