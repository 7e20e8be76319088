// Package server is the HTTP and WebSocket API over collected products.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/alanyoungcy/marketfuse/internal/server/handler"
	"github.com/alanyoungcy/marketfuse/internal/server/middleware"
	"github.com/alanyoungcy/marketfuse/internal/server/ws"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port        int
	CORSOrigins []string
}

// Handlers aggregates the HTTP handlers the server registers.
type Handlers struct {
	Health   *handler.HealthHandler
	Products *handler.ProductHandler
	Chat     *handler.ChatHandler
	Status   *handler.StatusHandler
}

// Server is the headless API server over the collected products.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer registers all routes and wires up the middleware chain. The
// WebSocket chat handler is optional.
func NewServer(cfg Config, handlers Handlers, chatWS *ws.ChatHandler, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)
	mux.HandleFunc("GET /api/products", handlers.Products.ListProducts)
	mux.HandleFunc("GET /api/products/search", handlers.Products.SearchProducts)
	mux.HandleFunc("POST /api/chat", handlers.Chat.Chat)
	mux.HandleFunc("GET /api/status", handlers.Status.GetStatus)

	if chatWS != nil {
		mux.HandleFunc("GET /ws/chat", chatWS.HandleWS)
	}

	var h http.Handler = mux
	h = middleware.Logging(logger)(h)
	h = middleware.CORS(cfg.CORSOrigins)(h)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: srv,
		logger:     logger,
	}
}

// Start listens for HTTP requests. It blocks until the server fails or is
// shut down.
func (s *Server) Start() error {
	s.logger.Info("server: starting", slog.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests within the context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server: shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
