package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/HonzaHezina/AIarbi/internal/domain"
	"github.com/HonzaHezina/AIarbi/internal/server/handler"
	"github.com/HonzaHezina/AIarbi/internal/server/middleware"
	"github.com/HonzaHezina/AIarbi/internal/server/ws"
)

// Rate limit applied to the scan trigger endpoint.
const (
	scanTriggerLimit  = 10
	scanTriggerWindow = time.Minute
)

// Config holds the HTTP server configuration.
type Config struct {
	Addr        string
	CORSOrigins []string
	APIKey      string             // if empty, authentication is disabled
	Limiter     domain.RateLimiter // if nil, the scan trigger is unthrottled
}

// Handlers aggregates all HTTP handlers that the server needs to register.
type Handlers struct {
	Health        *handler.HealthHandler
	Opportunities *handler.OpportunityHandler
	Stats         *handler.StatsHandler
	Scan          *handler.ScanHandler
}

// Server is the headless HTTP + WebSocket API for the arbitrage engine.
type Server struct {
	httpServer *http.Server
	mux        *http.ServeMux
	logger     *slog.Logger
}

// NewServer creates a new Server with all routes registered on the ServeMux.
// It wires up middleware (logging, CORS, auth) and attaches the WebSocket hub.
func NewServer(cfg Config, handlers Handlers, wsHub *ws.Hub, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	// --- Register routes ---

	// Health check (no auth required).
	mux.HandleFunc("GET /health", handlers.Health.HealthCheck)

	// Latest scan results.
	mux.HandleFunc("GET /api/opportunities", handlers.Opportunities.ListOpportunities)

	// Scan statistics.
	mux.HandleFunc("GET /api/stats", handlers.Stats.GetStats)

	// Manual scan trigger, rate limited when a limiter is configured.
	var trigger http.Handler = http.HandlerFunc(handlers.Scan.TriggerScan)
	if cfg.Limiter != nil {
		trigger = middleware.RateLimit(cfg.Limiter, scanTriggerLimit, scanTriggerWindow)(trigger)
	}
	mux.Handle("POST /api/scan", trigger)

	// WebSocket endpoint.
	if wsHub != nil {
		mux.HandleFunc("GET /ws", wsHub.HandleWS)
	}

	// Build the middleware chain.
	var h http.Handler = mux

	// Apply auth middleware (skips if APIKey is empty).
	h = middleware.Auth(cfg.APIKey)(h)

	// Apply request logging middleware.
	h = middleware.Logging(logger)(h)

	// Apply CORS middleware.
	h = middleware.CORS(cfg.CORSOrigins)(h)

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: srv,
		mux:        mux,
		logger:     logger,
	}
}

// Start begins listening for HTTP requests. It blocks until the server
// encounters an error or is shut down.
func (s *Server) Start() error {
	s.logger.Info("server: starting",
		slog.String("addr", s.httpServer.Addr),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server, waiting for in-flight requests
// to complete within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server: shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
