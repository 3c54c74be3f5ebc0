// Package api is the HTTP boundary of the storefront builder. It decodes
// transport concerns (JSON bodies, rate limits, CORS) and delegates all
// engine semantics to the builder package.
package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/storeforge/storeforge/internal/builder"
)

// ServerConfig contains configuration for creating the API server.
type ServerConfig struct {
	Logger      *slog.Logger
	Engine      *builder.Controller // Required
	Pinger      Pinger              // Optional: nil degrades /ready to liveness
	CORSOrigins []string            // Allowed origins for CORS
	TrustProxy  bool                // Trust X-Real-IP/X-Forwarded-For headers
	RateBurst   int                 // Rate limiter burst size per IP (0 = default 60)
}

// Server is the JSON API HTTP server.
type Server struct {
	mux *http.ServeMux
}

// NewServer creates a new API server with all routes configured.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Engine == nil {
		return nil, errors.New("builder engine is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	bh := &builderHandler{engine: cfg.Engine, logger: logger}

	mux := http.NewServeMux()

	// Builder
	mux.HandleFunc("POST /api/v1/builder/chat", bh.chat)
	mux.HandleFunc("POST /api/v1/builder/reset", bh.reset)
	mux.HandleFunc("GET /api/v1/builder/context/{session_id}", bh.context)

	// Shopper-facing chat
	mux.HandleFunc("POST /api/v1/shop/chat", bh.shopChat)

	// Rate limiter: per-IP token bucket (1 token/sec refill)
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 60
	}
	rl := newRateLimiter(1.0, burst)

	// Build middleware stack (outermost first):
	//   Recovery → RequestID → Logging → CORS → RateLimit → Routes
	// RequestID must be before Logging so request_id is available in log
	// attributes. CORS must be before RateLimit so preflight OPTIONS gets
	// proper CORS headers.
	var handler http.Handler = mux
	handler = rateLimitMiddleware(rl, cfg.TrustProxy, logger)(handler)
	handler = corsMiddleware(cfg.CORSOrigins)(handler)
	handler = loggingMiddleware(logger)(handler)
	handler = requestIDMiddleware()(handler)
	handler = recoveryMiddleware(logger)(handler)

	// Health probes bypass the middleware stack.
	topMux := http.NewServeMux()
	topMux.HandleFunc("GET /health", health)
	topMux.Handle("GET /ready", readiness(cfg.Pinger))
	topMux.Handle("/", handler)

	return &Server{mux: topMux}, nil
}

// Handler returns the server as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}
