// Package api provides the REST API and web keypad for abacus-service.
package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/abacus/internal/config"
	"github.com/ternarybob/abacus/pkg/session"
)

// Server represents the API server.
type Server struct {
	cfg    *config.Config
	router chi.Router
	store  *session.Store
	logger arbor.ILogger
	mcp    http.Handler
}

// Option configures a Server.
type Option func(*Server)

// WithMCPHandler mounts an MCP transport at /mcp.
func WithMCPHandler(h http.Handler) Option {
	return func(s *Server) {
		s.mcp = h
	}
}

// NewServer creates a new API server.
func NewServer(cfg *config.Config, store *session.Store, logger arbor.ILogger, opts ...Option) *Server {
	s := &Server{
		cfg:    cfg,
		store:  store,
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.setupRouter()
	return s
}

// setupRouter configures all routes.
func (s *Server) setupRouter() {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	// Forwarding headers are client-controlled unless a proxy sets them,
	// and the rate limiter keys on the address RealIP produces.
	if s.cfg.API.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-API-Key"},
		ExposedHeaders:   []string{"Link", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if s.cfg.API.RateLimitPerMinute > 0 {
		r.Use(newClientLimiter(s.cfg.API.RateLimitPerMinute).middleware)
	}

	// Optional API key authentication
	if s.cfg.API.APIKey != "" {
		r.Use(s.apiKeyAuth)
	}

	// Health and version endpoints (no auth)
	r.Get("/health", s.handleHealth)
	r.Get("/version", s.handleVersion)

	if s.cfg.API.Enabled {
		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(10 * time.Second))

			r.Get("/keypad", s.handleKeypad)
			r.Post("/eval", s.handleEval)

			r.Route("/sessions", func(r chi.Router) {
				r.Get("/", s.handleListSessions)
				r.Post("/", s.handleCreateSession)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", s.handleGetSession)
					r.Delete("/", s.handleDeleteSession)
					r.Post("/press", s.handlePress)
					r.Post("/clear", s.handleClear)
				})
			})
		})

		// Web keypad (served from /web)
		r.Get("/", s.handleWebRoot)
		r.Get("/web", s.handleWebIndex)
		r.Get("/web/", s.handleWebIndex)
		r.Post("/web/press", s.handleWebPress)
		r.Get("/web/static/*", s.handleWebStatic)
	}

	if s.mcp != nil {
		r.Handle("/mcp", s.mcp)
		r.Handle("/mcp/*", s.mcp)
	}

	s.router = r
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// requestLogger logs each request through arbor.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("status", strconv.Itoa(ww.Status())).
			Str("duration", time.Since(start).String()).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}

// apiKeyAuth is middleware that validates API key.
func (s *Server) apiKeyAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Skip auth for health and version
		if r.URL.Path == "/health" || r.URL.Path == "/version" {
			next.ServeHTTP(w, r)
			return
		}

		// Check API key header
		apiKey := r.Header.Get("X-API-Key")
		if apiKey == "" {
			apiKey = r.URL.Query().Get("api_key")
		}

		if apiKey != s.cfg.API.APIKey {
			writeError(w, http.StatusUnauthorized, "Invalid or missing API key")
			return
		}

		next.ServeHTTP(w, r)
	})
}
