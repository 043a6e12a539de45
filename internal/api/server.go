// Package api provides the HTTP API server and handlers for the rut server.
package api

import (
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/rutapp/rut-server/internal/auth"
	"github.com/rutapp/rut-server/internal/http/response"
	"github.com/rutapp/rut-server/internal/store"
)

// Options tunes the HTTP surface.
type Options struct {
	Version        string
	AllowedOrigins []string
	AuthPerMinute  int // signup and signin requests per client per minute
	AuthBurst      int
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	store           store.Store
	services        *Services
	router          chi.Router
	api             huma.API
	logger          *slog.Logger
	authRateLimiter *RateLimiter
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(st store.Store, services *Services, tokens *auth.TokenService, opts Options, logger *slog.Logger) *Server {
	router := chi.NewRouter()

	s := &Server{
		store:           st,
		services:        services,
		router:          router,
		logger:          logger,
		authRateLimiter: NewRateLimiter(opts.AuthPerMinute, opts.AuthBurst),
	}

	s.setupMiddleware(tokens, opts)
	s.api = newAPI(router, opts.Version)
	s.registerRoutes()

	return s
}

// newAPI creates the huma API on router with the envelope and error mapping
// installed.
func newAPI(router chi.Router, version string) huma.API {
	if version == "" {
		version = "dev"
	}
	config := huma.DefaultConfig("rut API", version)
	config.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "PASETO",
		},
	}
	config.Transformers = append(config.Transformers, EnvelopeTransformer)

	api := humachi.New(router, config)
	RegisterErrorHandler()
	return api
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Close releases background resources held by the server.
func (s *Server) Close() {
	s.authRateLimiter.Stop()
}

// setupMiddleware configures middleware stack.
func (s *Server) setupMiddleware(tokens *auth.TokenService, opts Options) {
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))
	s.router.Use(authMiddleware(tokens))

	s.router.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		response.NotFound(w, "route not found", s.logger)
	})
	s.router.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		response.MethodNotAllowed(w, "method not allowed", s.logger)
	})
}

// registerRoutes configures all HTTP routes.
func (s *Server) registerRoutes() {
	s.registerHealthRoutes()
	s.registerAuthRoutes()
	s.registerUserRoutes()
	s.registerItemRoutes()
	s.registerRutRoutes()
	s.registerCollectRoutes()
	s.registerTagRoutes()
	s.registerStarRoutes()
	s.registerSearchRoutes()
}
