package server

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/propverse/propverse-be/internal/auth"
	"github.com/propverse/propverse-be/internal/config"
	"github.com/propverse/propverse-be/internal/http/handlers"
	"github.com/propverse/propverse-be/internal/middleware"
	"github.com/propverse/propverse-be/internal/storage"
)

// Server wraps an http.Server with configured routes.
type Server struct {
	inner *http.Server
}

// New wires up middleware, routes, and returns a ready server.
func New(cfg config.Config, store storage.Store, logger zerolog.Logger) *Server {
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           Routes(cfg, store, logger),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return &Server{inner: httpServer}
}

// Routes builds the full handler tree: endpoint handlers, per-route
// interceptor chains, and the outer CORS/logging wrappers.
func Routes(cfg config.Config, store storage.Store, logger zerolog.Logger) http.Handler {
	hasher := auth.NewHasher(cfg.BcryptCost)
	tokens := auth.NewTokenManager(cfg.TokenSecret, cfg.TokenIssuer, cfg.TokenTTL)
	limiter := middleware.NewRateLimiter(cfg.RateLimitMax, cfg.RateLimitWindow)

	requireUser := middleware.RequireUser(store, tokens)
	requireAdmin := middleware.RequireAdmin(store, tokens)

	mux := http.NewServeMux()

	health := handlers.NewHealthHandler(time.Now())
	health.Register(mux)

	authHandler := handlers.NewAuthHandler(store, hasher, tokens)
	profile := handlers.NewProfileHandler(store)
	admin := handlers.NewAdminHandler(store, cfg.TokenTTL)

	// Explicit interceptor chains per route: rate limiting guards the
	// credential endpoints, auth middleware guards everything user-facing.
	mux.Handle("/api/auth/register", Chain(http.HandlerFunc(authHandler.HandleRegister), limiter.Limit))
	mux.Handle("/api/auth/login", Chain(http.HandlerFunc(authHandler.HandleLogin), limiter.Limit))
	mux.Handle("/api/auth/logout", Chain(http.HandlerFunc(authHandler.HandleLogout), requireUser))
	mux.Handle("/api/user/profile", Chain(http.HandlerFunc(profile.Handle), requireUser))
	mux.Handle("/api/admin/stats", Chain(http.HandlerFunc(admin.HandleStats), requireAdmin))

	return middleware.CORS(cfg.CORSOrigins, middleware.Logging(logger, mux))
}

// Chain applies interceptors to h in declaration order: the first interceptor
// sees the request first and may short-circuit before h runs.
func Chain(h http.Handler, interceptors ...func(http.Handler) http.Handler) http.Handler {
	for i := len(interceptors) - 1; i >= 0; i-- {
		h = interceptors[i](h)
	}
	return h
}

// Start begins serving HTTP traffic.
func (s *Server) Start() error {
	return s.inner.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.inner.Shutdown(ctx)
}
