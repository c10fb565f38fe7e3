// Package server собирает HTTP сервер: маршруты, middleware и жизненный цикл.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/rs/cors"

	"github.com/iudanet/readshare/internal/config"
	"github.com/iudanet/readshare/internal/server/handlers"
	"github.com/iudanet/readshare/internal/server/middleware"
	"github.com/iudanet/readshare/internal/server/metrics"
)

// Префиксы, доступные без access токена
var publicPrefixes = []string{
	"/api/v1/auth/",
	"/media/",
	"/api/v1/health",
	"/metrics",
}

// SessionService is the token authority: auth endpoints, the gate and credential changes
type SessionService interface {
	handlers.AuthService
	handlers.CredentialService
	middleware.Authenticator
}

// Deps contains the services the HTTP layer is built from
type Deps struct {
	Sessions   SessionService
	Profiles   handlers.ProfileService
	Feed       handlers.FeedService
	Media      handlers.MediaUploader
	MediaFiles http.Handler // nil, если файлы раздаются не сервером (S3)
	DB         handlers.Pinger
	Metrics    *metrics.Metrics
	Version    string
}

// Server is the readshare HTTP server
type Server struct {
	logger  *slog.Logger
	cfg     *config.Config
	handler http.Handler
	limiter *middleware.RateLimiter
}

// New создает сервер и регистрирует все маршруты
func New(logger *slog.Logger, cfg *config.Config, deps Deps) *Server {
	s := &Server{
		logger:  logger,
		cfg:     cfg,
		limiter: middleware.NewRateLimiter(cfg.Auth.RateLimit, cfg.Auth.RateWindow, logger, cfg.Auth.TrustedProxyPrefixes()...),
	}

	mux := http.NewServeMux()
	s.routes(mux, deps)

	gate := middleware.Gate(logger, deps.Sessions, middleware.GateConfig{
		Schemes:        cfg.Auth.Schemes,
		PublicPrefixes: publicPrefixes,
	})

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: cfg.Server.CORSOrigins,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		ExposedHeaders: []string{"Retry-After"},
		MaxAge:         600,
	})

	// Порядок снаружи внутрь: recovery, logging, metrics, CORS, gate, mux
	var h http.Handler = gate(mux)
	h = corsHandler.Handler(h)
	h = middleware.Metrics(deps.Metrics)(h)
	h = middleware.Logging(logger, "/api/v1/health", "/metrics")(h)
	h = middleware.Recovery(logger)(h)

	s.handler = h
	return s
}

func (s *Server) routes(mux *http.ServeMux, deps Deps) {
	authHandler := handlers.NewAuthHandler(s.logger, deps.Sessions, s.cfg.Auth.Schemes)
	userHandler := handlers.NewUserHandler(s.logger, deps.Profiles, deps.Sessions)
	postHandler := handlers.NewPostHandler(s.logger, deps.Feed)
	mediaHandler := handlers.NewMediaHandler(s.logger, deps.Media)
	healthHandler := handlers.NewHealthHandler(s.logger, deps.DB, deps.Version)

	limited := func(h http.HandlerFunc) http.Handler {
		return s.limiter.Middleware(h)
	}

	// Auth (публичные, с rate limit)
	mux.Handle("POST /api/v1/auth/register", limited(authHandler.Register))
	mux.Handle("POST /api/v1/auth/login", limited(authHandler.Login))
	mux.Handle("POST /api/v1/auth/refresh", limited(authHandler.Refresh))
	mux.Handle("POST /api/v1/auth/logout", limited(authHandler.Logout))

	// Operations
	mux.HandleFunc("GET /api/v1/health", healthHandler.Health)
	mux.Handle("GET /metrics", deps.Metrics.Handler())
	if deps.MediaFiles != nil {
		mux.Handle("GET /media/", deps.MediaFiles)
	}

	// Users
	mux.HandleFunc("GET /api/v1/users/me", userHandler.Me)
	mux.HandleFunc("PATCH /api/v1/users/me", userHandler.UpdateMe)
	mux.HandleFunc("DELETE /api/v1/users/me", userHandler.DeleteMe)
	mux.HandleFunc("POST /api/v1/users/me/password", userHandler.ChangePassword)
	mux.HandleFunc("GET /api/v1/users/{id}", userHandler.GetUser)
	mux.HandleFunc("GET /api/v1/users/{id}/posts", postHandler.ListUserPosts)

	// Posts
	mux.HandleFunc("POST /api/v1/posts", postHandler.CreatePost)
	mux.HandleFunc("GET /api/v1/posts", postHandler.ListPosts)
	mux.HandleFunc("GET /api/v1/posts/{id}", postHandler.GetPost)
	mux.HandleFunc("PATCH /api/v1/posts/{id}", postHandler.UpdatePost)
	mux.HandleFunc("DELETE /api/v1/posts/{id}", postHandler.DeletePost)

	// Likes & comments
	mux.HandleFunc("POST /api/v1/posts/{id}/like", postHandler.Like)
	mux.HandleFunc("DELETE /api/v1/posts/{id}/like", postHandler.Unlike)
	mux.HandleFunc("POST /api/v1/posts/{id}/comments", postHandler.AddComment)
	mux.HandleFunc("GET /api/v1/posts/{id}/comments", postHandler.ListComments)
	mux.HandleFunc("DELETE /api/v1/comments/{id}", postHandler.DeleteComment)

	// Media
	mux.HandleFunc("POST /api/v1/media", mediaHandler.Upload)
}

// Handler returns the fully wrapped root handler
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run слушает cfg.Server.Addr до отмены ctx, затем дожидается завершения
// активных запросов в пределах ShutdownTimeout.
func (s *Server) Run(ctx context.Context) error {
	defer s.limiter.Stop()

	srv := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errC := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errC <- err
		}
		close(errC)
	}()

	select {
	case err := <-errC:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down", slog.Duration("timeout", s.cfg.Server.ShutdownTimeout))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	s.logger.Info("server stopped gracefully")
	return nil
}

// Close освобождает фоновые ресурсы, если Run не вызывался
func (s *Server) Close() {
	s.limiter.Stop()
}
