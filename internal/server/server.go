// Package server assembles the HTTP API and runs it until the context is canceled.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/iudanet/gophblog/internal/config"
	"github.com/iudanet/gophblog/internal/models"
	"github.com/iudanet/gophblog/internal/server/handlers"
	"github.com/iudanet/gophblog/internal/server/middleware"
)

const healthPath = "/api/v1/health"

// Routes handlers, из которых собирается API
type Routes struct {
	Health   *handlers.HealthHandler
	Auth     *handlers.AuthHandler
	Posts    *handlers.PostHandler
	Comments *handlers.CommentHandler
	Search   *handlers.SearchHandler
	Admin    *handlers.AdminHandler
}

// Router http.Handler со всеми маршрутами и middleware
type Router struct {
	handler http.Handler
	limiter *middleware.PathLimiter
}

// NewRouter регистрирует маршруты API.
// Порядок middleware: recovery, logging, rate limit, затем auth на защищенных маршрутах.
func NewRouter(logger *slog.Logger, limits config.RateLimit, validator middleware.AccessValidator, routes Routes) *Router {
	mux := http.NewServeMux()

	authed := middleware.AuthMiddleware(logger, validator)
	protect := func(h http.HandlerFunc) http.Handler {
		return authed(h)
	}
	adminOnly := func(h http.HandlerFunc) http.Handler {
		return middleware.Chain(h, authed, middleware.RequireRole(logger, models.RoleAdmin))
	}

	mux.HandleFunc("GET "+healthPath, routes.Health.Health)

	// Auth
	mux.HandleFunc("POST /api/v1/auth/register", routes.Auth.Register)
	mux.HandleFunc("POST /api/v1/auth/login", routes.Auth.Login)
	mux.HandleFunc("POST /api/v1/auth/refresh", routes.Auth.Refresh)
	mux.Handle("POST /api/v1/auth/logout", protect(routes.Auth.Logout))
	mux.Handle("GET /api/v1/auth/me", protect(routes.Auth.Me))

	// Posts
	mux.HandleFunc("GET /api/v1/posts", routes.Posts.List)
	mux.Handle("POST /api/v1/posts", protect(routes.Posts.Create))
	mux.HandleFunc("GET /api/v1/posts/{id}", routes.Posts.Get)
	mux.Handle("PUT /api/v1/posts/{id}", protect(routes.Posts.Update))
	mux.Handle("DELETE /api/v1/posts/{id}", protect(routes.Posts.Delete))
	mux.HandleFunc("GET /api/v1/posts/{id}/comments", routes.Posts.ListComments)

	// Comments
	mux.Handle("POST /api/v1/comments", protect(routes.Comments.Create))
	mux.Handle("DELETE /api/v1/comments/{id}", protect(routes.Comments.Delete))

	mux.HandleFunc("GET /api/v1/search", routes.Search.Search)

	// Admin
	mux.Handle("POST /api/v1/admin/sessions/purge", adminOnly(routes.Admin.PurgeSessions))

	limiter := middleware.NewPathLimiter([]middleware.PathRateLimit{
		{Path: "/api/v1/auth/register", Rate: limits.AuthRate, Window: limits.AuthWindow},
		{Path: "/api/v1/auth/login", Rate: limits.AuthRate, Window: limits.AuthWindow},
		{Path: "/api/v1/auth/refresh", Rate: limits.AuthRate, Window: limits.AuthWindow},
	}, limits.DefaultRate, limits.DefaultWindow, logger)

	return &Router{
		handler: middleware.Chain(mux,
			middleware.RecoveryMiddleware(logger),
			middleware.LoggingMiddleware(logger, healthPath),
			limiter.Middleware,
		),
		limiter: limiter,
	}
}

// ServeHTTP implements http.Handler
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.handler.ServeHTTP(w, req)
}

// Stop останавливает фоновые goroutine rate limiter
func (r *Router) Stop() {
	r.limiter.Stop()
}

// SessionPurger удаляет устаревшие сессии
type SessionPurger interface {
	PurgeStale(ctx context.Context, maxAge time.Duration) (int, error)
}

// Server HTTP сервер с фоновой очисткой сессий
type Server struct {
	httpServer      *http.Server
	purger          SessionPurger
	logger          *slog.Logger
	purgeInterval   time.Duration
	sessionMaxAge   time.Duration
	shutdownTimeout time.Duration
}

// New создает сервер. purger может быть nil, тогда очистка не запускается.
func New(cfg *config.Config, handler http.Handler, purger SessionPurger, logger *slog.Logger) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:         cfg.HTTP.Address,
			Handler:      handler,
			ReadTimeout:  cfg.HTTP.ReadTimeout,
			WriteTimeout: cfg.HTTP.WriteTimeout,
			IdleTimeout:  cfg.HTTP.IdleTimeout,
			ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
		},
		purger:          purger,
		logger:          logger,
		purgeInterval:   cfg.Auth.SessionPurgeInterval,
		sessionMaxAge:   cfg.Auth.RefreshTokenTTL,
		shutdownTimeout: cfg.HTTP.ShutdownTimeout,
	}
}

// Run слушает адрес из конфигурации и обслуживает запросы до отмены ctx
func (s *Server) Run(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.httpServer.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve обслуживает запросы на ln до отмены ctx, затем выполняет graceful shutdown
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.InfoContext(gctx, "HTTP server started", slog.String("address", ln.Addr().String()))
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.shutdownTimeout)
		defer cancel()

		s.logger.InfoContext(shutdownCtx, "Shutting down HTTP server")
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		return nil
	})

	if s.purger != nil && s.purgeInterval > 0 {
		g.Go(func() error {
			s.purgeLoop(gctx)
			return nil
		})
	}

	return g.Wait()
}

// purgeLoop периодически удаляет сессии старше RefreshTokenTTL
func (s *Server) purgeLoop(ctx context.Context) {
	ticker := time.NewTicker(s.purgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.purger.PurgeStale(ctx, s.sessionMaxAge)
			if err != nil {
				s.logger.ErrorContext(ctx, "Failed to purge stale sessions", slog.Any("error", err))
				continue
			}
			if n > 0 {
				s.logger.InfoContext(ctx, "Stale sessions purged", slog.Int("count", n))
			}
		}
	}
}
