package server

import (
	"context"
	"net/http"
	"time"

	"github.com/hongminglow/lapse-be/internal/auth"
	"github.com/hongminglow/lapse-be/internal/config"
	"github.com/hongminglow/lapse-be/internal/http/handlers"
	"github.com/hongminglow/lapse-be/internal/middleware"
	"github.com/hongminglow/lapse-be/internal/models"
	"github.com/hongminglow/lapse-be/internal/service"
	"github.com/hongminglow/lapse-be/internal/storage"
)

// Server wraps an http.Server with configured routes.
type Server struct {
	inner *http.Server
	Users *service.UserService
	Tasks *service.TaskService
}

// New wires up middleware, routes, and returns a ready server.
func New(cfg config.Config, store storage.Store) *Server {
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)
	users := service.NewUserService(store, tokens)
	tasks := service.NewTaskService(store)

	authn := middleware.Authenticate(tokens)
	limiter := middleware.NewRateLimiter(middleware.RateLimitConfig{
		RequestsPerMinute: cfg.AuthRatePerMinute,
		BurstSize:         cfg.AuthRateBurst,
		TrustedProxies:    cfg.ProxyPrefixes,
	})
	guards := handlers.Guards{
		Authenticated: authn,
		Admin: func(h http.Handler) http.Handler {
			return middleware.Chain(h, authn, middleware.RequireRole(models.RoleAdmin))
		},
		RateLimited: limiter.Middleware,
	}

	mux := http.NewServeMux()
	handlers.NewHealthHandler(time.Now(), store).Register(mux)
	handlers.NewUserHandler(users, cfg.RequestTimeout).Register(mux, guards)
	handlers.NewTaskHandler(tasks, cfg.RequestTimeout).Register(mux, guards)

	handler := middleware.CORS(cfg.CORSOrigins, middleware.Logging(mux))

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return &Server{inner: httpServer, Users: users, Tasks: tasks}
}

// Handler exposes the fully wrapped router.
func (s *Server) Handler() http.Handler {
	return s.inner.Handler
}

// Start begins serving HTTP traffic.
func (s *Server) Start() error {
	return s.inner.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.inner.Shutdown(ctx)
}
