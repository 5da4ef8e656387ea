package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/hongminglow/church-portal-be/internal/auth"
	"github.com/hongminglow/church-portal-be/internal/config"
	"github.com/hongminglow/church-portal-be/internal/http/handlers"
	"github.com/hongminglow/church-portal-be/internal/metrics"
	"github.com/hongminglow/church-portal-be/internal/middleware"
	"github.com/hongminglow/church-portal-be/internal/storage"
)

// Server wraps an http.Server with configured routes.
type Server struct {
	inner *http.Server
}

// New wires up the auth service, middleware and routes, and returns a ready server.
func New(cfg config.Config, store storage.UserStore, log *slog.Logger) (*Server, error) {
	handler, err := NewHandler(cfg, store, log, metrics.New())
	if err != nil {
		return nil, err
	}

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		ErrorLog:          slog.NewLogLogger(log.Handler(), slog.LevelWarn),
	}

	return &Server{inner: httpServer}, nil
}

// NewHandler builds the full middleware-wrapped route tree.
func NewHandler(cfg config.Config, store storage.UserStore, log *slog.Logger, m *metrics.Metrics) (http.Handler, error) {
	hasher, err := auth.NewHasher(cfg.Auth.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("init password hasher: %w", err)
	}
	svc, err := auth.NewService(auth.ServiceOptions{
		Store:         store,
		Tokens:        auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.TTL),
		Hasher:        hasher,
		RefreshWindow: cfg.JWT.RefreshWindow,
		LookupTimeout: cfg.Auth.LookupTimeout,
	})
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	handlers.NewHealthHandler(time.Now(), store, log).Register(mux)
	handlers.NewAuthHandler(svc, log, m).Register(mux)
	mux.Handle("GET /metrics", m.Handler())

	return middleware.CORS(cfg.CORSOrigins, middleware.Logging(log, m, mux)), nil
}

// Start begins serving HTTP traffic.
func (s *Server) Start() error {
	return s.inner.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.inner.Shutdown(ctx)
}
