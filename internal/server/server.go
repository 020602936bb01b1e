package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/hongminglow/auth-recovery-be/internal/auth"
	"github.com/hongminglow/auth-recovery-be/internal/config"
	"github.com/hongminglow/auth-recovery-be/internal/http/handlers"
	"github.com/hongminglow/auth-recovery-be/internal/mail"
	"github.com/hongminglow/auth-recovery-be/internal/middleware"
	"github.com/hongminglow/auth-recovery-be/internal/storage"
)

// Deps are the collaborators the server is built from.
type Deps struct {
	Store  storage.UserStore
	Ledger storage.TokenLedger
	Mailer mail.Mailer
	Tokens *auth.TokenManager
	Hasher *auth.Hasher
	Log    zerolog.Logger
}

// Server wraps an http.Server with configured routes.
type Server struct {
	inner *http.Server
}

// New wires up middleware, routes, and returns a ready server.
func New(cfg config.Config, deps Deps) *Server {
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           NewRouter(cfg, deps),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return &Server{inner: httpServer}
}

// NewRouter builds the HTTP handler tree.
func NewRouter(cfg config.Config, deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logging(deps.Log))
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(chimw.AllowContentType("application/json"))

	handlers.NewHealthHandler(time.Now()).Register(r)

	authHandler := handlers.NewAuthHandler(deps.Store, deps.Ledger, deps.Tokens, deps.Hasher, deps.Mailer, handlers.Options{
		FrontendURL:       cfg.FrontendURL,
		LegacyDirectReset: cfg.LegacyDirectReset,
	})
	r.Route("/api", authHandler.Register)

	return r
}

// Start begins serving HTTP traffic.
func (s *Server) Start() error {
	return s.inner.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.inner.Shutdown(ctx)
}
