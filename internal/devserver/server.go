// Package devserver is an in-memory implementation of the cinemaclub REST
// backend used for local development and end-to-end tests.
package devserver

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrijs2005/cinemaclub/internal/devserver/config"
	"github.com/dmitrijs2005/cinemaclub/internal/logging"
	"github.com/dmitrijs2005/cinemaclub/internal/netx"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Server struct {
	cfg    *config.Config
	logger logging.Logger
	users  *UserService
	repo   *Repository
	router http.Handler
}

func New(cfg *config.Config, logger logging.Logger) *Server {
	repo := NewRepository()
	users := NewUserService(repo, cfg)

	s := &Server{cfg: cfg, logger: logger, users: users, repo: repo}
	s.router = s.routes()
	return s
}

func (s *Server) routes() http.Handler {
	h := &handlers{users: s.users, repo: s.repo, logger: s.logger}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLog(s.logger))

	r.Get("/health", h.health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/auth", func(r chi.Router) {
		r.Use(rateLimit(s.cfg.AuthRateLimit, s.cfg.AuthRateBurst, s.logger))

		r.Post("/register", h.register)
		r.Post("/login", h.login)
		r.Post("/refresh", h.refresh)
		r.Post("/logout", h.logout)
	})

	r.Route("/users", func(r chi.Router) {
		r.Use(requireAuth(s.users))

		r.Get("/profile", h.profile)
		r.Put("/profile", h.updateProfile)
	})

	r.Route("/media", func(r chi.Router) {
		r.Use(requireAuth(s.users))

		r.Get("/", h.listMedia)
		r.Get("/popular", h.popular)
		r.Get("/new", h.newest)
		r.Get("/comingSoon", h.comingSoon)
		r.Get("/genre/{genre}", h.byGenre)
		r.Get("/{id}", h.getMedia)
	})

	r.Route("/cinema-clubs", func(r chi.Router) {
		r.Use(requireAuth(s.users))

		r.Get("/", h.clubs)
		r.Get("/{id}", h.club)
	})

	return r
}

// Handler returns the router, for use with httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ExpireAccessTokens revokes every access token issued so far, so the next
// authenticated request must refresh.
func (s *Server) ExpireAccessTokens() {
	s.users.ExpireAccessTokens()
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	s.logger.Info(ctx, "dev server listening", "addr", s.cfg.Addr)
	defer s.logger.Info(ctx, "dev server stopped")

	return netx.ListenAndServe(ctx, srv)
}
