package api

import (
	"log/slog"
	"net/http"
	"time"

	customMiddleware "github.com/Jeffreasy/mimo-auth/internal/api/middleware"
	"github.com/Jeffreasy/mimo-auth/internal/config"
	"github.com/Jeffreasy/mimo-auth/internal/service"
	sentryhttp "github.com/getsentry/sentry-go/http"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Server wires the Authentication Service into an HTTP router. Unlike the
// teacher, it carries no sqlc Queries handle: persistence lives entirely
// behind the userstore.Store interface and the revocation.Index the Service
// already holds; Pool is used only by the health check.
type Server struct {
	Router  *chi.Mux
	Pool    *pgxpool.Pool
	Service *service.Service
	Config  *config.Config
	Logger  *slog.Logger
}

// NewServer builds the full middleware stack and route table for the
// authentication core. Tenancy, OIDC/JWKS discovery, MFA, IoT telemetry,
// invites, and admin management all belonged to the teacher's broader
// product and have no place here (see SPEC_FULL.md's Non-goals).
func NewServer(pool *pgxpool.Pool, svc *service.Service, cfg *config.Config, logger *slog.Logger) *Server {
	r := chi.NewRouter()

	s := &Server{
		Router:  r,
		Pool:    pool,
		Service: svc,
		Config:  cfg,
		Logger:  logger,
	}

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)

	sentryHandler := sentryhttp.New(sentryhttp.Options{Repanic: true})
	r.Use(sentryHandler.Handle)

	r.Use(customMiddleware.RequestLogger)
	r.Use(customMiddleware.PanicRecovery)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "PUT", "DELETE"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Outer per-IP guard against floods, independent of and coarser than
	// the Service's own per-email/per-user rate limiters.
	r.Use(httprate.LimitByIP(60, time.Minute))

	requireAuth := customMiddleware.RequireAuth(svc)

	r.Get("/health", s.HealthHandler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/login", s.Login)
		r.Post("/auth/logout", s.Logout)
		r.Post("/auth/refresh", s.Refresh)

		r.Post("/auth/register/start", s.StartRegistration)
		r.Post("/auth/register/verify", s.VerifyRegistrationCode)
		r.Post("/auth/register/complete", s.CompleteRegistration)

		r.Post("/auth/password-reset/start", s.StartPasswordReset)
		r.Post("/auth/password-reset/verify", s.VerifyPasswordResetCode)
		r.Post("/auth/password-reset/complete", s.CompletePasswordReset)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.Get("/me", s.Me)
			r.Patch("/me", s.UpdateProfile)
			r.Put("/me/password", s.ChangePassword)
		})
	})

	return s
}
