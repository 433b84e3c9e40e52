// Package server assembles the HTTP route tree and owns the server lifecycle.
package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	adminhandler "github.com/Sonu113077/rider-earnings-navigator/internal/admin/handler"
	authhandler "github.com/Sonu113077/rider-earnings-navigator/internal/auth/handler"
	earningshandler "github.com/Sonu113077/rider-earnings-navigator/internal/earnings/handler"
	healthhandler "github.com/Sonu113077/rider-earnings-navigator/internal/health/handler"
	notificationhandler "github.com/Sonu113077/rider-earnings-navigator/internal/notification/handler"
	profilehandler "github.com/Sonu113077/rider-earnings-navigator/internal/profile/handler"

	"github.com/Sonu113077/rider-earnings-navigator/internal/auth"
	"github.com/Sonu113077/rider-earnings-navigator/internal/platform/routeguard"
	"github.com/Sonu113077/rider-earnings-navigator/internal/server/middleware"
	"github.com/Sonu113077/rider-earnings-navigator/internal/server/session"
)

// Deps holds the handlers and session registry the router wires together.
type Deps struct {
	Registry      *session.Registry
	Auth          *authhandler.Handler
	Profile       *profilehandler.Handler
	Earnings      *earningshandler.Handler
	Notifications *notificationhandler.Handler
	Admin         *adminhandler.Handler
	Health        *healthhandler.Handler
	Logger        *slog.Logger
}

// NewRouter builds the full route tree.
//
// Route → handler mapping:
//   - /login, /register, /logout, password reset, /auth/callback → internal/auth/handler
//   - /dashboard/profile  → internal/profile/handler
//   - /dashboard/earnings → internal/earnings/handler
//   - /dashboard/notifications → internal/notification/handler
//   - /admin/*            → internal/admin/handler
//   - /healthz, /readyz   → internal/health/handler
func NewRouter(deps Deps) chi.Router {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.WithSession(deps.Registry))

	redirects := routeguard.Redirects{
		Login:        auth.PathLogin,
		Unauthorized: auth.PathUnauthorized,
	}

	// Public surface. The guard never sees these paths.
	r.Get("/", home)
	r.Get("/healthz", deps.Health.Liveness)
	r.Get("/readyz", deps.Health.Readiness)
	r.Post("/login", deps.Auth.Login)
	r.Post("/login/oauth", deps.Auth.OAuthStart)
	r.Post("/register", deps.Auth.Register)
	r.Post("/logout", deps.Auth.Logout)
	r.Post("/forgot-password", deps.Auth.ForgotPassword)
	r.Post("/reset-password", deps.Auth.ResetPassword)
	r.Get("/auth/callback", deps.Auth.OAuthCallback)

	r.Route("/dashboard", func(r chi.Router) {
		r.Use(routeguard.Middleware(middleware.GuardSession, false, redirects))
		r.Get("/profile", deps.Profile.Me)
		r.Put("/profile", deps.Profile.UpdateMe)
		r.Get("/earnings", deps.Earnings.History)
		r.Get("/notifications", deps.Notifications.List)
		r.Post("/notifications/{id}/read", deps.Notifications.MarkRead)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(routeguard.Middleware(middleware.GuardSession, true, redirects))
		r.Get("/users", deps.Admin.ListUsers)
		r.Post("/users/{id}/approval", deps.Admin.SetApproval)
		r.Post("/users/{id}/block", deps.Admin.SetBlocked)
		r.Post("/users/{id}/role", deps.Admin.SetRole)
		r.Get("/earnings", deps.Admin.AllEarnings)
		r.Post("/earnings/import", deps.Admin.ImportEarnings)
		r.Get("/audit", deps.Admin.AuditTrail)
	})

	return r
}

// home routes the bare domain to the dashboard or the login page depending on
// whether the cookie resolved to a principal.
func home(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.PrincipalFromContext(r.Context()); ok {
		http.Redirect(w, r, auth.PathDashboard, http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, auth.PathLogin, http.StatusSeeOther)
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", chimiddleware.GetReqID(r.Context()),
			)
		})
	}
}
