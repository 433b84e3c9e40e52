// Package handler exposes the auth flows over HTTP: password and OAuth
// sign-in, registration, sign-out, and the password reset pair.
package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/Sonu113077/rider-earnings-navigator/internal/audit"
	"github.com/Sonu113077/rider-earnings-navigator/internal/auth"
	"github.com/Sonu113077/rider-earnings-navigator/internal/config"
	"github.com/Sonu113077/rider-earnings-navigator/internal/idp"
	"github.com/Sonu113077/rider-earnings-navigator/internal/idp/local"
	"github.com/Sonu113077/rider-earnings-navigator/internal/platform/web"
	profilesvc "github.com/Sonu113077/rider-earnings-navigator/internal/profile/service"
	"github.com/Sonu113077/rider-earnings-navigator/internal/server/middleware"
	"github.com/Sonu113077/rider-earnings-navigator/internal/server/session"
)

type Handler struct {
	registry *session.Registry
	idpsvc   *local.Service
	profiles *profilesvc.Service
	recorder audit.Recorder
	cfg      *config.Config
	logger   *slog.Logger
}

func NewHandler(registry *session.Registry, idpsvc *local.Service, profiles *profilesvc.Service, recorder audit.Recorder, cfg *config.Config, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		registry: registry,
		idpsvc:   idpsvc,
		profiles: profiles,
		recorder: recorder,
		cfg:      cfg,
		logger:   logger,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Remember bool   `json:"remember"`
}

// Login signs in with email and password. On success the provider session
// token lands in the session cookie and the response carries the post-login
// redirect target.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := web.DecodeJSON(r, &req); err != nil {
		web.WriteError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	entry := h.entryFor(r)
	err := entry.Controller.Login(r.Context(), req.Email, req.Password, req.Remember)
	switch {
	case err == nil:
	case errors.Is(err, idp.ErrInvalidCredentials):
		h.recorder.Record(r.Context(), "", req.Email, "auth.login_failure", req.Email, "invalid credentials")
		web.WriteError(w, http.StatusUnauthorized, "invalid email or password")
		return
	case errors.Is(err, auth.ErrAccountBlocked):
		h.recorder.Record(r.Context(), "", req.Email, "auth.login_blocked", req.Email, "")
		web.WriteError(w, http.StatusForbidden, "your account has been blocked, please contact admin")
		return
	case errors.Is(err, auth.ErrAccountPending):
		h.recorder.Record(r.Context(), "", req.Email, "auth.login_pending", req.Email, "")
		web.WriteError(w, http.StatusForbidden, "your account is pending approval")
		return
	default:
		h.logger.Error("login failed", "email", req.Email, "err", err)
		web.WriteError(w, http.StatusInternalServerError, "could not sign in")
		return
	}

	p := entry.Controller.Principal()
	if p == nil {
		// A sign-out on the same entry won the race against this sign-in.
		web.WriteError(w, http.StatusUnauthorized, "session ended, please sign in again")
		return
	}

	token := entry.Client.Token()
	h.registry.Bind(token, entry)
	session.SetCookie(w, token, req.Remember, h.cfg.RememberLifetime(), h.cfg.SecureCookies())
	h.recorder.Record(r.Context(), p.ID, p.Email, "auth.login", p.ID, "")
	web.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"redirect": redirectOr(entry, auth.PathDashboard),
		"user":     principalView(p),
	})
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Mobile   string `json:"mobile"`
}

// Register creates a credentialed account and its profile row.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := web.DecodeJSON(r, &req); err != nil {
		web.WriteError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	identity, err := h.idpsvc.Register(r.Context(), req.Email, req.Password, req.FullName, req.Mobile)
	switch {
	case err == nil:
	case errors.Is(err, idp.ErrEmailAlreadyRegistered):
		web.WriteError(w, http.StatusConflict, "an account with this email already exists")
		return
	case errors.Is(err, local.ErrInvalidEmail), errors.Is(err, local.ErrWeakPassword):
		web.WriteError(w, http.StatusBadRequest, err.Error())
		return
	default:
		h.logger.Error("registration failed", "email", req.Email, "err", err)
		web.WriteError(w, http.StatusInternalServerError, "could not create account")
		return
	}

	if _, err := h.profiles.Ensure(r.Context(), identity.ID, identity.Email, req.FullName, req.Mobile); err != nil {
		// The account exists; the profile will be backfilled on first sign-in.
		h.logger.Warn("profile bootstrap failed after registration", "user_id", identity.ID, "err", err)
	}
	h.recorder.Record(r.Context(), identity.ID, identity.Email, "auth.register", identity.ID, "")
	web.WriteJSON(w, http.StatusCreated, map[string]string{
		"id":    identity.ID,
		"email": identity.Email,
	})
}

// Logout ends the session. The cookie and local state are cleared even when
// provider-side revocation fails.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	session.ClearCookie(w, h.cfg.SecureCookies())

	entry, ok := middleware.EntryFromContext(r.Context())
	if !ok {
		web.WriteJSON(w, http.StatusOK, map[string]string{"redirect": auth.PathLogin})
		return
	}
	var actorID, actorEmail string
	if p := entry.Controller.Principal(); p != nil {
		actorID, actorEmail = p.ID, p.Email
	}
	token := entry.Client.Token()
	err := entry.Controller.Logout(r.Context())
	h.registry.Remove(token)
	if err != nil {
		h.logger.Warn("provider sign-out failed", "err", err)
	}
	h.recorder.Record(r.Context(), actorID, actorEmail, "auth.logout", actorID, "")
	web.WriteJSON(w, http.StatusOK, map[string]string{"redirect": redirectOr(entry, auth.PathLogin)})
}

type oauthRequest struct {
	Provider string `json:"provider"`
}

// OAuthStart returns the federated authorize URL to redirect to.
func (h *Handler) OAuthStart(w http.ResponseWriter, r *http.Request) {
	var req oauthRequest
	if err := web.DecodeJSON(r, &req); err != nil {
		web.WriteError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	entry := h.entryFor(r)
	url, err := entry.Controller.LoginWithProvider(r.Context(), req.Provider)
	if err != nil {
		if errors.Is(err, idp.ErrUnknownProvider) {
			web.WriteError(w, http.StatusBadRequest, "unknown provider")
			return
		}
		web.WriteError(w, http.StatusInternalServerError, "could not start provider sign-in")
		return
	}
	web.WriteJSON(w, http.StatusOK, map[string]string{"authorize_url": url})
}

// OAuthCallback completes the redirect flow. The moderation checks applied on
// password login apply here too.
func (h *Handler) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	provider := r.URL.Query().Get("provider")
	code := r.URL.Query().Get("code")
	if provider == "" || code == "" {
		web.WriteError(w, http.StatusBadRequest, "missing provider or code")
		return
	}

	entry := h.registry.NewEntry()
	identity, err := entry.Client.CompleteOAuth(r.Context(), provider, code)
	if err != nil {
		if errors.Is(err, idp.ErrUnknownProvider) {
			web.WriteError(w, http.StatusBadRequest, "unknown provider")
			return
		}
		h.logger.Error("oauth callback failed", "provider", provider, "err", err)
		web.WriteError(w, http.StatusBadGateway, "provider sign-in failed")
		return
	}

	p := entry.Controller.Principal()
	if p != nil && p.IsBlocked {
		_ = entry.Client.SignOut(r.Context())
		entry.Controller.Close()
		web.WriteError(w, http.StatusForbidden, "your account has been blocked, please contact admin")
		return
	}
	if p != nil && !p.IsApproved {
		_ = entry.Client.SignOut(r.Context())
		entry.Controller.Close()
		web.WriteError(w, http.StatusForbidden, "your account is pending approval")
		return
	}

	fullName := identity.Metadata["full_name"]
	if _, err := h.profiles.Ensure(r.Context(), identity.ID, identity.Email, fullName, identity.Phone); err != nil {
		h.logger.Warn("profile bootstrap failed after oauth", "user_id", identity.ID, "err", err)
	}

	token := entry.Client.Token()
	h.registry.Bind(token, entry)
	session.SetCookie(w, token, false, 0, h.cfg.SecureCookies())
	h.recorder.Record(r.Context(), identity.ID, identity.Email, "auth.login_oauth", identity.ID, provider)
	http.Redirect(w, r, redirectOr(entry, auth.PathDashboard), http.StatusSeeOther)
}

type forgotRequest struct {
	Email string `json:"email"`
}

// ForgotPassword issues a reset token. The response never reveals whether the
// email exists; in dev mode the token rides back in the response body.
func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotRequest
	if err := web.DecodeJSON(r, &req); err != nil {
		web.WriteError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	body := map[string]string{
		"message": "if an account exists for this email, a reset link has been sent",
	}
	token, err := h.idpsvc.IssueResetToken(r.Context(), req.Email)
	switch {
	case errors.Is(err, idp.ErrNoSession):
		// Unknown email; same response as success.
	case err != nil:
		h.logger.Error("reset token issue failed", "email", req.Email, "err", err)
		web.WriteError(w, http.StatusInternalServerError, "could not process request")
		return
	default:
		h.logger.Info("password reset token issued", "email", req.Email)
		if h.cfg.ResetReturnToClient {
			body["reset_token"] = token
		}
	}
	web.WriteJSON(w, http.StatusOK, body)
}

type resetRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// ResetPassword sets a new password using a reset token.
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if err := web.DecodeJSON(r, &req); err != nil {
		web.WriteError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	err := h.idpsvc.ResetPassword(r.Context(), req.Token, req.Password)
	switch {
	case err == nil:
	case errors.Is(err, idp.ErrInvalidCredentials):
		web.WriteError(w, http.StatusBadRequest, "reset link is invalid or has expired")
		return
	case errors.Is(err, local.ErrWeakPassword):
		web.WriteError(w, http.StatusBadRequest, err.Error())
		return
	default:
		h.logger.Error("password reset failed", "err", err)
		web.WriteError(w, http.StatusInternalServerError, "could not reset password")
		return
	}
	web.WriteJSON(w, http.StatusOK, map[string]string{
		"message":  "password updated, please sign in",
		"redirect": auth.PathLogin,
	})
}

// entryFor reuses the request's session entry when one exists, otherwise
// starts a fresh one for this sign-in attempt.
func (h *Handler) entryFor(r *http.Request) *session.Entry {
	if entry, ok := middleware.EntryFromContext(r.Context()); ok {
		return entry
	}
	return h.registry.NewEntry()
}

func redirectOr(entry *session.Entry, fallback string) string {
	if p := entry.Nav.Take(); p != "" {
		return p
	}
	return fallback
}
