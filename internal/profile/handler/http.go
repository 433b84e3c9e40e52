// Package handler exposes self-service profile endpoints.
package handler

import (
	"log/slog"
	"net/http"

	"github.com/Sonu113077/rider-earnings-navigator/internal/platform/web"
	"github.com/Sonu113077/rider-earnings-navigator/internal/profile/domain"
	"github.com/Sonu113077/rider-earnings-navigator/internal/profile/service"
	"github.com/Sonu113077/rider-earnings-navigator/internal/server/middleware"
)

type Handler struct {
	profiles *service.Service
	logger   *slog.Logger
}

func NewHandler(profiles *service.Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{profiles: profiles, logger: logger}
}

// Me returns the signed-in user's profile, creating the row if the account
// predates profile bootstrap.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		web.WriteError(w, http.StatusUnauthorized, "not signed in")
		return
	}
	profile, err := h.profiles.Ensure(r.Context(), p.ID, p.Email, p.FullName, p.Mobile)
	if err != nil {
		h.logger.Error("profile lookup failed", "user_id", p.ID, "err", err)
		web.WriteError(w, http.StatusInternalServerError, "could not load profile")
		return
	}
	web.WriteJSON(w, http.StatusOK, ProfileView(profile))
}

type updateRequest struct {
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Mobile   string `json:"mobile"`
}

// UpdateMe applies user-editable profile fields.
func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		web.WriteError(w, http.StatusUnauthorized, "not signed in")
		return
	}
	var req updateRequest
	if err := web.DecodeJSON(r, &req); err != nil {
		web.WriteError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	profile, err := h.profiles.UpdateSelf(r.Context(), p.ID, req.Username, req.FullName, req.Mobile)
	if err != nil {
		h.logger.Error("profile update failed", "user_id", p.ID, "err", err)
		web.WriteError(w, http.StatusInternalServerError, "could not update profile")
		return
	}
	web.WriteJSON(w, http.StatusOK, ProfileView(profile))
}

// ProfileView is the JSON shape for a profile, shared with the admin surface.
func ProfileView(p *domain.Profile) map[string]interface{} {
	return map[string]interface{}{
		"id":          p.ID,
		"username":    p.Username,
		"full_name":   p.FullName,
		"email":       p.Email,
		"mobile":      p.Mobile,
		"role":        p.Role,
		"is_approved": p.IsApproved,
		"is_blocked":  p.IsBlocked,
		"created_at":  p.CreatedAt,
		"updated_at":  p.UpdatedAt,
	}
}
