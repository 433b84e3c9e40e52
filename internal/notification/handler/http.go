// Package handler exposes the signed-in user's notifications.
package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Sonu113077/rider-earnings-navigator/internal/notification/service"
	"github.com/Sonu113077/rider-earnings-navigator/internal/platform/web"
	"github.com/Sonu113077/rider-earnings-navigator/internal/server/middleware"
)

type Handler struct {
	notices *service.Service
	logger  *slog.Logger
}

func NewHandler(notices *service.Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{notices: notices, logger: logger}
}

// List returns the user's notifications, newest first. ?limit caps the result.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		web.WriteError(w, http.StatusUnauthorized, "not signed in")
		return
	}
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			web.WriteError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}
	list, err := h.notices.List(r.Context(), p.ID, limit)
	if err != nil {
		h.logger.Error("notification list failed", "user_id", p.ID, "err", err)
		web.WriteError(w, http.StatusInternalServerError, "could not load notifications")
		return
	}
	unread, err := h.notices.UnreadCount(r.Context(), p.ID)
	if err != nil {
		h.logger.Error("unread count failed", "user_id", p.ID, "err", err)
		web.WriteError(w, http.StatusInternalServerError, "could not load notifications")
		return
	}
	views := make([]map[string]interface{}, 0, len(list))
	for _, n := range list {
		views = append(views, map[string]interface{}{
			"id":         n.ID,
			"title":      n.Title,
			"body":       n.Body,
			"read":       n.Read,
			"created_at": n.CreatedAt,
		})
	}
	web.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"notifications": views,
		"unread":        unread,
	})
}

// MarkRead marks one of the user's notifications as read.
func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		web.WriteError(w, http.StatusUnauthorized, "not signed in")
		return
	}
	id := chi.URLParam(r, "id")
	if id == "" {
		web.WriteError(w, http.StatusBadRequest, "missing notification id")
		return
	}
	if err := h.notices.MarkRead(r.Context(), p.ID, id); err != nil {
		h.logger.Error("mark read failed", "user_id", p.ID, "notification_id", id, "err", err)
		web.WriteError(w, http.StatusInternalServerError, "could not update notification")
		return
	}
	web.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
