// Package handler exposes the admin surface: rider moderation, the
// cross-rider earnings view, bulk earnings import, and the audit trail.
package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Sonu113077/rider-earnings-navigator/internal/audit"
	auditrepo "github.com/Sonu113077/rider-earnings-navigator/internal/audit/repository"
	earningshandler "github.com/Sonu113077/rider-earnings-navigator/internal/earnings/handler"
	earningsrepo "github.com/Sonu113077/rider-earnings-navigator/internal/earnings/repository"
	earningssvc "github.com/Sonu113077/rider-earnings-navigator/internal/earnings/service"
	"github.com/Sonu113077/rider-earnings-navigator/internal/platform/web"
	profiledomain "github.com/Sonu113077/rider-earnings-navigator/internal/profile/domain"
	profilehandler "github.com/Sonu113077/rider-earnings-navigator/internal/profile/handler"
	profilesvc "github.com/Sonu113077/rider-earnings-navigator/internal/profile/service"
	"github.com/Sonu113077/rider-earnings-navigator/internal/server/middleware"
)

type Handler struct {
	profiles *profilesvc.Service
	earnings *earningssvc.Service
	auditlog auditrepo.Repository
	recorder audit.Recorder
	logger   *slog.Logger
}

func NewHandler(profiles *profilesvc.Service, earnings *earningssvc.Service, auditlog auditrepo.Repository, recorder audit.Recorder, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		profiles: profiles,
		earnings: earnings,
		auditlog: auditlog,
		recorder: recorder,
		logger:   logger,
	}
}

// ListUsers pages through all profiles.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	limit := int32(queryInt(r, "limit", 50))
	offset := int32(queryInt(r, "offset", 0))
	profiles, err := h.profiles.List(r.Context(), limit, offset)
	if err != nil {
		h.logger.Error("user list failed", "err", err)
		web.WriteError(w, http.StatusInternalServerError, "could not load users")
		return
	}
	views := make([]map[string]interface{}, 0, len(profiles))
	for _, p := range profiles {
		views = append(views, profilehandler.ProfileView(p))
	}
	web.WriteJSON(w, http.StatusOK, map[string]interface{}{"users": views})
}

type approvalRequest struct {
	Approved bool `json:"approved"`
}

// SetApproval approves or un-approves a rider.
func (h *Handler) SetApproval(w http.ResponseWriter, r *http.Request) {
	var req approvalRequest
	if err := web.DecodeJSON(r, &req); err != nil {
		web.WriteError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	id := chi.URLParam(r, "id")
	p, err := h.profiles.SetApproval(r.Context(), id, req.Approved)
	if h.writeModerationError(w, id, err) {
		return
	}
	h.record(r, "user.approval", id, strconv.FormatBool(req.Approved))
	web.WriteJSON(w, http.StatusOK, profilehandler.ProfileView(p))
}

type blockRequest struct {
	Blocked bool `json:"blocked"`
}

// SetBlocked blocks or unblocks a rider.
func (h *Handler) SetBlocked(w http.ResponseWriter, r *http.Request) {
	var req blockRequest
	if err := web.DecodeJSON(r, &req); err != nil {
		web.WriteError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	id := chi.URLParam(r, "id")
	p, err := h.profiles.SetBlocked(r.Context(), id, req.Blocked)
	if h.writeModerationError(w, id, err) {
		return
	}
	h.record(r, "user.block", id, strconv.FormatBool(req.Blocked))
	web.WriteJSON(w, http.StatusOK, profilehandler.ProfileView(p))
}

type roleRequest struct {
	Role string `json:"role"`
}

// SetRole changes a rider's stored role.
func (h *Handler) SetRole(w http.ResponseWriter, r *http.Request) {
	var req roleRequest
	if err := web.DecodeJSON(r, &req); err != nil {
		web.WriteError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	id := chi.URLParam(r, "id")
	err := h.profiles.SetRole(r.Context(), id, profiledomain.Role(req.Role))
	switch {
	case err == nil:
	case errors.Is(err, profilesvc.ErrInvalidRole):
		web.WriteError(w, http.StatusBadRequest, "invalid role")
		return
	case errors.Is(err, profilesvc.ErrProfileNotFound):
		web.WriteError(w, http.StatusNotFound, "user not found")
		return
	default:
		h.logger.Error("role change failed", "user_id", id, "err", err)
		web.WriteError(w, http.StatusInternalServerError, "could not change role")
		return
	}
	h.record(r, "user.role", id, req.Role)
	web.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// AllEarnings returns earnings across riders, filterable by
// ?user_id=&from=&to=, with totals.
func (h *Handler) AllEarnings(w http.ResponseWriter, r *http.Request) {
	from, to, err := earningshandler.DateRange(r)
	if err != nil {
		web.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	f := earningsrepo.Filter{
		UserID: r.URL.Query().Get("user_id"),
		From:   from,
		To:     to,
	}
	es, sum, err := h.earnings.All(r.Context(), f)
	if err != nil {
		h.logger.Error("admin earnings failed", "err", err)
		web.WriteError(w, http.StatusInternalServerError, "could not load earnings")
		return
	}
	views := make([]map[string]interface{}, 0, len(es))
	for _, e := range es {
		v := earningshandler.EarningView(&e.Earning)
		v["user_id"] = e.UserID
		v["rider_name"] = e.RiderName
		v["rider_email"] = e.RiderEmail
		views = append(views, v)
	}
	web.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"earnings": views,
		"summary":  earningshandler.SummaryView(sum),
	})
}

type importRequest struct {
	Rows []earningssvc.ImportRow `json:"rows"`
}

// ImportEarnings bulk-inserts earnings keyed by rider email. The import is
// all-or-nothing.
func (h *Handler) ImportEarnings(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if err := web.DecodeJSON(r, &req); err != nil {
		web.WriteError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	n, err := h.earnings.Import(r.Context(), req.Rows)
	if err != nil {
		if errors.Is(err, earningssvc.ErrUnknownRider) {
			web.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("earnings import failed", "err", err)
		web.WriteError(w, http.StatusInternalServerError, "could not import earnings")
		return
	}
	h.record(r, "earnings.import", "", strconv.Itoa(n)+" rows")
	web.WriteJSON(w, http.StatusOK, map[string]int{"imported": n})
}

// AuditTrail returns the newest audit entries.
func (h *Handler) AuditTrail(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 100)
	entries, err := h.auditlog.ListRecent(r.Context(), limit)
	if err != nil {
		h.logger.Error("audit trail failed", "err", err)
		web.WriteError(w, http.StatusInternalServerError, "could not load audit trail")
		return
	}
	views := make([]map[string]interface{}, 0, len(entries))
	for _, e := range entries {
		views = append(views, map[string]interface{}{
			"id":          e.ID,
			"actor_id":    e.ActorID,
			"actor_email": e.ActorEmail,
			"action":      e.Action,
			"target":      e.Target,
			"detail":      e.Detail,
			"created_at":  e.CreatedAt,
		})
	}
	web.WriteJSON(w, http.StatusOK, map[string]interface{}{"entries": views})
}

func (h *Handler) writeModerationError(w http.ResponseWriter, id string, err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, profilesvc.ErrProfileNotFound):
		web.WriteError(w, http.StatusNotFound, "user not found")
	default:
		h.logger.Error("moderation change failed", "user_id", id, "err", err)
		web.WriteError(w, http.StatusInternalServerError, "could not update user")
	}
	return true
}

func (h *Handler) record(r *http.Request, action, target, detail string) {
	actorID, actorEmail := "", ""
	if p, ok := middleware.PrincipalFromContext(r.Context()); ok {
		actorID, actorEmail = p.ID, p.Email
	}
	h.recorder.Record(r.Context(), actorID, actorEmail, action, target, detail)
}

func queryInt(r *http.Request, name string, fallback int) int {
	s := r.URL.Query().Get(name)
	if s == "" {
		return fallback
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
