// Package handler exposes the rider's own earnings over HTTP.
package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/Sonu113077/rider-earnings-navigator/internal/earnings/domain"
	"github.com/Sonu113077/rider-earnings-navigator/internal/earnings/service"
	"github.com/Sonu113077/rider-earnings-navigator/internal/platform/web"
	"github.com/Sonu113077/rider-earnings-navigator/internal/server/middleware"
)

type Handler struct {
	earnings *service.Service
	logger   *slog.Logger
}

func NewHandler(earnings *service.Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{earnings: earnings, logger: logger}
}

// History returns the signed-in rider's earnings, optionally bounded by
// ?from=YYYY-MM-DD&to=YYYY-MM-DD, with totals.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		web.WriteError(w, http.StatusUnauthorized, "not signed in")
		return
	}
	from, to, err := DateRange(r)
	if err != nil {
		web.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	es, sum, err := h.earnings.History(r.Context(), p.ID, from, to)
	if err != nil {
		h.logger.Error("earnings history failed", "user_id", p.ID, "err", err)
		web.WriteError(w, http.StatusInternalServerError, "could not load earnings")
		return
	}
	views := make([]map[string]interface{}, 0, len(es))
	for _, e := range es {
		views = append(views, EarningView(e))
	}
	web.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"earnings": views,
		"summary":  SummaryView(sum),
	})
}

// DateRange parses optional from/to query params (YYYY-MM-DD). Zero times mean
// unbounded.
func DateRange(r *http.Request) (from, to time.Time, err error) {
	const layout = "2006-01-02"
	if s := r.URL.Query().Get("from"); s != "" {
		from, err = time.ParseInLocation(layout, s, time.UTC)
		if err != nil {
			return time.Time{}, time.Time{}, errFor("from")
		}
	}
	if s := r.URL.Query().Get("to"); s != "" {
		to, err = time.ParseInLocation(layout, s, time.UTC)
		if err != nil {
			return time.Time{}, time.Time{}, errFor("to")
		}
	}
	return from, to, nil
}

// EarningView is the JSON shape for one earning row.
func EarningView(e *domain.Earning) map[string]interface{} {
	return map[string]interface{}{
		"id":     e.ID,
		"date":   e.Date.Format("2006-01-02"),
		"amount": e.Amount,
		"trips":  e.Trips,
		"hours":  e.Hours,
	}
}

// SummaryView is the JSON shape for aggregate totals.
func SummaryView(sum domain.Summary) map[string]interface{} {
	return map[string]interface{}{
		"days":         sum.Days,
		"total_amount": sum.TotalAmount,
		"total_trips":  sum.TotalTrips,
		"total_hours":  sum.TotalHours,
	}
}

type paramError string

func (e paramError) Error() string { return string(e) }

func errFor(param string) error {
	return paramError("invalid " + param + " date, expected YYYY-MM-DD")
}
