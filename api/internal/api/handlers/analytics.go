package handlers

import (
	"net/http"
	"strconv"

	"github.com/irgordon/helix/api/internal/core/domain"
	"github.com/irgordon/helix/api/internal/core/services"
)

const (
	defaultHistoryLimit = 100
	maxHistoryLimit     = 1000
)

type AnalyticsHandler struct {
	Service *services.StegoService
}

func NewAnalyticsHandler(service *services.StegoService) *AnalyticsHandler {
	return &AnalyticsHandler{Service: service}
}

// History handles GET /api/v1/analytics/history?kind=encode|decode&limit=N
func (h *AnalyticsHandler) History(w http.ResponseWriter, r *http.Request) {
	kind, ok := parseKind(w, r.URL.Query().Get("kind"))
	if !ok {
		return
	}

	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			badRequest(w, "limit must be a positive integer")
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	entries, err := h.Service.History(r.Context(), kind, limit)
	if err != nil {
		HandleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// Summary handles GET /api/v1/analytics/summary
func (h *AnalyticsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	sum, err := h.Service.Summary(r.Context())
	if err != nil {
		HandleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

// Clear handles DELETE /api/v1/analytics/history
func (h *AnalyticsHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.ClearHistory(r.Context()); err != nil {
		HandleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parseKind(w http.ResponseWriter, raw string) (domain.OperationKind, bool) {
	switch kind := domain.OperationKind(raw); kind {
	case "", domain.KindEncode, domain.KindDecode:
		return kind, true
	}
	badRequest(w, "kind must be encode or decode")
	return "", false
}
