package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/irgordon/helix/api/internal/core/domain"
)

type HealthHandler struct {
	history domain.HistoryRepository
}

func NewHealthHandler(history domain.HistoryRepository) *HealthHandler {
	return &HealthHandler{history: history}
}

// Check handles GET /health
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	// 🛡️ SLA: Use a tight timeout for health checks
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.history.Ping(ctx); err != nil {
		// 🚨 FAIL: The API is up, but the history store is unreachable
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("unhealthy: history store unreachable"))
		return
	}

	// ✅ PASS
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("healthy"))
}
