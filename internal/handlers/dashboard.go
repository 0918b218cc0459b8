package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/hkunkel2/habit-quest-api/internal/models"
	"github.com/hkunkel2/habit-quest-api/internal/services"
)

type DashboardHandler struct {
	dashboard *services.DashboardService
	clock     models.Clock
	log       *zap.Logger
}

func NewDashboardHandler(dashboard *services.DashboardService, clock models.Clock, log *zap.Logger) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard, clock: clock, log: log}
}

// Get returns today's task counts, today's experience and the last seven
// days of experience, ending today.
func (h *DashboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	d, err := h.dashboard.ForUser(r.Context(), userID, models.Today(h.clock))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}
