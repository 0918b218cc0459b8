package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hkunkel2/habit-quest-api/internal/models"
	"github.com/hkunkel2/habit-quest-api/internal/services"
)

// AdminHandler routes are mounted behind AuthMiddleware.RequireAdmin.
type AdminHandler struct {
	dashboard  *services.DashboardService
	experience *services.ExperienceService
	clock      models.Clock
	log        *zap.Logger
}

func NewAdminHandler(dashboard *services.DashboardService, experience *services.ExperienceService, clock models.Clock, log *zap.Logger) *AdminHandler {
	return &AdminHandler{dashboard: dashboard, experience: experience, clock: clock, log: log}
}

func (h *AdminHandler) Overview(w http.ResponseWriter, r *http.Request) {
	out, err := h.dashboard.Overview(r.Context(), models.Today(h.clock))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

type reconcileResponse struct {
	UserID  uuid.UUID                  `json:"user_id"`
	Changes []services.ReconcileChange `json:"changes"`
}

// Reconcile rebuilds the user's running totals from the ledger.
func (h *AdminHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	userID, err := pathUUID(r, "userId")
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	changes, err := h.experience.Reconcile(r.Context(), userID)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, reconcileResponse{UserID: userID, Changes: changes})
}

type adjustRequest struct {
	CategoryID  uuid.UUID `json:"category_id"`
	Amount      int       `json:"amount"`
	Description string    `json:"description"`
}

func (h *AdminHandler) Adjust(w http.ResponseWriter, r *http.Request) {
	userID, err := pathUUID(r, "userId")
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	var body adjustRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	tx, err := h.experience.Adjust(r.Context(), services.AdjustInput{
		UserID:      userID,
		CategoryID:  body.CategoryID,
		Amount:      body.Amount,
		Description: body.Description,
	})
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, tx)
}
