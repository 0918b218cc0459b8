package handlers

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hkunkel2/habit-quest-api/internal/models"
	"github.com/hkunkel2/habit-quest-api/internal/services"
)

// ExperienceHandler serves /api/users/{userId}/... experience reads. Levels
// are visible to any signed-in user; the rest only to the owner.
type ExperienceHandler struct {
	experience *services.ExperienceService
	log        *zap.Logger
}

func NewExperienceHandler(experience *services.ExperienceService, log *zap.Logger) *ExperienceHandler {
	return &ExperienceHandler{experience: experience, log: log}
}

func (h *ExperienceHandler) ownTarget(r *http.Request) (uuid.UUID, error) {
	viewer, err := currentUser(r)
	if err != nil {
		return uuid.Nil, err
	}
	target, err := pathUUID(r, "userId")
	if err != nil {
		return uuid.Nil, err
	}
	if viewer != target {
		return uuid.Nil, fmt.Errorf("experience of another user: %w", models.ErrForbidden)
	}
	return target, nil
}

func (h *ExperienceHandler) Levels(w http.ResponseWriter, r *http.Request) {
	target, err := pathUUID(r, "userId")
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	levels, err := h.experience.Levels(r.Context(), target)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, levels)
}

func (h *ExperienceHandler) Summary(w http.ResponseWriter, r *http.Request) {
	target, err := h.ownTarget(r)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	summary, err := h.experience.Summary(r.Context(), target)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

type historyResponse struct {
	Transactions []models.TransactionView `json:"transactions"`
	Limit        int                      `json:"limit"`
	Offset       int                      `json:"offset"`
}

func (h *ExperienceHandler) History(w http.ResponseWriter, r *http.Request) {
	target, err := h.ownTarget(r)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	q, err := historyQuery(r)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	rows, err := h.experience.History(r.Context(), target, q)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	limit := q.Limit
	if limit == 0 {
		limit = services.DefaultHistoryLimit
	}
	writeJSON(w, http.StatusOK, historyResponse{Transactions: rows, Limit: limit, Offset: q.Offset})
}

func historyQuery(r *http.Request) (services.HistoryQuery, error) {
	var q services.HistoryQuery
	var err error
	if q.Limit, err = queryLimit(r); err != nil {
		return q, err
	}
	if q.Offset, err = queryInt(r, "offset"); err != nil {
		return q, err
	}
	if q.CategoryID, err = queryUUID(r, "categoryId"); err != nil {
		return q, err
	}
	if raw := r.URL.Query().Get("type"); raw != "" {
		t := models.TransactionType(raw)
		q.Type = &t
	}
	return q, nil
}

func (h *ExperienceHandler) CategoryStats(w http.ResponseWriter, r *http.Request) {
	target, err := h.ownTarget(r)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	categoryID, err := pathUUID(r, "categoryId")
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	stats, err := h.experience.CategoryStats(r.Context(), target, categoryID)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
