package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/hkunkel2/habit-quest-api/internal/services"
)

type LeaderboardHandler struct {
	boards *services.LeaderboardService
	log    *zap.Logger
}

func NewLeaderboardHandler(boards *services.LeaderboardService, log *zap.Logger) *LeaderboardHandler {
	return &LeaderboardHandler{boards: boards, log: log}
}

// Get serves ?type=&categoryId=&limit=.
func (h *LeaderboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	q := services.LeaderboardQuery{Type: services.LeaderboardType(r.URL.Query().Get("type"))}
	var err error
	if q.CategoryID, err = queryUUID(r, "categoryId"); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	if q.Limit, err = queryLimit(r); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	board, err := h.boards.Get(r.Context(), q)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, board)
}
