package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/hkunkel2/habit-quest-api/internal/models"
	"github.com/hkunkel2/habit-quest-api/internal/services"
)

type StreakHandler struct {
	streaks    *services.StreakService
	completion *services.CompletionService
	clock      models.Clock
	log        *zap.Logger
}

func NewStreakHandler(streaks *services.StreakService, completion *services.CompletionService, clock models.Clock, log *zap.Logger) *StreakHandler {
	return &StreakHandler{streaks: streaks, completion: completion, clock: clock, log: log}
}

// Status ensures today's task. With ?habitId= it handles one habit and
// answers 201 when the task was created; otherwise every Active habit.
func (h *StreakHandler) Status(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	habitID, err := queryUUID(r, "habitId")
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	today := models.Today(h.clock)

	if habitID != nil {
		st, err := h.streaks.EnsureDailyTask(r.Context(), userID, *habitID, today)
		if err != nil {
			writeError(w, r, h.log, err)
			return
		}
		status := http.StatusOK
		if st.Created {
			status = http.StatusCreated
		}
		writeJSON(w, status, st)
		return
	}

	all, err := h.streaks.EnsureAllDailyTasks(r.Context(), userID, today)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, all)
}

func (h *StreakHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	habitID, err := queryUUID(r, "habitId")
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	if habitID != nil {
		hs, err := h.streaks.GetStreaksForHabit(r.Context(), userID, *habitID)
		if err != nil {
			writeError(w, r, h.log, err)
			return
		}
		writeJSON(w, http.StatusOK, hs)
		return
	}
	all, err := h.streaks.GetStreaksForUser(r.Context(), userID)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, all)
}

func (h *StreakHandler) CompleteTask(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	taskID, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	res, err := h.completion.CompleteTask(r.Context(), userID, taskID, models.Today(h.clock))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
