package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/hkunkel2/habit-quest-api/internal/models"
	"github.com/hkunkel2/habit-quest-api/internal/services"
)

type ProfileHandler struct {
	profiles *services.ProfileService
	clock    models.Clock
	log      *zap.Logger
}

func NewProfileHandler(profiles *services.ProfileService, clock models.Clock, log *zap.Logger) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, clock: clock, log: log}
}

func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	viewerID, err := currentUser(r)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	targetID, err := pathUUID(r, "userId")
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	p, err := h.profiles.Build(r.Context(), viewerID, targetID, models.Today(h.clock))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
