package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hkunkel2/habit-quest-api/internal/models"
	"github.com/hkunkel2/habit-quest-api/internal/services"
)

type FriendHandler struct {
	friends *services.FriendService
	log     *zap.Logger
}

func NewFriendHandler(friends *services.FriendService, log *zap.Logger) *FriendHandler {
	return &FriendHandler{friends: friends, log: log}
}

type targetRequest struct {
	TargetUserID uuid.UUID `json:"target_user_id"`
}

func (b targetRequest) validate() error {
	if b.TargetUserID == uuid.Nil {
		return models.NewValidationError("target_user_id", "required")
	}
	return nil
}

func (h *FriendHandler) decodeTarget(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, r, h.log, err)
		return uuid.Nil, uuid.Nil, false
	}
	var body targetRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, h.log, err)
		return uuid.Nil, uuid.Nil, false
	}
	if err := body.validate(); err != nil {
		writeError(w, r, h.log, err)
		return uuid.Nil, uuid.Nil, false
	}
	return userID, body.TargetUserID, true
}

func (h *FriendHandler) SendRequest(w http.ResponseWriter, r *http.Request) {
	userID, targetID, ok := h.decodeTarget(w, r)
	if !ok {
		return
	}
	rel, err := h.friends.SendRequest(r.Context(), userID, targetID)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, rel)
}

func (h *FriendHandler) Block(w http.ResponseWriter, r *http.Request) {
	userID, targetID, ok := h.decodeTarget(w, r)
	if !ok {
		return
	}
	rel, err := h.friends.Block(r.Context(), userID, targetID)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, rel)
}

func (h *FriendHandler) Accept(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	rel, err := h.friends.Accept(r.Context(), userID, id)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, rel)
}

func (h *FriendHandler) Remove(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	if err := h.friends.Remove(r.Context(), userID, id); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *FriendHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	friends, err := h.friends.Friends(r.Context(), userID)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, friends)
}

func (h *FriendHandler) Pending(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	rows, err := h.friends.Pending(r.Context(), userID)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (h *FriendHandler) Sent(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	rows, err := h.friends.Sent(r.Context(), userID)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}
