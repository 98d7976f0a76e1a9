package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"harmony/internal/apperr"
	"harmony/internal/dm"
	"harmony/internal/middleware"
)

type DMHandler struct {
	Router *dm.Router
}

// Conversations serves GET /dm/conversations.
func (h *DMHandler) Conversations(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFrom(r.Context())
	summaries, err := h.Router.Conversations(user)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"conversations": summaries})
}

// Conversation serves GET /dm/{userID}.
func (h *DMHandler) Conversation(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFrom(r.Context())
	otherUserID := mux.Vars(r)["userID"]

	messages, other, err := h.Router.Conversation(user, otherUserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"messages": messages,
		"user":     other.Profile(),
	})
}

// Send serves POST /dm/{userID}.
func (h *DMHandler) Send(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFrom(r.Context())
	receiverID := mux.Vars(r)["userID"]

	var req struct {
		Content   string `json:"content"`
		ReplyToID string `json:"reply_to_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.InvalidArg("invalid request body"))
		return
	}

	view, err := h.Router.Send(user, receiverID, req.Content, req.ReplyToID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": view})
}

// Edit serves PATCH /dm/{userID}/messages/{messageID}.
func (h *DMHandler) Edit(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFrom(r.Context())
	vars := mux.Vars(r)

	var req struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.InvalidArg("invalid request body"))
		return
	}

	view, err := h.Router.Edit(user, vars["userID"], vars["messageID"], req.Content)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": view})
}

// React serves POST /dm/{userID}/reactions/{messageID}.
func (h *DMHandler) React(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFrom(r.Context())
	vars := mux.Vars(r)

	var req struct {
		Emoji string `json:"emoji"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.InvalidArg("invalid request body"))
		return
	}

	aggregate, action, err := h.Router.React(user, vars["userID"], vars["messageID"], req.Emoji)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"reactions": aggregate,
		"action":    action,
	})
}

// CreateEntry serves POST /dm/conversations/{userID}/create.
func (h *DMHandler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFrom(r.Context())
	if err := h.Router.CreateEntry(user, mux.Vars(r)["userID"]); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "conversation created"})
}

// Hide serves POST /dm/conversations/{userID}/hide.
func (h *DMHandler) Hide(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFrom(r.Context())
	if err := h.Router.Hide(user, mux.Vars(r)["userID"]); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "conversation hidden"})
}

// Unhide serves POST /dm/conversations/{userID}/unhide.
func (h *DMHandler) Unhide(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFrom(r.Context())
	if err := h.Router.Unhide(user, mux.Vars(r)["userID"]); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "conversation unhidden"})
}
