package handlers

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"harmony/internal/apperr"
	"harmony/internal/middleware"
	"harmony/internal/store"
)

// UserHandler exposes the block-list capability the direct-message router
// consults.
type UserHandler struct {
	Store store.Store
}

func (h *UserHandler) Block(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFrom(r.Context())
	targetID := mux.Vars(r)["userID"]

	if targetID == user.ID {
		writeError(w, apperr.InvalidArg("cannot block yourself"))
		return
	}
	if _, err := h.Store.GetUserByID(targetID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, apperr.NotFound("user not found"))
			return
		}
		writeError(w, apperr.Internal("failed to look up user"))
		return
	}

	if err := h.Store.BlockUser(user.ID, targetID); err != nil {
		writeError(w, apperr.Internal("failed to block user"))
		return
	}
	// Blocking ends the friendship, if any.
	if err := h.Store.RemoveFriendship(user.ID, targetID); err != nil {
		writeError(w, apperr.Internal("failed to remove friendship"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "user blocked"})
}

func (h *UserHandler) Unblock(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFrom(r.Context())
	targetID := mux.Vars(r)["userID"]

	if err := h.Store.UnblockUser(user.ID, targetID); err != nil {
		writeError(w, apperr.Internal("failed to unblock user"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "user unblocked"})
}
