package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"harmony/internal/apperr"
	"harmony/internal/middleware"
	"harmony/internal/models"
	"harmony/internal/store"
)

// FriendHandler exposes the friend-request lifecycle: send, auto-accept on a
// reciprocal request, accept/reject, list, remove.
type FriendHandler struct {
	Store store.Store
}

// List serves GET /friends.
func (h *FriendHandler) List(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFrom(r.Context())

	friendships, err := h.Store.GetFriendships(user.ID)
	if err != nil {
		writeError(w, apperr.Internal("failed to load friends"))
		return
	}

	friends := make([]models.FriendView, 0, len(friendships))
	for _, f := range friendships {
		friend, err := h.Store.GetUserByID(f.FriendID)
		if err != nil {
			continue
		}
		friends = append(friends, models.FriendView{Friendship: f, Friend: friend.Profile()})
	}
	writeJSON(w, http.StatusOK, map[string]any{"friends": friends})
}

// Request serves POST /friends/request. A pending request in the opposite
// direction is accepted instead of creating a duplicate pair.
func (h *FriendHandler) Request(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFrom(r.Context())

	var req struct {
		UserID string `json:"user_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
		writeError(w, apperr.InvalidArg("user id required"))
		return
	}
	if req.UserID == user.ID {
		writeError(w, apperr.InvalidArg("cannot send friend request to yourself"))
		return
	}

	if _, err := h.Store.GetUserByID(req.UserID); err != nil {
		writeError(w, apperr.NotFound("user not found"))
		return
	}

	friends, err := h.Store.AreFriends(user.ID, req.UserID)
	if err != nil {
		writeError(w, apperr.Internal("failed to check friendship"))
		return
	}
	if friends {
		writeError(w, apperr.InvalidArg("already friends"))
		return
	}

	blocked, err := h.Store.IsBlocked(req.UserID, user.ID)
	if err != nil {
		writeError(w, apperr.Internal("failed to check block list"))
		return
	}
	if blocked {
		writeError(w, apperr.InvalidArg("cannot send friend request"))
		return
	}

	if _, err := h.Store.GetPendingFriendRequest(user.ID, req.UserID); err == nil {
		writeError(w, apperr.InvalidArg("friend request already sent"))
		return
	}

	if received, err := h.Store.GetPendingFriendRequest(req.UserID, user.ID); err == nil {
		if err := h.acceptRequest(received); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"message":       "friend request accepted",
			"auto_accepted": true,
		})
		return
	}

	request := &models.FriendRequest{RequesterID: user.ID, ReceiverID: req.UserID}
	if err := h.Store.CreateFriendRequest(request); err != nil {
		writeError(w, apperr.Internal("failed to create friend request"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"request": request,
		"message": "friend request sent",
	})
}

// Requests serves GET /friends/requests: pending requests the caller received
// and sent, each with the counterpart profile resolved.
func (h *FriendHandler) Requests(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFrom(r.Context())

	received, err := h.Store.GetPendingFriendRequestsReceived(user.ID)
	if err != nil {
		writeError(w, apperr.Internal("failed to load friend requests"))
		return
	}
	sent, err := h.Store.GetPendingFriendRequestsSent(user.ID)
	if err != nil {
		writeError(w, apperr.Internal("failed to load friend requests"))
		return
	}

	receivedViews := make([]models.FriendRequestView, 0, len(received))
	for _, req := range received {
		requester, err := h.Store.GetUserByID(req.RequesterID)
		if err != nil {
			continue
		}
		profile := requester.Profile()
		receivedViews = append(receivedViews, models.FriendRequestView{FriendRequest: req, Requester: &profile})
	}

	sentViews := make([]models.FriendRequestView, 0, len(sent))
	for _, req := range sent {
		receiver, err := h.Store.GetUserByID(req.ReceiverID)
		if err != nil {
			continue
		}
		profile := receiver.Profile()
		sentViews = append(sentViews, models.FriendRequestView{FriendRequest: req, Receiver: &profile})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"received": receivedViews,
		"sent":     sentViews,
	})
}

// Respond serves PATCH /friends/requests/{requestID} with action "accept" or
// "reject". Only the receiver of a pending request can respond to it.
func (h *FriendHandler) Respond(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFrom(r.Context())
	requestID := mux.Vars(r)["requestID"]

	var req struct {
		Action string `json:"action"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.InvalidArg("invalid request body"))
		return
	}
	if req.Action != "accept" && req.Action != "reject" {
		writeError(w, apperr.InvalidArg("invalid action"))
		return
	}

	received, err := h.Store.GetPendingFriendRequestsReceived(user.ID)
	if err != nil {
		writeError(w, apperr.Internal("failed to load friend requests"))
		return
	}
	var request *models.FriendRequest
	for i := range received {
		if received[i].ID == requestID {
			request = &received[i]
			break
		}
	}
	if request == nil {
		writeError(w, apperr.NotFound("friend request not found"))
		return
	}

	if req.Action == "accept" {
		if err := h.acceptRequest(request); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "friend request accepted"})
		return
	}

	if err := h.Store.UpdateFriendRequestStatus(request.ID, models.FriendRequestRejected); err != nil {
		writeError(w, apperr.Internal("failed to update friend request"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "friend request rejected"})
}

func (h *FriendHandler) acceptRequest(request *models.FriendRequest) error {
	if err := h.Store.UpdateFriendRequestStatus(request.ID, models.FriendRequestAccepted); err != nil {
		return apperr.Internal("failed to update friend request")
	}
	if err := h.Store.AddFriendship(request.RequesterID, request.ReceiverID); err != nil {
		return apperr.Internal("failed to add friendship")
	}
	return nil
}

// Remove serves DELETE /friends/{userID}.
func (h *FriendHandler) Remove(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFrom(r.Context())
	friendID := mux.Vars(r)["userID"]

	friends, err := h.Store.AreFriends(user.ID, friendID)
	if err != nil {
		writeError(w, apperr.Internal("failed to check friendship"))
		return
	}
	if !friends {
		writeError(w, apperr.InvalidArg("not friends"))
		return
	}

	if err := h.Store.RemoveFriendship(user.ID, friendID); err != nil {
		writeError(w, apperr.Internal("failed to remove friend"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "friend removed"})
}

// Blocked serves GET /friends/blocked.
func (h *FriendHandler) Blocked(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFrom(r.Context())

	rowsBlocked, err := h.Store.GetBlockedUsers(user.ID)
	if err != nil {
		writeError(w, apperr.Internal("failed to load blocked users"))
		return
	}

	views := make([]models.BlockedUserView, 0, len(rowsBlocked))
	for _, b := range rowsBlocked {
		blockedUser, err := h.Store.GetUserByID(b.BlockedUserID)
		if err != nil {
			continue
		}
		views = append(views, models.BlockedUserView{BlockedUser: b, Blocked: blockedUser.Profile()})
	}
	writeJSON(w, http.StatusOK, map[string]any{"blocked": views})
}
