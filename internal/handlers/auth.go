package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"harmony/internal/apperr"
	"harmony/internal/auth"
	"harmony/internal/models"
	"harmony/internal/store"
)

type AuthHandler struct {
	Store  store.Store
	Tokens *auth.Tokens
}

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	type SignupRequest struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.InvalidArg("invalid request body"))
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		writeError(w, apperr.InvalidArg("username and password required"))
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, apperr.Internal("internal server error"))
		return
	}

	user := &models.User{
		Username: req.Username,
		Email:    req.Email,
		Password: string(hashedPassword),
	}
	if err := h.Store.CreateUser(user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			writeError(w, apperr.AlreadyExists("username already exists"))
			return
		}
		writeError(w, apperr.Internal("failed to create user"))
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"user": user.Profile()})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var creds Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeError(w, apperr.InvalidArg("invalid request body"))
		return
	}

	user, err := h.Store.GetUserByUsername(creds.Username)
	if err != nil {
		writeError(w, apperr.Unauthorized("invalid credentials"))
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(creds.Password)); err != nil {
		writeError(w, apperr.Unauthorized("invalid credentials"))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"token": h.Tokens.Sign(user.ID),
		"user":  user,
	})
}

func (h *AuthHandler) SearchUsers(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeJSON(w, http.StatusOK, []models.PublicProfile{})
		return
	}

	users, err := h.Store.SearchUsers(query)
	if err != nil {
		writeError(w, apperr.Internal("search failed"))
		return
	}

	profiles := make([]models.PublicProfile, 0, len(users))
	for i := range users {
		profiles = append(profiles, users[i].Profile())
	}
	writeJSON(w, http.StatusOK, profiles)
}
