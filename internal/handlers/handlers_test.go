package handlers

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"harmony/internal/auth"
	"harmony/internal/dm"
	"harmony/internal/middleware"
	"harmony/internal/models"
	"harmony/internal/store/sqlstore"
	"harmony/internal/ws"
)

type testServer struct {
	router *mux.Router
	store  *sqlstore.SQLStore
	tokens *auth.Tokens
}

// newTestServer wires the route tree the way main does, with a hub that has
// no live connections.
func newTestServer(t *testing.T) *testServer {
	t.Helper()

	s, err := sqlstore.New("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	log := zerolog.Nop()
	tokens := &auth.Tokens{Secret: []byte("test-secret"), TTL: time.Hour}
	hub := ws.NewHub(log)
	dmRouter := dm.NewRouter(s, hub, log)

	authHandler := &AuthHandler{Store: s, Tokens: tokens}
	dmHandler := &DMHandler{Router: dmRouter}
	userHandler := &UserHandler{Store: s}
	friendHandler := &FriendHandler{Store: s}

	r := mux.NewRouter()
	r.HandleFunc("/signup", authHandler.Signup).Methods("POST")
	r.HandleFunc("/login", authHandler.Login).Methods("POST")

	authed := r.NewRoute().Subrouter()
	authed.Use(middleware.Auth(tokens, s))
	authed.HandleFunc("/users/search", authHandler.SearchUsers).Methods("GET")
	authed.HandleFunc("/users/{userID}/block", userHandler.Block).Methods("POST")
	authed.HandleFunc("/users/{userID}/unblock", userHandler.Unblock).Methods("POST")
	authed.HandleFunc("/friends", friendHandler.List).Methods("GET")
	authed.HandleFunc("/friends/request", friendHandler.Request).Methods("POST")
	authed.HandleFunc("/friends/requests", friendHandler.Requests).Methods("GET")
	authed.HandleFunc("/friends/requests/{requestID}", friendHandler.Respond).Methods("PATCH")
	authed.HandleFunc("/friends/blocked", friendHandler.Blocked).Methods("GET")
	authed.HandleFunc("/friends/{userID}", friendHandler.Remove).Methods("DELETE")
	authed.HandleFunc("/dm/conversations", dmHandler.Conversations).Methods("GET")
	authed.HandleFunc("/dm/conversations/{userID}/create", dmHandler.CreateEntry).Methods("POST")
	authed.HandleFunc("/dm/conversations/{userID}/hide", dmHandler.Hide).Methods("POST")
	authed.HandleFunc("/dm/conversations/{userID}/unhide", dmHandler.Unhide).Methods("POST")
	authed.HandleFunc("/dm/{userID}", dmHandler.Conversation).Methods("GET")
	authed.HandleFunc("/dm/{userID}", dmHandler.Send).Methods("POST")
	authed.HandleFunc("/dm/{userID}/messages/{messageID}", dmHandler.Edit).Methods("PATCH")
	authed.HandleFunc("/dm/{userID}/reactions/{messageID}", dmHandler.React).Methods("POST")

	return &testServer{router: r, store: s, tokens: tokens}
}

func (ts *testServer) createUser(t *testing.T, username string) (*models.User, string) {
	t.Helper()
	user := &models.User{Username: username, Email: username + "@example.com", Password: "hash"}
	require.NoError(t, ts.store.CreateUser(user))
	return user, ts.tokens.Sign(user.ID)
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	ts.router.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, into any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), into))
}
