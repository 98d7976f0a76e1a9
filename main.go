package main

import (
	"flag"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"harmony/internal/auth"
	"harmony/internal/config"
	"harmony/internal/dm"
	"harmony/internal/handlers"
	"harmony/internal/middleware"
	"harmony/internal/store/sqlstore"
	"harmony/internal/ws"
)

var configName = flag.String("config", "config", "config file name (without extension)")

func main() {
	flag.Parse()

	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load(*configName)
	if err != nil {
		bootLog := zerolog.New(os.Stderr)
		bootLog.Fatal().Err(err).Msg("load config")
	}

	log := newLogger(cfg.Logger)

	if cfg.Token.Secret == "" {
		log.Fatal().Msg("token secret is not configured")
	}

	st, err := sqlstore.New(cfg.DB.Driver, cfg.DB.DSN)
	if err != nil {
		log.Fatal().Err(err).Msg("open store")
	}
	defer st.Close()

	tokens := &auth.Tokens{Secret: []byte(cfg.Token.Secret), TTL: cfg.Token.TTL}
	hub := ws.NewHub(log)
	router := dm.NewRouter(st, hub, log)

	authHandler := &handlers.AuthHandler{Store: st, Tokens: tokens}
	dmHandler := &handlers.DMHandler{Router: router}
	userHandler := &handlers.UserHandler{Store: st}
	friendHandler := &handlers.FriendHandler{Store: st}

	r := mux.NewRouter()
	r.Use(middleware.Logging(log))

	r.HandleFunc("/signup", authHandler.Signup).Methods("POST")
	r.HandleFunc("/login", authHandler.Login).Methods("POST")

	authed := r.NewRoute().Subrouter()
	authed.Use(middleware.Auth(tokens, st))
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

	// The websocket handshake carries the bearer token itself, so it stays
	// outside the header middleware.
	r.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWs(hub, router, tokens, st, w, r)
	})

	log.Info().Str("addr", cfg.Server.Addr).Msg("starting server")
	if err := http.ListenAndServe(cfg.Server.Addr, r); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func newLogger(cfg config.LoggerConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	var out = os.Stderr
	logger := zerolog.New(out)
	if cfg.Pretty {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen})
	}
	return logger.Level(level).With().Timestamp().Logger()
}
