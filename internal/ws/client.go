package ws

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"harmony/internal/auth"
	"harmony/internal/dm"
	"harmony/internal/models"
	"harmony/internal/store"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Client is one authenticated websocket connection.
type Client struct {
	hub    *Hub
	router *dm.Router
	conn   *websocket.Conn
	user   *models.User
	send   chan []byte
	rooms  map[string]bool
	log    zerolog.Logger

	sendMu sync.Mutex
	closed bool
}

// trySend queues data without blocking. It reports false if the client is
// closed or its buffer is full. Queueing and closing are serialized so a
// concurrent delivery can never hit a closed channel.
func (c *Client) trySend(data []byte) bool {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (c *Client) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// inbound is a client frame before its data is decoded per intent.
type inbound struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type sendDMIntent struct {
	ReceiverID string `json:"receiverId"`
	Content    string `json:"content"`
	ReplyToID  string `json:"replyToId"`
}

type conversationIntent struct {
	UserID     string `json:"userId"`
	ReceiverID string `json:"receiverId"`
}

func (i conversationIntent) counterpart() string {
	if i.UserID != "" {
		return i.UserID
	}
	return i.ReceiverID
}

// handshakeToken extracts the bearer token from the upgrade request. Browser
// websocket clients cannot set headers, so the query param is checked first;
// non-browser clients may use the Authorization header instead.
func handshakeToken(r *http.Request) string {
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}
	if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

// ServeWs authenticates the handshake and starts the connection pumps. The
// token is validated by the same rule as the REST middleware; an invalid or
// missing token refuses the connection, never an anonymous one.
func ServeWs(hub *Hub, router *dm.Router, tokens *auth.Tokens, s store.Store, w http.ResponseWriter, r *http.Request) {
	token := handshakeToken(r)
	if token == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	user, err := tokens.Authenticate(s, token)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		hub.log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := &Client{
		hub:    hub,
		router: router,
		conn:   conn,
		user:   user,
		send:   make(chan []byte, 64),
		rooms:  make(map[string]bool),
		log:    hub.log.With().Str("user_id", user.ID).Logger(),
	}
	hub.register(client)

	go client.writePump()
	go client.readPump()

	hub.send(client, "connected", map[string]any{
		"user": user.Profile(),
	})
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.closeSend()
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Debug().Err(err).Msg("unexpected close")
			}
			return
		}

		var frame inbound
		if err := json.Unmarshal(raw, &frame); err != nil {
			c.log.Debug().Err(err).Msg("bad frame")
			continue
		}
		c.dispatch(frame)
	}
}

func (c *Client) dispatch(frame inbound) {
	switch frame.Event {
	case "join_conversation":
		var intent conversationIntent
		if err := json.Unmarshal(frame.Data, &intent); err != nil || intent.counterpart() == "" {
			return
		}
		c.hub.JoinConversation(c, intent.counterpart())

	case "send_dm":
		var intent sendDMIntent
		if err := json.Unmarshal(frame.Data, &intent); err != nil {
			return
		}
		// Fire and forget from the client's side; the router persists and
		// delivers exactly as the REST path does.
		if _, err := c.router.Send(c.user, intent.ReceiverID, intent.Content, intent.ReplyToID); err != nil {
			c.log.Debug().Err(err).Msg("send_dm rejected")
		}

	case "typing_start":
		c.typing(frame.Data, "user_typing", true)

	case "typing_stop":
		c.typing(frame.Data, "user_stop_typing", false)

	default:
		c.log.Debug().Str("event", frame.Event).Msg("unknown intent")
	}
}

// typing signals are ephemeral and room-scoped; nothing is persisted.
func (c *Client) typing(data json.RawMessage, event string, withUsername bool) {
	var intent conversationIntent
	if err := json.Unmarshal(data, &intent); err != nil || intent.counterpart() == "" {
		return
	}
	payload := map[string]any{"userId": c.user.ID}
	if withUsername {
		payload["username"] = c.user.Username
	}
	c.hub.BroadcastConversation(c.user.ID, intent.counterpart(), c.user.ID, event, payload)
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
