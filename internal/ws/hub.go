package ws

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"
)

// Event is the wire envelope for both directions of the real-time surface.
type Event struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Hub tracks live connections and the conversation rooms they have joined,
// and implements dm.Deliverer on top of them.
type Hub struct {
	mu       sync.RWMutex
	rooms    map[string]map[*Client]bool
	presence *Presence
	log      zerolog.Logger
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		rooms:    make(map[string]map[*Client]bool),
		presence: NewPresence(),
		log:      log,
	}
}

func (h *Hub) Presence() *Presence { return h.presence }

func (h *Hub) register(client *Client) {
	h.presence.Register(client.user.ID, client)
}

func (h *Hub) unregister(client *Client) {
	h.presence.Unregister(client.user.ID, client)

	h.mu.Lock()
	defer h.mu.Unlock()
	for room := range client.rooms {
		if clients, ok := h.rooms[room]; ok {
			delete(clients, client)
			if len(clients) == 0 {
				delete(h.rooms, room)
			}
		}
	}
}

// JoinConversation adds the client to the canonical room for its
// conversation with otherUserID. There is no automatic join.
func (h *Hub) JoinConversation(client *Client, otherUserID string) {
	room := ConversationRoom(client.user.ID, otherUserID)

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[*Client]bool)
	}
	h.rooms[room][client] = true
	client.rooms[room] = true
}

// DeliverTo sends the event to the user's live connection, reporting whether
// one was present. An offline user is not an error.
func (h *Hub) DeliverTo(userID, event string, payload any) bool {
	client, ok := h.presence.Lookup(userID)
	if !ok {
		return false
	}
	h.send(client, event, payload)
	return true
}

// BroadcastConversation sends the event to every connection joined to the two
// users' room, excluding exceptUserID's connection.
func (h *Hub) BroadcastConversation(userID, otherUserID, exceptUserID, event string, payload any) {
	room := ConversationRoom(userID, otherUserID)

	h.mu.RLock()
	clients := make([]*Client, 0, len(h.rooms[room]))
	for client := range h.rooms[room] {
		if client.user.ID != exceptUserID {
			clients = append(clients, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range clients {
		h.send(client, event, payload)
	}
}

func (h *Hub) send(client *Client, event string, payload any) {
	data, err := json.Marshal(Event{Event: event, Data: payload})
	if err != nil {
		h.log.Error().Err(err).Str("event", event).Msg("marshal event")
		return
	}
	if !client.trySend(data) {
		// Slow or gone client: drop it rather than block delivery.
		h.unregister(client)
		client.closeSend()
	}
}
