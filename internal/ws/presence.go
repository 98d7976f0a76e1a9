package ws

import "sync"

// Presence maps each authenticated user to at most one live connection.
// A second connection for the same user replaces the first
// (last-connected-wins); the replaced connection is expected to close itself.
type Presence struct {
	mu    sync.RWMutex
	conns map[string]*Client
}

func NewPresence() *Presence {
	return &Presence{conns: make(map[string]*Client)}
}

func (p *Presence) Register(userID string, client *Client) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.conns[userID] = client
}

// Unregister removes the entry only if it still points at the disconnecting
// client. Without the guard, the replaced old connection's disconnect would
// clear a newer registration.
func (p *Presence) Unregister(userID string, client *Client) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conns[userID] == client {
		delete(p.conns, userID)
	}
}

func (p *Presence) Lookup(userID string) (*Client, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	client, ok := p.conns[userID]
	return client, ok
}
