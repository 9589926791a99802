package live

import (
	"context"
	"sync"

	"github.com/anonto42/nano-midea/engagement/internal/metrics"
	"github.com/anonto42/nano-midea/engagement/pkg/logger"
)

// Hub is the process-local registry: at most one client per user.
type Hub struct {
	mu      sync.RWMutex
	clients map[uint]*Client
}

func NewHub() *Hub {
	return &Hub{clients: make(map[uint]*Client)}
}

// Connect registers c for its user, replacing and closing any previous
// client of that user.
func (h *Hub) Connect(_ context.Context, c *Client) {
	h.add(c)
}

// add registers c and reports whether the user already had a client on
// this instance.
func (h *Hub) add(c *Client) bool {
	h.mu.Lock()
	old, replaced := h.clients[c.UserID]
	h.clients[c.UserID] = c
	h.mu.Unlock()

	if replaced && old != c {
		old.close()
	} else {
		metrics.LiveConnectionsActive.Inc()
	}

	l := logger.L()
	l.Debug().Uint(logger.FieldUserID, c.UserID).Str("client_id", c.ID).Bool("replaced", replaced).Msg("live client connected")
	return replaced
}

// Disconnect removes c if it is still the user's current client. A client
// that was already replaced leaves the registry untouched.
func (h *Hub) Disconnect(_ context.Context, c *Client) {
	h.remove(c)
}

func (h *Hub) remove(c *Client) bool {
	h.mu.Lock()
	cur, ok := h.clients[c.UserID]
	current := ok && cur == c
	if current {
		delete(h.clients, c.UserID)
	}
	h.mu.Unlock()

	c.close()
	if current {
		metrics.LiveConnectionsActive.Dec()
		l := logger.L()
		l.Debug().Uint(logger.FieldUserID, c.UserID).Str("client_id", c.ID).Msg("live client disconnected")
	}
	return current
}

func (h *Hub) Lookup(_ context.Context, userID uint) (Channel, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.clients[userID]
	if !ok {
		return nil, false
	}
	return c, true
}

// deliver writes an already encoded event to the local client of userID.
func (h *Hub) deliver(userID uint, data []byte) bool {
	h.mu.RLock()
	c, ok := h.clients[userID]
	h.mu.RUnlock()
	if !ok {
		return false
	}
	return c.enqueue(data) == nil
}

// Count returns the number of connected users.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// userIDs lists the users with a client on this instance.
func (h *Hub) userIDs() []uint {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ids := make([]uint, 0, len(h.clients))
	for id := range h.clients {
		ids = append(ids, id)
	}
	return ids
}

// CloseAll closes every client. Used on shutdown.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[uint]*Client)
	h.mu.Unlock()

	for _, c := range clients {
		c.close()
		metrics.LiveConnectionsActive.Dec()
	}
}

var (
	_ Registry  = (*Hub)(nil)
	_ Connector = (*Hub)(nil)
)
