// Package realtime pushes notification payloads to connected websocket
// clients. Delivery is best effort: a payload for a user with no open
// connection, or whose buffer is full, is dropped.
package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Payload is the message pushed to a recipient.
type Payload struct {
	Title       string    `json:"title"`
	Message     string    `json:"message"`
	RecipientID string    `json:"recipient_id"`
	CreatedAt   time.Time `json:"created_at"`
}

const clientBuffer = 16

// Client is one connection belonging to a user.
type Client struct {
	UserID string
	send   chan []byte
}

// NewClient creates a client for userID.
func NewClient(userID string) *Client {
	return &Client{UserID: userID, send: make(chan []byte, clientBuffer)}
}

// Messages returns the channel of encoded payloads for this client. It is
// closed when the client is unregistered or the hub stops.
func (c *Client) Messages() <-chan []byte {
	return c.send
}

// Hub tracks clients by user ID and routes pushes to them. Registration and
// delivery share one lock, so a push only reaches clients registered
// before it.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]struct{}
	stopped bool

	done chan struct{}
	log  *zap.Logger
}

// NewHub creates a Hub. Call Run to tie its lifetime to a context.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[string]map[*Client]struct{}),
		done:    make(chan struct{}),
		log:     logger,
	}
}

// Run blocks until ctx is cancelled, then closes every client and refuses
// new registrations.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	<-ctx.Done()

	h.mu.Lock()
	defer h.mu.Unlock()
	h.stopped = true
	for uid, set := range h.clients {
		for c := range set {
			close(c.send)
		}
		delete(h.clients, uid)
	}
}

// Done is closed once Run has returned.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// Register adds c to the hub. It returns false if the hub has stopped.
func (h *Hub) Register(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stopped {
		return false
	}
	set, ok := h.clients[c.UserID]
	if !ok {
		set = make(map[*Client]struct{})
		h.clients[c.UserID] = set
	}
	set[c] = struct{}{}
	return true
}

// Unregister removes c and closes its message channel. Unknown clients are
// ignored.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[c.UserID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	close(c.send)
	if len(set) == 0 {
		delete(h.clients, c.UserID)
	}
}

// Push sends p to every connection currently open for p.RecipientID. It
// never blocks: a client with a full buffer misses the payload.
func (h *Hub) Push(p Payload) {
	if h == nil {
		return
	}
	data, err := json.Marshal(p)
	if err != nil {
		h.log.Warn("realtime: encode payload", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients[p.RecipientID] {
		select {
		case c.send <- data:
		default:
			h.log.Debug("realtime: client buffer full, dropping",
				zap.String("recipient_id", p.RecipientID))
		}
	}
}

// Connected returns the number of open connections for userID.
func (h *Hub) Connected(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}
