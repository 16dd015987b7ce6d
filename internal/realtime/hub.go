package realtime

import (
	"context"
	"sync"

	"github.com/anonto42/inkwell/backend/internal/logger"
	"github.com/anonto42/inkwell/backend/internal/metrics"
	"github.com/anonto42/inkwell/backend/internal/models"
	"go.uber.org/zap"
)

const (
	sendBufferSize    = 64
	deliverBufferSize = 1024
)

type delivery struct {
	userID uint
	data   []byte
}

// Hub tracks stream clients per user and routes each published row only to
// the connections of the row's recipient.
type Hub struct {
	clients map[uint]map[*Client]struct{}
	stopped bool
	mu      sync.RWMutex

	unregister chan *Client
	deliver    chan delivery
	done       chan struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[uint]map[*Client]struct{}),
		unregister: make(chan *Client, 64),
		deliver:    make(chan delivery, deliverBufferSize),
		done:       make(chan struct{}),
	}
}

// Run processes unregistrations and deliveries until ctx is done, then
// closes every client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			close(h.done)
			return
		case c := <-h.unregister:
			h.remove(c)
		case d := <-h.deliver:
			h.fanOut(d)
		}
	}
}

// Register adds c. After the hub has stopped, c is closed immediately.
// Registration shares mu with shutdown, so no client can slip in unclosed.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stopped {
		close(c.send)
		return
	}
	h.attach(c)
}

func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Publish queues n for delivery to its recipient's connections.
func (h *Hub) Publish(ctx context.Context, n models.Notification) error {
	data, err := encodeInsert(n)
	if err != nil {
		return err
	}
	select {
	case h.deliver <- delivery{userID: n.UserID, data: data}:
		return nil
	case <-h.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ConnectionCount returns the number of open connections for userID.
func (h *Hub) ConnectionCount(userID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// attach must be called with mu held.
func (h *Hub) attach(c *Client) {
	if h.clients[c.UserID] == nil {
		h.clients[c.UserID] = make(map[*Client]struct{})
	}
	h.clients[c.UserID][c] = struct{}{}
	metrics.Get().RealtimeConnections.Inc()
	logger.Log.Debug("stream client connected", zap.Uint("user_id", c.UserID))
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.detach(c)
}

// detach must be called with mu held. It is safe to call twice.
func (h *Hub) detach(c *Client) {
	set, ok := h.clients[c.UserID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.clients, c.UserID)
	}
	close(c.send)
	metrics.Get().RealtimeConnections.Dec()
	logger.Log.Debug("stream client disconnected", zap.Uint("user_id", c.UserID))
}

// fanOut never blocks: a client whose buffer is full is disconnected.
func (h *Hub) fanOut(d delivery) {
	h.mu.Lock()
	defer h.mu.Unlock()

	m := metrics.Get()
	for c := range h.clients[d.userID] {
		select {
		case c.send <- d.data:
			m.RealtimeDelivered.Inc()
		default:
			m.RealtimeDropped.Inc()
			logger.Log.Warn("dropping slow stream client", zap.Uint("user_id", c.UserID))
			h.detach(c)
		}
	}
}

func (h *Hub) shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stopped = true
	for _, set := range h.clients {
		for c := range set {
			h.detach(c)
		}
	}
}
