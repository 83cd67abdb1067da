// internal/websocket/hub.go
package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"solarcrm-service/internal/domain/event"

	"go.uber.org/zap"
)

// Hub fans record and team change events out to every connected client. It
// is a one-way feed: clients subscribe by connecting, and the only inbound
// traffic honored is the ping keepalive.
type Hub struct {
	clients map[*Client]bool
	mu      sync.RWMutex

	register   chan *Client
	unregister chan *Client
	broadcast  chan event.Event

	// done is closed when Run returns; senders on the unbuffered channels
	// select against it so they cannot block once the loop is gone.
	done chan struct{}

	logger *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan event.Event, 256),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Publish queues an event for delivery. It never blocks the caller: when the
// feed is saturated the event is dropped, since every payload is also
// readable through the REST API.
func (h *Hub) Publish(ev event.Event) {
	select {
	case h.broadcast <- ev:
	default:
		h.logger.Warn("change feed full, dropping event", zap.String("type", string(ev.Type)))
	}
}

func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case ev := <-h.broadcast:
			h.broadcastEvent(ev)
		}
	}
}

// add hands the client to the run loop. It reports false when the hub has
// shut down, so late connections are refused instead of blocking forever.
func (h *Hub) add(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// remove detaches a client; a no-op once the hub has shut down.
func (h *Hub) remove(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client] = true
	h.logger.Info("change feed client connected",
		zap.String("remote", client.remoteAddr),
		zap.Int("total", len(h.clients)),
	)
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		client.Close()
		h.logger.Info("change feed client disconnected",
			zap.String("remote", client.remoteAddr),
			zap.Int("total", len(h.clients)),
		)
	}
}

func (h *Hub) broadcastEvent(ev event.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		h.logger.Error("failed to marshal change feed event", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		client.send(data)
	}
}

// TotalClients reports the number of open feed connections.
func (h *Hub) TotalClients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		client.Close()
	}
	h.clients = make(map[*Client]bool)
}
