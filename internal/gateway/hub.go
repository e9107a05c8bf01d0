package gateway

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/hollowshade/wavecore/internal/wave/event"
)

// writeTimeout bounds one broadcast write per subscriber.
const writeTimeout = 3 * time.Second

// Hub fans wave lifecycle events out to websocket subscribers. It
// implements event.Publisher: the lifecycle manager publishes into it
// and every connected client receives the event as a JSON frame.
type Hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[*websocket.Conn]struct{})}
}

// Add registers a subscriber connection.
func (h *Hub) Add(conn *websocket.Conn) {
	h.mu.Lock()
	h.clients[conn] = struct{}{}
	h.mu.Unlock()
}

// Remove drops a subscriber connection.
func (h *Hub) Remove(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
}

// Count returns the number of connected subscribers.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Broadcast writes a message to every subscriber, dropping connections
// whose writes fail or time out.
func (h *Hub) Broadcast(message []byte) {
	h.mu.Lock()
	for conn := range h.clients {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		err := conn.Write(ctx, websocket.MessageText, message)
		cancel()
		if err != nil {
			_ = conn.Close(websocket.StatusNormalClosure, "")
			delete(h.clients, conn)
		}
	}
	h.mu.Unlock()
}

// Publish implements event.Publisher.
func (h *Hub) Publish(ctx context.Context, evt event.Event) {
	message, err := json.Marshal(evt)
	if err != nil {
		log.Printf("marshal event failed type=%s wave_id=%s err=%v", evt.Type, evt.WaveID, err)
		return
	}
	h.Broadcast(message)
}
