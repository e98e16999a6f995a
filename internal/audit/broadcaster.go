package audit

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"
)

// Broadcaster manages WebSocket connections and pushes audit entries to
// regulator dashboards as they are appended.
type Broadcaster struct {
	mu          sync.RWMutex
	connections map[*websocket.Conn]bool
}

// NewBroadcaster creates a new audit broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		connections: make(map[*websocket.Conn]bool),
	}
}

// Subscribe registers a WebSocket connection for live audit entries.
func (b *Broadcaster) Subscribe(conn *websocket.Conn) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.connections[conn] = true
}

// Unsubscribe removes a WebSocket connection.
func (b *Broadcaster) Unsubscribe(conn *websocket.Conn) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.connections, conn)
}

// Broadcast sends an audit entry to all subscribers. gorilla/websocket allows
// at most one concurrent writer per connection, so writes happen under the
// full lock.
func (b *Broadcaster) Broadcast(entry *Entry) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.connections) == 0 {
		return
	}

	// Serialize once
	data, err := json.Marshal(entry)
	if err != nil {
		slog.Error("failed to marshal audit entry", "error", err)
		return
	}

	for conn := range b.connections {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			slog.Warn("failed to send audit entry to websocket client",
				"error", err,
				"seq", entry.Seq,
			)
			// Connection will be cleaned up when client disconnects
		}
	}
}

// ConnectionCount returns the number of active WebSocket subscribers.
func (b *Broadcaster) ConnectionCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.connections)
}
