package overlay

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/gofiber/websocket/v2"

	"github.com/yourorg/gensanfare/internal/models"
)

// Hub broadcasts overlay and display events for one session to its connected
// browser tabs. It implements Surface by serializing each operation as a
// typed JSON event.
type Hub struct {
	clients    map[*websocket.Conn]bool
	broadcast  chan []byte
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	done       chan struct{}
	closeOnce  sync.Once
	mu         sync.RWMutex
}

// Event is the envelope every websocket message uses.
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// NewHub creates and starts a hub for one session.
func NewHub() *Hub {
	h := &Hub{
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		done:       make(chan struct{}),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.Close()
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				if err := client.WriteMessage(websocket.TextMessage, message); err != nil {
					client.Close()
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()

		case <-h.done:
			h.mu.Lock()
			for client := range h.clients {
				client.Close()
				delete(h.clients, client)
			}
			h.mu.Unlock()
			return
		}
	}
}

// HandleConn attaches a websocket connection to the hub and blocks until the
// client disconnects.
func (h *Hub) HandleConn(conn *websocket.Conn) {
	select {
	case h.register <- conn:
	case <-h.done:
		conn.Close()
		return
	}

	defer func() {
		select {
		case h.unregister <- conn:
		case <-h.done:
		}
	}()

	// Drain client messages; the stream is one-way.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

// Close shuts the hub down and disconnects every client. Called when the
// session is evicted.
func (h *Hub) Close() {
	h.closeOnce.Do(func() {
		close(h.done)
	})
}

// ClientCount returns the number of attached connections.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) send(eventType string, payload interface{}) {
	data, err := json.Marshal(Event{Type: eventType, Payload: payload})
	if err != nil {
		log.Printf("overlay: marshal %s event: %v", eventType, err)
		return
	}

	select {
	case h.broadcast <- data:
	default:
		// Channel full; drop rather than block the session.
	}
}

// ============================================================================
// Surface implementation
// ============================================================================

func (h *Hub) PlaceMarker(m Marker) {
	h.send("marker", m)
}

func (h *Hub) RemoveMarker(id string) {
	h.send("remove_marker", map[string]string{"id": id})
}

func (h *Hub) DrawLine(l Line) {
	h.send("line", l)
}

func (h *Hub) RemoveLine(id string) {
	h.send("remove_line", map[string]string{"id": id})
}

func (h *Hub) FitView(points []models.Coordinate) {
	h.send("fit", map[string]interface{}{"points": points})
}

func (h *Hub) Toast(message string) {
	h.send("toast", map[string]string{"message": message})
}

func (h *Hub) Display(u DisplayUpdate) {
	h.send("display", u)
}
