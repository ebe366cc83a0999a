package live

import (
	"encoding/json"
	"log/slog"
	"sync"

	"callrelay/internal/registry"
)

// Event names carried on the live channel.
const (
	// EventVapi carries every dispatched webhook event, verbatim.
	EventVapi = "vapi-event"
	// EventCallData carries the derived CallResult after an end-of-call report.
	EventCallData = "call-data-received"
	// EventConnected acknowledges a new viewer connection.
	EventConnected = "connected"

	// Inbound events from viewers driving the active-call registry.
	eventCallStarted = "call-started"
	eventCallEnded   = "call-ended"
)

// Frame is the wire envelope in both directions.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Hub fans live events out to connected viewers and feeds viewer call-start/
// call-end notifications into the active-call registry. Broadcast is
// fire-and-forget: no acknowledgement is tracked and viewers that cannot keep
// up are dropped.
type Hub struct {
	store registry.Store
	log   *slog.Logger

	mu      sync.Mutex
	clients map[*client]struct{}
}

func NewHub(store registry.Store, log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	return &Hub{
		store:   store,
		log:     log,
		clients: map[*client]struct{}{},
	}
}

// Emit broadcasts one event to every connected viewer.
func (h *Hub) Emit(event string, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		h.log.Error("live: marshaling event", "event", event, "err", err)
		return
	}
	frame, err := json.Marshal(Frame{Event: event, Data: payload})
	if err != nil {
		h.log.Error("live: marshaling frame", "event", event, "err", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- frame:
		default:
			// Slow viewer; drop it rather than block the webhook path.
			delete(h.clients, c)
			c.close()
		}
	}
}

// ClientCount reports the number of connected viewers.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		c.close()
	}
}
