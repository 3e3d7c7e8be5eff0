// Package bridge is the bidirectional event channel between the
// orchestrator and real-time listeners (test runners, dashboards).
// Delivery is best-effort at-most-once to currently connected clients;
// there is no buffering.
package bridge

import (
	"encoding/json"
	"sync"

	"github.com/gofiber/contrib/websocket"
	"go.uber.org/zap"
)

// Message is the wire envelope for every event in either direction.
type Message struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Handler consumes the payload of one inbound event.
type Handler func(data json.RawMessage)

// Hub tracks connected listeners and fans events in and out.
type Hub struct {
	log *zap.SugaredLogger

	mu       sync.Mutex
	conns    map[*websocket.Conn]struct{}
	handlers map[string]Handler
}

// NewHub creates an empty hub.
func NewHub(log *zap.SugaredLogger) *Hub {
	return &Hub{
		log:      log,
		conns:    make(map[*websocket.Conn]struct{}),
		handlers: make(map[string]Handler),
	}
}

// Handle registers the handler for an inbound event name. Registration is
// expected at startup, before connections are served.
func (h *Hub) Handle(event string, handler Handler) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.handlers[event] = handler
}

// Emit broadcasts an outbound event to every connected listener. Listeners
// that fail to receive are dropped; the caller is never blocked on a slow
// consumer beyond the socket write itself.
func (h *Hub) Emit(event string, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		h.log.Errorw("failed to marshal event payload", "event", event, "error", err)
		return
	}

	message := Message{Event: event, Data: payload}

	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.conns {
		if err := conn.WriteJSON(message); err != nil {
			h.log.Warnw("dropping unreachable listener", "event", event, "error", err)
			delete(h.conns, conn)
			_ = conn.Close()
		}
	}
}

// Dispatch routes one inbound event to its registered handler. Events with
// no handler are ignored.
func (h *Hub) Dispatch(event string, data json.RawMessage) {
	h.mu.Lock()
	handler, exists := h.handlers[event]
	h.mu.Unlock()

	if !exists {
		h.log.Debugw("no handler for inbound event", "event", event)
		return
	}

	handler(data)
}

// Serve runs the read loop for one websocket connection, registering it for
// outbound events until the connection closes.
func (h *Hub) Serve(conn *websocket.Conn) {
	h.mu.Lock()
	h.conns[conn] = struct{}{}
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.conns, conn)
		h.mu.Unlock()

		_ = conn.Close()
	}()

	for {
		var message Message
		if err := conn.ReadJSON(&message); err != nil {
			return
		}

		h.Dispatch(message.Event, message.Data)
	}
}

// Listeners returns the number of currently connected listeners.
func (h *Hub) Listeners() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.conns)
}
