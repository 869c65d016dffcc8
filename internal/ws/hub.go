package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"tenderdesk/internal/lib/sl"
	"tenderdesk/wizard"
)

// Event types
const (
	EventView   = "view"
	EventClosed = "closed"
	EventError  = "error"
)

// ClientMessageHandler handles field events sent over a session socket.
type ClientMessageHandler interface {
	HandleSetField(ctx context.Context, sessionID, field string, value any) error
	HandleBlur(ctx context.Context, sessionID, field string) error
}

// Event represents a WebSocket event sent to wizard clients.
type Event struct {
	Type    string      `json:"type"`
	Session string      `json:"session"`
	Data    interface{} `json:"data,omitempty"`
}

// Hub keeps the WebSocket clients of every wizard session and fans views out
// to them.
type Hub struct {
	sessions   map[string]map[*Client]bool
	broadcast  chan *Event
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex
	handler    ClientMessageHandler
	log        *slog.Logger
}

func NewHub(log *slog.Logger) *Hub {
	return &Hub{
		sessions:   make(map[string]map[*Client]bool),
		broadcast:  make(chan *Event, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		log:        log.With(sl.Module("ws-hub")),
	}
}

// SetHandler sets the handler for incoming client messages.
func (h *Hub) SetHandler(handler ClientMessageHandler) {
	h.handler = handler
}

// Run starts the hub's event loop until ctx is done. Should be called in a
// goroutine.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for id, clients := range h.sessions {
				for client := range clients {
					close(client.send)
				}
				delete(h.sessions, id)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			if h.sessions[client.session] == nil {
				h.sessions[client.session] = make(map[*Client]bool)
			}
			h.sessions[client.session][client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			h.remove(client)
			h.mu.Unlock()

		case event := <-h.broadcast:
			data, err := json.Marshal(event)
			if err != nil {
				h.log.Error("marshal event", sl.Err(err))
				continue
			}
			h.mu.Lock()
			for client := range h.sessions[event.Session] {
				select {
				case client.send <- data:
				default:
					h.remove(client)
				}
			}
			if event.Type == EventClosed {
				for client := range h.sessions[event.Session] {
					h.remove(client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// remove drops a client; the caller holds mu.
func (h *Hub) remove(client *Client) {
	clients, ok := h.sessions[client.session]
	if !ok || !clients[client] {
		return
	}
	delete(clients, client)
	close(client.send)
	if len(clients) == 0 {
		delete(h.sessions, client.session)
	}
}

// Subscribers returns the number of clients watching a session.
func (h *Hub) Subscribers(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[sessionID])
}

func (h *Hub) enqueue(event *Event) {
	select {
	case h.broadcast <- event:
	default:
		h.log.Warn("broadcast queue full, event dropped",
			slog.String("type", event.Type),
			slog.String("session", event.Session),
		)
	}
}

// Publish sends a view event to the session's clients. It never blocks.
func (h *Hub) Publish(sessionID string, v wizard.View) {
	h.enqueue(&Event{Type: EventView, Session: sessionID, Data: v})
}

// Closed tells the session's clients that the session ended and disconnects
// them.
func (h *Hub) Closed(sessionID string) {
	h.enqueue(&Event{Type: EventClosed, Session: sessionID})
}

// clientEvent represents an incoming WebSocket message from a wizard client.
type clientEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// HandleClientMessage parses and dispatches an incoming message from a client.
// A rejected event is answered with an error event to that client only.
func (h *Hub) HandleClientMessage(ctx context.Context, client *Client, raw []byte) {
	if h.handler == nil {
		return
	}

	var event clientEvent
	if err := json.Unmarshal(raw, &event); err != nil {
		h.log.Warn("failed to parse client ws message", sl.Err(err))
		return
	}

	var data struct {
		Field string `json:"field"`
		Value any    `json:"value"`
	}
	if err := json.Unmarshal(event.Data, &data); err != nil || data.Field == "" {
		h.log.Warn("failed to parse field event", slog.String("type", event.Type))
		return
	}

	var err error
	switch event.Type {
	case "set_field":
		err = h.handler.HandleSetField(ctx, client.session, data.Field, data.Value)
	case "blur":
		err = h.handler.HandleBlur(ctx, client.session, data.Field)
	default:
		return
	}
	if err != nil {
		h.log.With(
			slog.String("session", client.session),
			slog.String("field", data.Field),
			sl.Err(err),
		).Debug("client event rejected")
		client.reply(&Event{Type: EventError, Session: client.session, Data: err.Error()})
	}
}
