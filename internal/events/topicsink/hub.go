// Package topicsink implements the "topic" notification sink kind: an
// in-process pub/sub Hub fed by a github.com/gorilla/websocket server, so
// an operator can watch dispatched events live over a WebSocket
// connection. Each client has a buffered send channel, and a broadcast
// skips any client whose channel is full, so a slow reader never blocks
// the broadcaster.
package topicsink

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/objectvault/storagecore/internal/events"
)

// Message is one frame written to a connected client.
type Message struct {
	Type      string    `json:"type"`
	Data      []byte    `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

// Client is one connected WebSocket subscriber.
type Client struct {
	ID        string
	Bucket    string
	Conn      *websocket.Conn
	Send      chan []byte
	Connected time.Time
}

// Hub tracks connected clients and broadcasts messages to all of them, or
// to a single client by ID.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	logger  *zap.SugaredLogger
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[string]*Client)}
}

// SetLogger attaches a logger used for connection write failures.
func (h *Hub) SetLogger(logger *zap.SugaredLogger) { h.logger = logger }

// Register adds a client to the hub.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c.ID] = c
}

// Unregister removes a client from the hub.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, c.ID)
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ListClients returns a snapshot of connected clients.
func (h *Hub) ListClients() []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		out = append(out, c)
	}
	return out
}

// GetClient returns a client by ID.
func (h *Hub) GetClient(id string) (*Client, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.clients[id]
	return c, ok
}

// Broadcast pushes message to every connected client's Send channel,
// dropping it for any client whose channel is full rather than blocking
// the broadcaster on a slow reader.
func (h *Hub) Broadcast(message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		select {
		case c.Send <- message:
		default:
			if h.logger != nil {
				h.logger.Warnw("dropping message to slow websocket client", "clientId", c.ID)
			}
		}
	}
}

// BroadcastToBucket pushes message only to clients subscribed to bucket.
func (h *Hub) BroadcastToBucket(bucket string, message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		if c.Bucket != "" && c.Bucket != bucket {
			continue
		}
		select {
		case c.Send <- message:
		default:
		}
	}
}

// SendToClient pushes message to a single client by ID.
func (h *Hub) SendToClient(id string, message []byte) error {
	h.mu.RLock()
	c, ok := h.clients[id]
	h.mu.RUnlock()
	if !ok {
		return fmt.Errorf("client not found: %s", id)
	}
	select {
	case c.Send <- message:
		return nil
	default:
		return fmt.Errorf("client send buffer full: %s", id)
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ServeHTTP upgrades an incoming request to a WebSocket connection and
// registers it as a client scoped to the request's "bucket" query
// parameter (empty subscribes to every bucket's events).
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		if h.logger != nil {
			h.logger.Warnw("websocket upgrade failed", "error", err)
		}
		return
	}

	client := &Client{
		ID:        fmt.Sprintf("%s-%d", r.RemoteAddr, time.Now().UnixNano()),
		Bucket:    r.URL.Query().Get("bucket"),
		Conn:      conn,
		Send:      make(chan []byte, 64),
		Connected: time.Now(),
	}
	h.Register(client)
	go h.pump(client)
}

// pump writes queued messages to the client's connection until the
// connection closes or the send channel is closed.
func (h *Hub) pump(c *Client) {
	defer func() {
		h.Unregister(c)
		c.Conn.Close()
	}()
	for msg := range c.Send {
		if err := c.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

// Sink adapts a Hub into an events.Sink of kind "topic": target is the
// bucket name whose subscribers should receive the event.
type Sink struct {
	hub *Hub
}

// NewSink wraps hub as an events.Sink.
func NewSink(hub *Hub) *Sink { return &Sink{hub: hub} }

func (s *Sink) Kind() string { return "topic" }

// Send implements events.Sink by broadcasting evt, JSON-encoded, to every
// client subscribed to target (the bucket name).
func (s *Sink) Send(ctx context.Context, evt events.Event, target string) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	s.hub.BroadcastToBucket(target, data)
	return nil
}
