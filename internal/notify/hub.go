// Package notify pushes processed-order notifications to connected
// browser sessions over a persistent websocket channel. The hub carries
// a single server-to-client event and performs no business logic.
//
// Delivery is at-most-once: a client disconnected while an event is
// dispatched does not see it replayed on reconnect.
package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// eventOrderProcessed is the only event the hub emits.
	eventOrderProcessed = "onOrderProcessed"

	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// sendBuffer bounds per-client queued events. A client that cannot
	// drain it in time is dropped rather than stalling dispatch.
	sendBuffer = 16
)

type event struct {
	Type    string `json:"type"`
	OrderID string `json:"orderId"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans processed-order events out to every connected session.
// Each client is mutated only by its own pumps and the dispatch loop.
type Hub struct {
	upgrader websocket.Upgrader

	register   chan *client
	unregister chan *client
	broadcast  chan event

	// done is closed when Run exits, releasing sessions that would
	// otherwise block on register/unregister during shutdown.
	done chan struct{}
}

// NewHub builds a hub accepting handshakes from the given origins.
// An empty list allows any origin (local development).
func NewHub(allowedOrigins []string) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan event, 64),
		done:       make(chan struct{}),
	}
}

// Run owns the client set. It returns when ctx is cancelled, closing
// every connected session.
func (h *Hub) Run(ctx context.Context) {
	clients := make(map[*client]struct{})
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			for c := range clients {
				close(c.send)
			}
			return
		case c := <-h.register:
			clients[c] = struct{}{}
		case c := <-h.unregister:
			if _, ok := clients[c]; ok {
				delete(clients, c)
				close(c.send)
			}
		case ev := <-h.broadcast:
			payload, err := json.Marshal(ev)
			if err != nil {
				slog.Error("notify: marshal event", "error", err)
				continue
			}
			for c := range clients {
				select {
				case c.send <- payload:
				default:
					// Slow consumer: drop the session instead of
					// blocking every other client.
					delete(clients, c)
					close(c.send)
				}
			}
		}
	}
}

// OrderProcessed implements ports.Notifier.
func (h *Hub) OrderProcessed(orderID string) {
	select {
	case h.broadcast <- event{Type: eventOrderProcessed, OrderID: orderID}:
	default:
		slog.Warn("notify: broadcast queue full, dropping event", "order_id", orderID)
	}
}

// ServeHTTP upgrades the request to a websocket session and starts its
// pumps. Authentication happens in the router before this is reached.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.WarnContext(r.Context(), "notify: websocket upgrade failed", "error", err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	select {
	case h.register <- c:
	case <-h.done:
		// Hub already stopped; refuse the session.
		_ = conn.Close()
		return
	}

	go c.writePump()
	go c.readPump(h)
}

// writePump serialises all writes to the connection, including pings.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump discards inbound frames; the channel is server-push only.
// It exists to notice closes and keep the pong deadline fresh.
func (c *client) readPump(h *Hub) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func originChecker(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			// Non-browser client; header auth already ran.
			return true
		}
		_, ok := set[origin]
		return ok
	}
}
