// Package gateway broadcasts game snapshots and events to overlay clients
// over WebSocket.
package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/cgqgames/cgq/go/internal/quiz/events"
)

// Config holds WebSocket connection settings.
type Config struct {
	WriteTimeout    time.Duration
	PingInterval    time.Duration
	ReadBufferSize  int
	WriteBufferSize int
	CheckOrigin     func(r *http.Request) bool
}

// DefaultConfig returns the default WebSocket configuration.
func DefaultConfig() Config {
	return Config{
		WriteTimeout:    10 * time.Second,
		PingInterval:    30 * time.Second,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		// Overlays run on localhost or the broadcaster's own tooling.
		CheckOrigin: func(r *http.Request) bool { return true },
	}
}

// Envelope is the wire format for every broadcast frame.
type Envelope struct {
	Type    string    `json:"type"`
	Payload any       `json:"payload"`
	SentAt  time.Time `json:"sent_at"`
}

// Hub fans broadcast frames out to all connected clients.
type Hub struct {
	cfg      Config
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*client]bool

	broadcastCh chan []byte
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// NewHub creates a hub; Run must be started for broadcasts to flow.
func NewHub(cfg Config) *Hub {
	return &Hub{
		cfg: cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  cfg.ReadBufferSize,
			WriteBufferSize: cfg.WriteBufferSize,
			CheckOrigin:     cfg.CheckOrigin,
		},
		clients:     make(map[*client]bool),
		broadcastCh: make(chan []byte, 256),
	}
}

// Run delivers queued frames until the context is cancelled.
func (h *Hub) Run(ctx context.Context) {
	log.Info().Msg("gateway hub started")
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			log.Info().Msg("gateway hub stopped")
			return
		case frame := <-h.broadcastCh:
			h.mu.RLock()
			for c := range h.clients {
				select {
				case c.send <- frame:
				default:
					// Slow client; drop the frame rather than block the hub.
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Broadcast queues one envelope for every connected client.
func (h *Hub) Broadcast(typ string, payload any) {
	frame, err := json.Marshal(Envelope{Type: typ, Payload: payload, SentAt: time.Now()})
	if err != nil {
		log.Error().Err(err).Str("type", typ).Msg("failed to marshal broadcast")
		return
	}
	select {
	case h.broadcastCh <- frame:
	default:
		log.Warn().Str("type", typ).Msg("broadcast queue full, frame dropped")
	}
}

// EventSink adapts the hub to the game event stream.
func (h *Hub) EventSink() events.Sink {
	return func(t events.Type, payload any) {
		h.Broadcast(string(t), payload)
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// HandleWS upgrades an HTTP request and registers the client.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}
	c := &client{conn: conn, send: make(chan []byte, 64)}
	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()
	log.Info().Str("remote", conn.RemoteAddr().String()).Msg("overlay client connected")

	go h.writePump(c)
	go h.readPump(c)
}

func (h *Hub) writePump(c *client) {
	ping := time.NewTicker(h.cfg.PingInterval)
	defer ping.Stop()

	for {
		select {
		case frame, ok := <-c.send:
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				h.drop(c)
				return
			}
		case <-ping.C:
			c.conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.drop(c)
				return
			}
		}
	}
}

// readPump discards client input; the gateway is broadcast-only. It exists
// to notice closed connections.
func (h *Hub) readPump(c *client) {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			h.drop(c)
			return
		}
	}
}

func (h *Hub) drop(c *client) {
	h.mu.Lock()
	if h.clients[c] {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
	c.conn.Close()
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
		c.conn.Close()
	}
}
