// Package hub fans realtime events out to connected websocket consoles.
package hub

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/atinyakov/alphabase/internal/models"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
	sendBuffer = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// envelope is an event addressed to one user, or to everyone when user is
// empty.
type envelope struct {
	user  string
	event models.Event
}

// Hub tracks websocket clients and delivers events to them.
type Hub struct {
	clients    map[*client]bool
	publish    chan envelope
	register   chan *client
	unregister chan *client
	done       chan struct{}
	stopOnce   sync.Once
	mu         sync.RWMutex
	log        *zap.Logger
}

type client struct {
	id   string
	user string
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// New creates a Hub. Call Run in its own goroutine before serving clients.
func New(log *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[*client]bool),
		publish:    make(chan envelope, sendBuffer),
		register:   make(chan *client),
		unregister: make(chan *client),
		done:       make(chan struct{}),
		log:        log,
	}
}

// Run is the hub's event loop. It returns after Stop and closes every
// client's send channel on the way out.
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			h.mu.Lock()
			for c := range h.clients {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			n := len(h.clients)
			h.mu.Unlock()
			h.log.Debug("websocket client connected", zap.String("client", c.id), zap.String("user", c.user), zap.Int("clients", n))

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			n := len(h.clients)
			h.mu.Unlock()
			h.log.Debug("websocket client disconnected", zap.String("client", c.id), zap.Int("clients", n))

		case env := <-h.publish:
			h.deliver(env)
		}
	}
}

func (h *Hub) deliver(env envelope) {
	data, err := json.Marshal(env.event)
	if err != nil {
		h.log.Warn("failed to marshal event", zap.Error(err))
		return
	}

	h.mu.RLock()
	var slow []*client
	for c := range h.clients {
		if env.user != "" && c.user != env.user {
			continue
		}
		select {
		case c.send <- data:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	if len(slow) > 0 {
		h.mu.Lock()
		for _, c := range slow {
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
		}
		h.mu.Unlock()
		h.log.Warn("dropped slow websocket clients", zap.Int("count", len(slow)))
	}
}

// Stop ends Run. It is safe to call more than once.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

// Broadcast queues e for every connected client.
func (h *Hub) Broadcast(e models.Event) {
	h.enqueue(envelope{event: e})
}

// SendTo queues e for the clients signed in as user.
func (h *Hub) SendTo(user string, e models.Event) {
	if user == "" {
		return
	}
	h.enqueue(envelope{user: user, event: e})
}

func (h *Hub) enqueue(env envelope) {
	if env.event.Time.IsZero() {
		env.event.Time = time.Now()
	}
	select {
	case h.publish <- env:
	default:
		h.log.Warn("websocket publish queue full, dropping event", zap.String("action", env.event.Action))
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeWS upgrades the request and registers the connection for user.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, user string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	c := &client{
		id:   uuid.NewString(),
		user: user,
		hub:  h,
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}

	select {
	case h.register <- c:
	case <-h.done:
		_ = conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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

// readPump only watches for the connection closing; consoles do not send
// messages.
func (c *client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
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
