package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"SwingDesk/internal/domain/models"
	xlogger "SwingDesk/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const (
	writeWait      = 5 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 8
)

// BoardMessage is pushed to websocket clients.
type BoardMessage struct {
	Type  string       `json:"type"` // INITIAL on connect, UPDATE on refresh
	Board models.Board `json:"board"`
}

type wsClient struct {
	hub  *Hub
	conn *websocket.Conn
	send chan BoardMessage
}

// Hub fans new boards out to websocket clients. Slow clients are dropped
// rather than blocking the broadcast loop.
type Hub struct {
	logger     *xlogger.Logger
	upgrader   websocket.Upgrader
	register   chan *wsClient
	unregister chan *wsClient
	broadcast  chan models.Board
	clients    map[*wsClient]struct{}
	done       chan struct{}

	mu     sync.RWMutex
	latest *models.Board
}

func NewHub(logger *xlogger.Logger) *Hub {
	if logger == nil {
		logger = xlogger.Nop()
	}
	return &Hub{
		logger: logger.Component("ws_hub"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		register:   make(chan *wsClient),
		unregister: make(chan *wsClient),
		broadcast:  make(chan models.Board, 4),
		clients:    make(map[*wsClient]struct{}),
		done:       make(chan struct{}),
	}
}

func (h *Hub) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws", h.Serve)
}

// Run owns the client set until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				close(c.send)
				delete(h.clients, c)
			}
			return
		case c := <-h.register:
			h.clients[c] = struct{}{}
			if b := h.Latest(); b != nil {
				c.send <- BoardMessage{Type: "INITIAL", Board: *b}
			}
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
		case b := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- BoardMessage{Type: "UPDATE", Board: b}:
				default:
					delete(h.clients, c)
					close(c.send)
				}
			}
		}
	}
}

// Publish records b as the latest board and queues it for broadcast. It never blocks.
func (h *Hub) Publish(b models.Board) {
	h.mu.Lock()
	h.latest = &b
	h.mu.Unlock()
	select {
	case h.broadcast <- b:
	default:
		h.logger.Warn("broadcast queue full, dropping update")
	}
}

func (h *Hub) Latest() *models.Board {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.latest
}

// Serve upgrades the request and starts the client pumps.
func (h *Hub) Serve(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", xlogger.Error(err))
		return nil
	}
	client := &wsClient{hub: h, conn: conn, send: make(chan BoardMessage, sendBuffer)}
	select {
	case h.register <- client:
	case <-h.done:
		_ = conn.Close()
		return nil
	}

	go client.writePump()
	go client.readPump()
	return nil
}

// readPump only watches for close and pong frames; clients send nothing meaningful.
func (c *wsClient) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Debug("websocket closed", xlogger.Error(err))
			}
			return
		}
	}
}

func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
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
