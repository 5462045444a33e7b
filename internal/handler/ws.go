package handler

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"storyboard-server/internal/session"
)

const (
	// write deadline per message
	writeWait = 10 * time.Second
	// pong must arrive within this window
	pongWait = 60 * time.Second
	// ping interval, must be below pongWait
	pingPeriod = (pongWait * 9) / 10
	// clients only listen; anything bigger is garbage
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// wsClient is one subscriber to a session's event stream.
type wsClient struct {
	sessionID uuid.UUID
	conn      *websocket.Conn
	send      chan []byte
}

// Hub fans session events out to WebSocket subscribers. A session can
// have any number of viewers; a slow one gets dropped rather than
// blocking the session.
type Hub struct {
	mu      sync.RWMutex
	clients map[uuid.UUID]map[*wsClient]struct{}
	logger  *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[uuid.UUID]map[*wsClient]struct{}),
		logger:  logger.Named("Hub"),
	}
}

// Publish implements session.Notifier.
func (h *Hub) Publish(sessionID uuid.UUID, event session.Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("Failed to marshal event", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients[sessionID] {
		select {
		case client.send <- payload:
		default:
			// queue full, the write pump is stuck; drop the message
			h.logger.Warn("Dropping event for slow subscriber",
				zap.String("session_id", sessionID.String()))
		}
	}
}

func (h *Hub) register(client *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs, ok := h.clients[client.sessionID]
	if !ok {
		subs = make(map[*wsClient]struct{})
		h.clients[client.sessionID] = subs
	}
	subs[client] = struct{}{}
}

func (h *Hub) unregister(client *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs, ok := h.clients[client.sessionID]
	if !ok {
		return
	}
	if _, ok := subs[client]; !ok {
		return
	}
	delete(subs, client)
	close(client.send)
	if len(subs) == 0 {
		delete(h.clients, client.sessionID)
	}
}

// SubscriberCount reports the number of viewers on a session.
func (h *Hub) SubscriberCount(sessionID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[sessionID])
}

// serveWS upgrades the request and streams session events.
func (h *StoryboardHandler) serveWS(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}
	s, err := h.sessions.Get(id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade connection", zap.Error(err))
		return
	}

	client := &wsClient{
		sessionID: id,
		conn:      conn,
		send:      make(chan []byte, 256),
	}
	h.hub.register(client)

	h.logger.Info("WebSocket subscriber connected", zap.String("session_id", id.String()))

	// greet with the current state so the client does not have to poll once
	if snapshot, err := json.Marshal(s.Snapshot()); err == nil {
		client.send <- snapshot
	}

	go client.writePump(h.hub, h.logger)
	go client.readPump(h.hub, h.logger)
}

// readPump drains (and ignores) client messages, keeping the pong
// deadline alive until the peer goes away.
func (c *wsClient) readPump(hub *Hub, logger *zap.Logger) {
	defer func() {
		hub.unregister(c)
		_ = c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("WebSocket read error", zap.Error(err))
			}
			return
		}
	}
}

// writePump pushes queued events and pings to the peer.
func (c *wsClient) writePump(hub *Hub, logger *zap.Logger) {
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
				logger.Warn("WebSocket write error", zap.Error(err))
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
