package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"social-service/internal/logger"
	"social-service/internal/models"
	"social-service/internal/observability"
	"social-service/internal/telemetry"
)

const writeTimeout = 10 * time.Second

type eventEmitter interface {
	Emit(ctx context.Context, eventType, userID string, payload any)
}

type client struct {
	conn *websocket.Conn
	info ConnInfo
	// gorilla connections allow one concurrent writer.
	writeMu sync.Mutex
}

func (c *client) write(payload []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

// Hub tracks live inbox connections per user. A user may hold several.
type Hub struct {
	users  map[string]map[*websocket.Conn]*client
	events eventEmitter
	mu     sync.RWMutex
}

// NewHub creates an empty hub. events may be nil.
func NewHub(events eventEmitter) *Hub {
	return &Hub{
		users:  make(map[string]map[*websocket.Conn]*client),
		events: events,
	}
}

// AddClient registers conn as one of userID's inbox connections.
func (h *Hub) AddClient(userID string, conn *websocket.Conn, info ConnInfo) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.users[userID]; !ok {
		h.users[userID] = make(map[*websocket.Conn]*client)
	}
	h.users[userID][conn] = &client{conn: conn, info: info}
}

// RemoveClient drops conn and forgets the user once no connection is left.
func (h *Hub) RemoveClient(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.users[userID]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.users, userID)
		}
	}
}

// Connections returns how many live connections userID holds.
func (h *Hub) Connections(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.users[userID])
}

// NotifyUser pushes event to every connection of userID. Broken connections
// are closed and dropped.
func (h *Hub) NotifyUser(userID string, event models.InboxEvent) {
	h.mu.RLock()
	clients := make([]*client, 0, len(h.users[userID]))
	for _, c := range h.users[userID] {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	if len(clients) == 0 {
		return
	}

	payload, err := json.Marshal(event)
	if err != nil {
		logger.Error("encode inbox event failed", zap.String("type", event.Type), zap.Error(err))
		return
	}
	for _, c := range clients {
		if err := c.write(payload); err != nil {
			logger.Warn("websocket write failed", zap.String("user_id", userID), zap.String("conn_id", c.info.ConnID), zap.Error(err))
			_ = c.conn.Close()
			h.RemoveClient(userID, c.conn)
			h.publishWSError(c.info, err)
		}
	}
}

func (h *Hub) publishWSError(info ConnInfo, err error) {
	observability.IncWSEvent(telemetry.EventWSError)
	if h.events == nil {
		return
	}
	ctx := telemetry.WithRequestID(context.Background(), info.RequestID)
	h.events.Emit(ctx, telemetry.EventWSError, info.UserID, info.payload(err.Error()))
}
