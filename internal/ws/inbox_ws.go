package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"social-service/internal/logger"
	"social-service/internal/middleware"
	"social-service/internal/observability"
	"social-service/internal/telemetry"
)

const maxInboundMessage = 4096

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// InboxHandler upgrades authenticated requests into inbox connections.
type InboxHandler struct {
	hub    *Hub
	events eventEmitter
}

func NewInboxHandler(hub *Hub, events eventEmitter) *InboxHandler {
	return &InboxHandler{hub: hub, events: events}
}

// Handle expects AuthMiddleware to have resolved the user already.
func (h *InboxHandler) Handle(c *gin.Context) {
	userID := c.GetString(middleware.UserIDKey)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing authorization"})
		return
	}

	ctx, span := otel.Tracer("social-service/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn("websocket upgrade failed", zap.String("user_id", userID), zap.Error(err))
		return
	}
	conn.SetReadLimit(maxInboundMessage)

	requestID := c.GetString(middleware.RequestIDKey)
	if requestID == "" {
		requestID = observability.RequestIDFromRequest(c.Request)
	}
	info := ConnInfo{
		ConnID:      uuid.NewString(),
		UserID:      userID,
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   requestID,
		TraceID:     span.SpanContext().TraceID().String(),
		ConnectedAt: time.Now(),
	}
	h.hub.AddClient(userID, conn, info)

	// The request context ends with this handler; the connection outlives it.
	connCtx := telemetry.WithRequestID(context.WithoutCancel(ctx), requestID)
	observability.IncWSActive()
	h.lifecycle(connCtx, telemetry.EventWSConnect, info, "")

	go h.readLoop(connCtx, conn, info)
}

// readLoop drains client frames until the connection closes. Inbound frames
// carry no meaning; the inbox is push only.
func (h *InboxHandler) readLoop(ctx context.Context, conn *websocket.Conn, info ConnInfo) {
	var closeReason string
	defer func() {
		h.hub.RemoveClient(info.UserID, conn)
		observability.DecWSActive()
		h.lifecycle(ctx, telemetry.EventWSDisconnect, info, closeReason)
		_ = conn.Close()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			closeReason = err.Error()
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.lifecycle(ctx, telemetry.EventWSError, info, closeReason)
			}
			return
		}
	}
}

func (h *InboxHandler) lifecycle(ctx context.Context, event string, info ConnInfo, reason string) {
	observability.IncWSEvent(event)
	if h.events != nil {
		h.events.Emit(ctx, event, info.UserID, info.payload(reason))
	}
}
