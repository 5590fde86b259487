package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"social-service/internal/logger"
	"social-service/internal/observability"
)

// Event types published by the service. The routing key is "social." + type.
const (
	EventMessageSent    = "message.sent"
	EventMessageRead    = "message.read"
	EventMessageDeleted = "message.deleted"
	EventPostCreated    = "post.created"
	EventPostDeleted    = "post.deleted"
	EventPostLiked      = "post.liked"
	EventPostUnliked    = "post.unliked"
	EventCommentCreated = "comment.created"
	EventCommentDeleted = "comment.deleted"
	EventMentionCreated = "mention.created"
	EventUserCreated    = "user.created"
	EventWSConnect      = "ws.connect"
	EventWSDisconnect   = "ws.disconnect"
	EventWSError        = "ws.error"
)

const routingPrefix = "social."

type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any, headers map[string]string) error
	Close() error
}

// Emitter wraps domain payloads in an Envelope and publishes them.
// A nil Emitter is valid and drops everything.
type Emitter struct {
	publisher   Publisher
	service     string
	environment string
	now         func() time.Time
}

type Envelope struct {
	SchemaVersion int    `json:"schema_version"`
	EventType     string `json:"event_type"`
	OccurredAt    string `json:"occurred_at"`
	Service       string `json:"service"`
	Environment   string `json:"environment"`
	RequestID     string `json:"request_id,omitempty"`
	UserID        string `json:"user_id,omitempty"`
	Payload       any    `json:"payload"`
}

func NewEmitter(publisher Publisher, service, environment string) *Emitter {
	return &Emitter{
		publisher:   publisher,
		service:     service,
		environment: environment,
		now:         time.Now,
	}
}

// Emit publishes eventType on behalf of userID. Publish failures are logged and
// never returned: events are a side channel of a request that already succeeded.
func (e *Emitter) Emit(ctx context.Context, eventType, userID string, payload any) {
	if e == nil || e.publisher == nil {
		return
	}

	requestID := RequestIDFromContext(ctx)
	envelope := Envelope{
		SchemaVersion: 1,
		EventType:     eventType,
		OccurredAt:    e.now().UTC().Format(time.RFC3339Nano),
		Service:       e.service,
		Environment:   e.environment,
		RequestID:     requestID,
		UserID:        userID,
		Payload:       payload,
	}

	traceID := ""
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		traceID = sc.TraceID().String()
	}

	headers := observability.BuildHeaders(requestID, traceID)
	if err := e.publisher.Publish(ctx, routingPrefix+eventType, envelope, headers); err != nil {
		logger.Warn("event publish failed",
			zap.String("event_type", eventType),
			zap.String("request_id", requestID),
			zap.Error(err))
	}
}

type requestIDKey struct{}

// WithRequestID stores id on ctx for later log lines and events.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
