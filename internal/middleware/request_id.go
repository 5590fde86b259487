package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"social-service/internal/observability"
	"social-service/internal/telemetry"
)

const RequestIDKey = "request_id"

// RequestID reuses the caller's X-Request-ID or mints one, and exposes it on
// the gin context, the request context and the response.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := observability.RequestIDFromRequest(c.Request)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(RequestIDKey, id)
		c.Request = c.Request.WithContext(telemetry.WithRequestID(c.Request.Context(), id))
		c.Header("X-Request-ID", id)
		c.Next()
	}
}
