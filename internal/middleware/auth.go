package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"social-service/internal/apperr"
	"social-service/internal/logger"
	"social-service/internal/models"
)

// Context keys set by AuthMiddleware.
const (
	UserIDKey = "userID"
	UserKey   = "user"
)

type SessionVerifier interface {
	Verify(raw string) (models.Session, error)
}

type UserResolver interface {
	Resolve(ctx context.Context, session models.Session) (models.User, error)
}

// AuthMiddleware verifies the bearer token and resolves it to an internal
// user, provisioning the user on first sight.
func AuthMiddleware(verifier SessionVerifier, resolver UserResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization"})
			return
		}
		if !authenticate(c, verifier, resolver, token) {
			return
		}
		c.Next()
	}
}

// OptionalAuth authenticates when credentials are present and lets anonymous
// requests through. Bad credentials are still rejected.
func OptionalAuth(verifier SessionVerifier, resolver UserResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.Next()
			return
		}
		if !authenticate(c, verifier, resolver, token) {
			return
		}
		c.Next()
	}
}

func authenticate(c *gin.Context, verifier SessionVerifier, resolver UserResolver, token string) bool {
	session, err := verifier.Verify(token)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return false
	}

	user, err := resolver.Resolve(c.Request.Context(), session)
	if err != nil {
		status := apperr.HTTPStatus(err)
		if status >= http.StatusInternalServerError {
			logger.Error("resolve user failed",
				zap.String("request_id", c.GetString(RequestIDKey)),
				zap.String("subject", session.SubjectID),
				zap.Error(err))
		}
		c.AbortWithStatusJSON(status, gin.H{"error": apperr.PublicMessage(err)})
		return false
	}

	c.Set(UserIDKey, user.ID)
	c.Set(UserKey, user)
	return true
}

// bearerToken reads "Authorization: Bearer <token>". Websocket clients cannot
// set headers, so the token query parameter is accepted too.
func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		if token := strings.TrimSpace(c.Query("token")); token != "" {
			return token, true
		}
		return "", false
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}
