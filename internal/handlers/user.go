package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"social-service/internal/middleware"
	"social-service/internal/models"
)

type userService interface {
	GetByUsername(ctx context.Context, username string) (models.User, error)
}

// UserHandler serves profile endpoints.
type UserHandler struct {
	users userService
}

func NewUserHandler(users userService) *UserHandler {
	return &UserHandler{users: users}
}

// Me returns the user resolved by the auth middleware.
func (h *UserHandler) Me(c *gin.Context) {
	user, ok := c.Get(middleware.UserKey)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing authorization"})
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) GetByUsername(c *gin.Context) {
	user, err := h.users.GetByUsername(c.Request.Context(), c.Param("username"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
