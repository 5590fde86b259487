package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"social-service/internal/models"
	"social-service/internal/services"
)

type messageService interface {
	SendMessage(ctx context.Context, senderID string, in services.SendMessageInput) (models.Message, error)
	ListConversations(ctx context.Context, userID string) ([]models.ConversationSummary, error)
	ListThread(ctx context.Context, userID, counterpartID string) ([]models.Message, error)
	DeleteMessage(ctx context.Context, requesterID, messageID string) error
}

// MessageHandler manages direct message endpoints.
type MessageHandler struct {
	messages messageService
}

func NewMessageHandler(messages messageService) *MessageHandler {
	return &MessageHandler{messages: messages}
}

// ListConversations returns one entry per counterpart, most recent first.
func (h *MessageHandler) ListConversations(c *gin.Context) {
	conversations, err := h.messages.ListConversations(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversations": conversations})
}

// ListThread marks the thread read for the caller and returns it oldest first.
func (h *MessageHandler) ListThread(c *gin.Context) {
	thread, err := h.messages.ListThread(c.Request.Context(), currentUserID(c), c.Param("user_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": thread})
}

func (h *MessageHandler) SendMessage(c *gin.Context) {
	var req struct {
		ReceiverID string   `json:"receiver_id" binding:"required,notblank"`
		Content    string   `json:"content" binding:"required,notblank"`
		Images     []string `json:"images"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	images, err := decodeImages(req.Images)
	if err != nil {
		respondError(c, err)
		return
	}

	msg, err := h.messages.SendMessage(c.Request.Context(), currentUserID(c), services.SendMessageInput{
		ReceiverID: req.ReceiverID,
		Content:    req.Content,
		Images:     images,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

func (h *MessageHandler) DeleteMessage(c *gin.Context) {
	if err := h.messages.DeleteMessage(c.Request.Context(), currentUserID(c), c.Param("message_id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
