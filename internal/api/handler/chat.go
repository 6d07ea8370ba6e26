package handler

import (
	"errors"
	"net/http"

	"israel4u/backend/internal/chat"

	"github.com/gin-gonic/gin"
)

type sendMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

// GetConversations returns the caller's conversations, most recent first.
func (h *Handler) GetConversations(c *gin.Context) {
	views, err := h.Chat.ListConversations(currentUserID(c))
	if err != nil {
		chatError(c, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

// CreateConversation finds or creates the conversation with :userId.
func (h *Handler) CreateConversation(c *gin.Context) {
	view, err := h.Chat.FindOrCreateConversation(currentUserID(c), c.Param("userId"))
	if err != nil {
		chatError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// GetMessages returns the ordered message history of :conversationId.
func (h *Handler) GetMessages(c *gin.Context) {
	messages, err := h.Chat.GetMessages(currentUserID(c), c.Param("conversationId"))
	if err != nil {
		chatError(c, err)
		return
	}
	c.JSON(http.StatusOK, messages)
}

// SendMessage persists a message in :conversationId and returns it enriched.
func (h *Handler) SendMessage(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "content is required"})
		return
	}

	msg, err := h.Chat.SendMessage(currentUserID(c), c.Param("conversationId"), req.Content)
	if err != nil {
		chatError(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

// MarkAsRead flips all inbound unread messages of :conversationId to read.
func (h *Handler) MarkAsRead(c *gin.Context) {
	if _, err := h.Chat.MarkRead(currentUserID(c), c.Param("conversationId")); err != nil {
		chatError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Messages marked as read"})
}

// chatError maps the chat service error taxonomy to HTTP status codes.
func chatError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, chat.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": err.Error()})
	case errors.Is(err, chat.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"message": err.Error()})
	case errors.Is(err, chat.ErrInvalidOperation):
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal Server Error"})
	}
}
