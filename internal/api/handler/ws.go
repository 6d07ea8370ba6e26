package handler

import (
	"log"
	"net/http"

	"israel4u/backend/internal/chathub"
	"israel4u/backend/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origin checking is delegated to the CORS layer.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWebSocket authenticates the handshake and upgrades the connection.
// A connection that fails authentication is rejected before any hub
// resources are allocated.
func (h *Handler) ServeWebSocket(c *gin.Context) {
	// Browsers cannot set headers on websocket requests, so the credential
	// may arrive as a query parameter instead of a Bearer header.
	token := c.Query("token")
	if token == "" {
		token = bearerToken(c)
	}
	if token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Authorization token missing"})
		return
	}

	userID, err := h.Auth.Verify(token)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Invalid token or expired"})
		return
	}

	user, err := h.Users.UserByID(userID)
	if err != nil || user == nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "User not found"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written its own error response.
		log.Printf("Failed to upgrade connection for user %s: %v", userID, err)
		c.Abort()
		return
	}

	client := &chathub.WebSocketClient{
		ID:     uuid.New().String(),
		UserID: userID,
		Conn:   conn,
		Hub:    h.Hub,
		Send:   make(chan models.ServerEvent, 256),
	}

	h.Hub.RegisterCh <- client
	client.Run()
}
