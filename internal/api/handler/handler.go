package handler

import (
	"israel4u/backend/internal/chathub"
	"israel4u/backend/internal/models"
)

// ChatService is the slice of the chat core the REST surface needs.
type ChatService interface {
	FindOrCreateConversation(requesterID, targetID string) (*models.ConversationView, error)
	ListConversations(userID string) ([]models.ConversationView, error)
	GetMessages(userID, conversationID string) ([]models.Message, error)
	SendMessage(userID, conversationID, content string) (*models.Message, error)
	MarkRead(userID, conversationID string) (int64, error)
}

// Verifier resolves bearer credentials to user ids.
type Verifier interface {
	GenerateToken(userID string) (string, error)
	Verify(token string) (string, error)
}

// UserStore is the slice of the storage layer the HTTP surface needs.
type UserStore interface {
	SaveUser(user *models.User) error
	UserByID(userID string) (*models.User, error)
	UserByEmail(email string) (*models.User, error)
	OnlineUsers() ([]string, error)
}

// Handler holds the dependencies shared by all HTTP endpoints.
type Handler struct {
	Hub   *chathub.ManagerService
	Chat  ChatService
	Auth  Verifier
	Users UserStore
}

func NewHandler(hub *chathub.ManagerService, chat ChatService, auth Verifier, users UserStore) *Handler {
	return &Handler{Hub: hub, Chat: chat, Auth: auth, Users: users}
}
