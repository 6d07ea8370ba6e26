package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Message is one directed chat message. Messages are immutable after
// creation except for IsRead, which flips unread -> read in bulk when the
// receiver views the conversation.
//
// ConversationID is an explicit reference so history queries never have to
// infer membership from the participant pair.
type Message struct {
	ID             string `gorm:"primaryKey" json:"id"`
	ConversationID string `gorm:"not null;index:idx_conversation_created" json:"conversationId"`
	SenderID       string `gorm:"not null;index" json:"senderId"`
	ReceiverID     string `gorm:"not null;index" json:"receiverId"`
	Content        string `gorm:"type:text;not null" json:"content"`
	IsRead         bool   `gorm:"not null;default:false" json:"isRead"`

	CreatedAt time.Time `gorm:"index:idx_conversation_created" json:"createdAt"`

	// Sender and Receiver carry profile summaries on enriched responses.
	// They are populated by the chat service, never persisted.
	Sender   *UserSummary `gorm:"-" json:"sender,omitempty"`
	Receiver *UserSummary `gorm:"-" json:"receiver,omitempty"`
}

// BeforeCreate generates a UUID for the message if the ID is not set yet.
func (m *Message) BeforeCreate(tx *gorm.DB) (err error) {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return
}
