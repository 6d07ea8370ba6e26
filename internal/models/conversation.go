package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Conversation represents a pairwise messaging channel between two users.
// The participant pair is immutable after creation and stored normalized:
// User1ID is always the lexicographically smaller id, so pair lookups are
// deterministic regardless of who initiated the conversation.
type Conversation struct {
	ID string `gorm:"primaryKey" json:"id"`

	User1ID string `gorm:"not null;index:idx_participants" json:"-"`
	User2ID string `gorm:"not null;index:idx_participants" json:"-"`

	// LastMessageID and LastMessageTime track the most recent message.
	// Both are nil until the first message is sent.
	LastMessageID   *string    `json:"-"`
	LastMessageTime *time.Time `json:"lastMessageTime,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"-"`
}

// ConversationView is the REST shape of a conversation: participants
// summarized and the last message embedded.
type ConversationView struct {
	ID              string        `json:"id"`
	Participants    []UserSummary `json:"participants"`
	LastMessage     *Message      `json:"lastMessage,omitempty"`
	LastMessageTime *time.Time    `json:"lastMessageTime,omitempty"`
	CreatedAt       time.Time     `json:"createdAt"`
}

// NewConversation builds a conversation for the given pair, normalizing
// participant order.
func NewConversation(userA, userB string) *Conversation {
	if userB < userA {
		userA, userB = userB, userA
	}
	return &Conversation{User1ID: userA, User2ID: userB}
}

// BeforeCreate generates a UUID for the conversation if the ID is not set yet.
func (c *Conversation) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return
}

// HasParticipant reports whether the given user belongs to the conversation.
func (c *Conversation) HasParticipant(userID string) bool {
	return userID != "" && (c.User1ID == userID || c.User2ID == userID)
}

// OtherParticipant returns the counterpart of the given participant.
// It returns an empty string when userID is not a participant.
func (c *Conversation) OtherParticipant(userID string) string {
	switch userID {
	case c.User1ID:
		return c.User2ID
	case c.User2ID:
		return c.User1ID
	}
	return ""
}

// SortTime is the ordering key for conversation lists: the time of the
// last message, falling back to creation time for empty conversations.
func (c *Conversation) SortTime() time.Time {
	if c.LastMessageTime != nil {
		return *c.LastMessageTime
	}
	return c.CreatedAt
}
