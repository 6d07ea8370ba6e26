package storage

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"israel4u/backend/internal/models"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// EventsChannel is the Redis Pub/Sub channel carrying realtime chat events
// between server instances.
const EventsChannel = "chat:events"

// onlineUsersKey is the Redis set of users with at least one live socket.
const onlineUsersKey = "online_users"

type Storage interface {
	SaveUser(user *models.User) error
	UserByID(userID string) (*models.User, error)
	UserByEmail(email string) (*models.User, error)

	CreateConversation(conv *models.Conversation) error
	ConversationByID(conversationID string) (*models.Conversation, error)
	ConversationByParticipants(userA, userB string) (*models.Conversation, error)
	ConversationsForUser(userID string) ([]models.Conversation, error)
	TouchConversation(conversationID, messageID string, at time.Time) error

	SaveMessage(msg *models.Message) error
	MessagesForConversation(conversationID string) ([]models.Message, error)
	MessageByID(messageID string) (*models.Message, error)
	MarkMessagesRead(conversationID, receiverID string) (int64, error)

	PublishEvent(ev models.ServerEvent) error
	SubscribeEvents() *redis.PubSub

	SetUserOnline(userID string) error
	SetUserOffline(userID string) error
	OnlineUsers() ([]string, error)
}

type Service struct {
	DB    *gorm.DB
	Redis *redis.Client
	Ctx   context.Context
}

// NewStorageService Constructor
func NewStorageService(db *gorm.DB, rdb *redis.Client) *Service {
	return &Service{
		DB:    db,
		Redis: rdb,
		Ctx:   context.Background(),
	}
}

// SaveUser persists a user in PostgreSQL.
func (s *Service) SaveUser(user *models.User) error {
	return s.DB.Save(user).Error
}

// UserByID returns the user with the given id, or nil if no such user exists.
func (s *Service) UserByID(userID string) (*models.User, error) {
	var user models.User
	err := s.DB.First(&user, "id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UserByEmail returns the user with the given email, or nil if absent.
func (s *Service) UserByEmail(email string) (*models.User, error) {
	var user models.User
	err := s.DB.First(&user, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateConversation persists a new conversation record.
func (s *Service) CreateConversation(conv *models.Conversation) error {
	if err := s.DB.Create(conv).Error; err != nil {
		log.Printf("ERROR: Failed to create conversation for %s/%s: %v", conv.User1ID, conv.User2ID, err)
		return err
	}
	return nil
}

// ConversationByID returns the conversation, or nil if it does not exist.
func (s *Service) ConversationByID(conversationID string) (*models.Conversation, error) {
	var conv models.Conversation
	err := s.DB.First(&conv, "id = ?", conversationID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

// ConversationByParticipants looks up the conversation for an unordered
// pair of users. The pair is normalized on write, so one ordered query
// suffices.
func (s *Service) ConversationByParticipants(userA, userB string) (*models.Conversation, error) {
	if userB < userA {
		userA, userB = userB, userA
	}
	var conv models.Conversation
	err := s.DB.Where("user1_id = ? AND user2_id = ?", userA, userB).First(&conv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

// ConversationsForUser returns every conversation the user participates in,
// in no particular order. Ordering policy lives in the chat service.
func (s *Service) ConversationsForUser(userID string) ([]models.Conversation, error) {
	var convs []models.Conversation
	err := s.DB.Where("user1_id = ? OR user2_id = ?", userID, userID).Find(&convs).Error
	if err != nil {
		log.Printf("ERROR: Failed to list conversations for user %s: %v", userID, err)
		return nil, err
	}
	return convs, nil
}

// TouchConversation updates the last-message pointer and timestamp.
// This is the second of the two sequenced writes on a send; a crash in
// between leaves the pointer stale until the next send.
func (s *Service) TouchConversation(conversationID, messageID string, at time.Time) error {
	return s.DB.Model(&models.Conversation{}).
		Where("id = ?", conversationID).
		Updates(map[string]interface{}{
			"last_message_id":   messageID,
			"last_message_time": at,
		}).Error
}

// SaveMessage persists a message in PostgreSQL. The message ID and
// creation timestamp are populated by GORM on return.
func (s *Service) SaveMessage(msg *models.Message) error {
	if err := s.DB.Create(msg).Error; err != nil {
		log.Printf("ERROR: Failed to save message for conversation %s: %v", msg.ConversationID, err)
		return err
	}
	return nil
}

// MessagesForConversation returns the full history of a conversation,
// ordered by creation time ascending.
func (s *Service) MessagesForConversation(conversationID string) ([]models.Message, error) {
	var messages []models.Message
	err := s.DB.Where("conversation_id = ?", conversationID).
		Order("created_at asc").
		Find(&messages).Error
	if err != nil {
		log.Printf("ERROR: Failed to get messages for conversation %s: %v", conversationID, err)
		return nil, err
	}
	return messages, nil
}

// MessageByID returns the message, or nil if it does not exist.
func (s *Service) MessageByID(messageID string) (*models.Message, error) {
	var msg models.Message
	err := s.DB.First(&msg, "id = ?", messageID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// MarkMessagesRead flips every unread inbound message of the conversation
// to read in one bulk update and reports how many rows changed. Calling it
// again is a no-op.
func (s *Service) MarkMessagesRead(conversationID, receiverID string) (int64, error) {
	result := s.DB.Model(&models.Message{}).
		Where("conversation_id = ? AND receiver_id = ? AND is_read = ?", conversationID, receiverID, false).
		Update("is_read", true)
	if result.Error != nil {
		log.Printf("ERROR: Failed to mark messages read for conversation %s: %v", conversationID, result.Error)
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// PublishEvent publishes a realtime event to Redis Pub/Sub.
func (s *Service) PublishEvent(ev models.ServerEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return s.Redis.Publish(s.Ctx, EventsChannel, payload).Err()
}

// SubscribeEvents subscribes to the realtime event channel.
func (s *Service) SubscribeEvents() *redis.PubSub {
	return s.Redis.Subscribe(s.Ctx, EventsChannel)
}

// SetUserOnline adds the user to the online presence set.
func (s *Service) SetUserOnline(userID string) error {
	return s.Redis.SAdd(s.Ctx, onlineUsersKey, userID).Err()
}

// SetUserOffline removes the user from the online presence set.
func (s *Service) SetUserOffline(userID string) error {
	return s.Redis.SRem(s.Ctx, onlineUsersKey, userID).Err()
}

// OnlineUsers returns the ids of all users with a live connection.
func (s *Service) OnlineUsers() ([]string, error) {
	return s.Redis.SMembers(s.Ctx, onlineUsersKey).Result()
}
