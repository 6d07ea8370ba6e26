package chat

import (
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"israel4u/backend/internal/models"
	"israel4u/backend/internal/storage"

	"github.com/samber/lo"
)

// Service is the single authority over conversation and message state.
// Both the REST surface and the realtime gateway go through it, so
// validation and authorization can never diverge between the two paths.
type Service struct {
	Storage storage.Storage
}

func NewService(s storage.Storage) *Service {
	return &Service{Storage: s}
}

// FindOrCreateConversation returns the conversation between requester and
// target, creating it on first contact. Concurrent first contacts can
// create a duplicate channel; that race is accepted (a duplicate is
// harmless, messages reference their conversation explicitly).
func (s *Service) FindOrCreateConversation(requesterID, targetID string) (*models.ConversationView, error) {
	if requesterID == targetID {
		return nil, fmt.Errorf("%w: cannot create conversation with yourself", ErrInvalidOperation)
	}

	requester, err := s.Storage.UserByID(requesterID)
	if err != nil {
		return nil, err
	}
	if requester == nil {
		return nil, fmt.Errorf("%w: user %s", ErrNotFound, requesterID)
	}
	target, err := s.Storage.UserByID(targetID)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, fmt.Errorf("%w: user %s", ErrNotFound, targetID)
	}

	conv, err := s.Storage.ConversationByParticipants(requesterID, targetID)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		conv = models.NewConversation(requesterID, targetID)
		if err := s.Storage.CreateConversation(conv); err != nil {
			return nil, err
		}
		log.Printf("Conversation %s created between %s and %s", conv.ID, requesterID, targetID)
	}

	view := s.buildView(conv, map[string]models.UserSummary{
		requester.ID: requester.Summary(),
		target.ID:    target.Summary(),
	}, nil)
	return &view, nil
}

// ListConversations returns every conversation the user participates in,
// participants summarized and last message embedded, ordered most recent
// first. Conversations with no messages sort by creation time.
func (s *Service) ListConversations(userID string) ([]models.ConversationView, error) {
	convs, err := s.Storage.ConversationsForUser(userID)
	if err != nil {
		return nil, err
	}

	sort.Slice(convs, func(i, j int) bool {
		return convs[i].SortTime().After(convs[j].SortTime())
	})

	summaries, err := s.participantSummaries(convs)
	if err != nil {
		return nil, err
	}

	views := make([]models.ConversationView, 0, len(convs))
	for i := range convs {
		conv := &convs[i]

		var last *models.Message
		if conv.LastMessageID != nil {
			last, err = s.Storage.MessageByID(*conv.LastMessageID)
			if err != nil {
				return nil, err
			}
			if last != nil {
				s.enrich(last, summaries)
			}
		}
		views = append(views, s.buildView(conv, summaries, last))
	}
	return views, nil
}

// GetMessages returns the full ordered history of a conversation. The
// caller must be a participant.
func (s *Service) GetMessages(userID, conversationID string) ([]models.Message, error) {
	conv, err := s.authorizedConversation(userID, conversationID)
	if err != nil {
		return nil, err
	}

	messages, err := s.Storage.MessagesForConversation(conversationID)
	if err != nil {
		return nil, err
	}

	summaries, err := s.participantSummaries([]models.Conversation{*conv})
	if err != nil {
		return nil, err
	}
	for i := range messages {
		s.enrich(&messages[i], summaries)
	}
	return messages, nil
}

// SendMessage persists a message from userID to the other participant and
// advances the conversation's last-message pointer. The two writes are
// sequenced, not transactional: a crash in between leaves the pointer
// stale until the next send, never a partial message.
func (s *Service) SendMessage(userID, conversationID, content string) (*models.Message, error) {
	conv, err := s.authorizedConversation(userID, conversationID)
	if err != nil {
		return nil, err
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("%w: message content is empty", ErrInvalidOperation)
	}

	msg := &models.Message{
		ConversationID: conv.ID,
		SenderID:       userID,
		ReceiverID:     conv.OtherParticipant(userID),
		Content:        content,
	}
	if err := s.Storage.SaveMessage(msg); err != nil {
		return nil, err
	}

	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	if err := s.Storage.TouchConversation(conv.ID, msg.ID, msg.CreatedAt); err != nil {
		// The message is already persisted; the stale pointer self-heals
		// on the next send.
		log.Printf("WARNING: Failed to touch conversation %s after message %s: %v", conv.ID, msg.ID, err)
	}

	summaries, err := s.participantSummaries([]models.Conversation{*conv})
	if err != nil {
		return nil, err
	}
	s.enrich(msg, summaries)
	return msg, nil
}

// MarkRead flips every unread message addressed to userID in the
// conversation to read. Repeated calls are no-ops.
func (s *Service) MarkRead(userID, conversationID string) (int64, error) {
	if _, err := s.authorizedConversation(userID, conversationID); err != nil {
		return 0, err
	}
	return s.Storage.MarkMessagesRead(conversationID, userID)
}

// authorizedConversation loads the conversation and enforces participant
// membership, the guard shared by every operation.
func (s *Service) authorizedConversation(userID, conversationID string) (*models.Conversation, error) {
	conv, err := s.Storage.ConversationByID(conversationID)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, fmt.Errorf("%w: conversation %s", ErrNotFound, conversationID)
	}
	if !conv.HasParticipant(userID) {
		return nil, fmt.Errorf("%w: user %s in conversation %s", ErrUnauthorized, userID, conversationID)
	}
	return conv, nil
}

// participantSummaries loads the profile summary of every participant in
// the given conversations, one lookup per distinct user.
func (s *Service) participantSummaries(convs []models.Conversation) (map[string]models.UserSummary, error) {
	ids := lo.Uniq(lo.FlatMap(convs, func(c models.Conversation, _ int) []string {
		return []string{c.User1ID, c.User2ID}
	}))

	summaries := make(map[string]models.UserSummary, len(ids))
	for _, id := range ids {
		user, err := s.Storage.UserByID(id)
		if err != nil {
			return nil, err
		}
		if user == nil {
			// Participant rows outlive user deletion; show a placeholder.
			summaries[id] = models.UserSummary{ID: id}
			continue
		}
		summaries[id] = user.Summary()
	}
	return summaries, nil
}

func (s *Service) buildView(conv *models.Conversation, summaries map[string]models.UserSummary, last *models.Message) models.ConversationView {
	participants := lo.Map([]string{conv.User1ID, conv.User2ID}, func(id string, _ int) models.UserSummary {
		return summaries[id]
	})
	return models.ConversationView{
		ID:              conv.ID,
		Participants:    participants,
		LastMessage:     last,
		LastMessageTime: conv.LastMessageTime,
		CreatedAt:       conv.CreatedAt,
	}
}

func (s *Service) enrich(msg *models.Message, summaries map[string]models.UserSummary) {
	if sender, ok := summaries[msg.SenderID]; ok {
		msg.Sender = &sender
	}
	if receiver, ok := summaries[msg.ReceiverID]; ok {
		msg.Receiver = &receiver
	}
}
