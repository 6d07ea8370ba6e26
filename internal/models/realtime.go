package models

// Realtime event names. Client events arrive over the websocket; server
// events are broadcast to conversation rooms.
const (
	EventJoinChatRoom    = "join_chat_room"
	EventLeaveChatRoom   = "leave_chat_room"
	EventNewMessage      = "new_message"
	EventMessageReceived = "message_received"
)

// ClientEvent is one inbound frame from a websocket client.
// SenderID and ConnectionID are resolved by the gateway from the
// authenticated connection, never trusted from the wire.
type ClientEvent struct {
	Event          string `json:"event"`
	ConversationID string `json:"conversationId"`
	ReceiverID     string `json:"receiverId,omitempty"`
	Text           string `json:"text,omitempty"`
	CorrelationID  string `json:"correlationId,omitempty"`

	SenderID     string `json:"-"`
	ConnectionID string `json:"-"`
}

// ServerEvent is one outbound frame. CorrelationID echoes the value the
// sending client supplied so it can reconcile an optimistic local render.
type ServerEvent struct {
	Event          string   `json:"event"`
	ConversationID string   `json:"conversationId"`
	Message        *Message `json:"message,omitempty"`
	CorrelationID  string   `json:"correlationId,omitempty"`
}
