package chathub

import (
	"log"

	"israel4u/backend/internal/models"
	"israel4u/backend/internal/storage"
)

// MessageSender is the slice of the chat service the gateway needs. The
// realtime path delegates to the same implementation as the REST path, so
// validation and authorization can never diverge.
type MessageSender interface {
	SendMessage(userID, conversationID, content string) (*models.Message, error)
}

// ManagerService owns all live connection state: the connection registry,
// the per-conversation rooms, and the reverse index used to release room
// memberships on disconnect. A single Run goroutine mutates that state;
// every other goroutine talks to it through channels.
type ManagerService struct {
	Clients map[string]Client            // connection id -> client
	Rooms   map[string]map[string]Client // conversation id -> connection id -> client

	clientRooms map[string]map[string]struct{} // connection id -> joined conversation ids

	RegisterCh   chan Client
	UnregisterCh chan Client
	EventCh      chan models.ClientEvent
	PubSubCh     chan models.ServerEvent

	queryCh chan func()

	Storage storage.Storage
	Chat    MessageSender
}

// NewManagerService wires a hub over the given storage and chat service.
func NewManagerService(s storage.Storage, chat MessageSender) *ManagerService {
	return &ManagerService{
		Clients:      make(map[string]Client),
		Rooms:        make(map[string]map[string]Client),
		clientRooms:  make(map[string]map[string]struct{}),
		RegisterCh:   make(chan Client),
		UnregisterCh: make(chan Client),
		EventCh:      make(chan models.ClientEvent),
		PubSubCh:     make(chan models.ServerEvent),
		queryCh:      make(chan func()),
		Storage:      s,
		Chat:         chat,
	}
}

// Run is the hub's event loop. It must be the only goroutine touching
// Clients, Rooms, and clientRooms.
func (m *ManagerService) Run() {
	m.StartPubSubListener()

	for {
		select {
		case client := <-m.RegisterCh:
			m.register(client)
		case client := <-m.UnregisterCh:
			m.unregister(client)
		case ev := <-m.EventCh:
			m.handleEvent(ev)
		case ev := <-m.PubSubCh:
			m.broadcast(ev)
		case query := <-m.queryCh:
			query()
		}
	}
}

// Connected reports whether a connection id is currently registered. The
// lookup runs on the hub goroutine.
func (m *ManagerService) Connected(connectionID string) bool {
	reply := make(chan bool, 1)
	m.queryCh <- func() {
		_, ok := m.Clients[connectionID]
		reply <- ok
	}
	return <-reply
}

// RoomMembers reports the connection ids joined to a conversation's room.
// The lookup runs on the hub goroutine.
func (m *ManagerService) RoomMembers(conversationID string) []string {
	reply := make(chan []string, 1)
	m.queryCh <- func() {
		ids := make([]string, 0, len(m.Rooms[conversationID]))
		for id := range m.Rooms[conversationID] {
			ids = append(ids, id)
		}
		reply <- ids
	}
	return <-reply
}

func (m *ManagerService) register(client Client) {
	m.Clients[client.GetID()] = client
	m.clientRooms[client.GetID()] = make(map[string]struct{})

	if err := m.Storage.SetUserOnline(client.GetUserID()); err != nil {
		log.Printf("WARNING: Failed to mark user %s online: %v", client.GetUserID(), err)
	}
	log.Printf("Connection %s registered for user %s", client.GetID(), client.GetUserID())
}

func (m *ManagerService) unregister(client Client) {
	id := client.GetID()
	if _, ok := m.Clients[id]; !ok {
		return
	}
	delete(m.Clients, id)

	for conversationID := range m.clientRooms[id] {
		m.leaveRoom(conversationID, id)
	}
	delete(m.clientRooms, id)

	// Only drop presence once the user's last connection is gone.
	userID := client.GetUserID()
	if !m.userConnected(userID) {
		if err := m.Storage.SetUserOffline(userID); err != nil {
			log.Printf("WARNING: Failed to mark user %s offline: %v", userID, err)
		}
	}

	client.Close()
	log.Printf("Connection %s unregistered for user %s", id, userID)
}

func (m *ManagerService) userConnected(userID string) bool {
	for _, c := range m.Clients {
		if c.GetUserID() == userID {
			return true
		}
	}
	return false
}

// handleEvent dispatches one inbound client event. Failures on this path
// are logged and dropped, never surfaced: a misbehaving or unauthorized
// client cannot distinguish "rejected" from "did not happen".
//
// Join and new_message hit storage from the loop goroutine, so a slow
// query delays every connection. TODO: run the storage work in a
// per-event goroutine that posts its result back through queryCh.
func (m *ManagerService) handleEvent(ev models.ClientEvent) {
	switch ev.Event {
	case models.EventJoinChatRoom:
		m.handleJoin(ev)
	case models.EventLeaveChatRoom:
		m.leaveRoom(ev.ConversationID, ev.ConnectionID)
	case models.EventNewMessage:
		m.handleNewMessage(ev)
	default:
		log.Printf("Unknown realtime event %q from connection %s", ev.Event, ev.ConnectionID)
	}
}

func (m *ManagerService) handleJoin(ev models.ClientEvent) {
	client, ok := m.Clients[ev.ConnectionID]
	if !ok {
		return
	}

	conv, err := m.Storage.ConversationByID(ev.ConversationID)
	if err != nil {
		log.Printf("ERROR: Failed to load conversation %s for join: %v", ev.ConversationID, err)
		return
	}
	if conv == nil {
		log.Printf("Join ignored: conversation %s not found (user %s)", ev.ConversationID, ev.SenderID)
		return
	}
	if !conv.HasParticipant(ev.SenderID) {
		// Ignore without acknowledgement so non-participants cannot probe
		// for conversation existence.
		log.Printf("Join ignored: user %s is not a participant of %s", ev.SenderID, ev.ConversationID)
		return
	}

	room := m.Rooms[ev.ConversationID]
	if room == nil {
		room = make(map[string]Client)
		m.Rooms[ev.ConversationID] = room
	}
	room[ev.ConnectionID] = client
	m.clientRooms[ev.ConnectionID][ev.ConversationID] = struct{}{}
	log.Printf("User %s joined room %s (connection %s)", ev.SenderID, ev.ConversationID, ev.ConnectionID)
}

// leaveRoom removes the connection from a room. Leaving needs no
// authorization check; it is always safe.
func (m *ManagerService) leaveRoom(conversationID, connectionID string) {
	room := m.Rooms[conversationID]
	if room == nil {
		return
	}
	delete(room, connectionID)
	if len(room) == 0 {
		delete(m.Rooms, conversationID)
	}
	if memberships, ok := m.clientRooms[connectionID]; ok {
		delete(memberships, conversationID)
	}
}

func (m *ManagerService) handleNewMessage(ev models.ClientEvent) {
	sender, err := m.Storage.UserByID(ev.SenderID)
	if err != nil || sender == nil {
		log.Printf("Message dropped: sender %s not found (err=%v)", ev.SenderID, err)
		return
	}
	receiver, err := m.Storage.UserByID(ev.ReceiverID)
	if err != nil || receiver == nil {
		log.Printf("Message dropped: receiver %s not found (err=%v)", ev.ReceiverID, err)
		return
	}

	// The chat service repeats the conversation and participant checks;
	// it is the same implementation the REST path runs.
	msg, err := m.Chat.SendMessage(ev.SenderID, ev.ConversationID, ev.Text)
	if err != nil {
		log.Printf("Message dropped: send from %s to conversation %s failed: %v", ev.SenderID, ev.ConversationID, err)
		return
	}

	out := models.ServerEvent{
		Event:          models.EventMessageReceived,
		ConversationID: ev.ConversationID,
		Message:        msg,
		CorrelationID:  ev.CorrelationID,
	}
	if err := m.Storage.PublishEvent(out); err != nil {
		log.Printf("ERROR: Failed to publish message %s: %v", msg.ID, err)
	}
}

// broadcast fans a server event out to every connection joined to the
// conversation's room, the sender's own connection included.
func (m *ManagerService) broadcast(ev models.ServerEvent) {
	room := m.Rooms[ev.ConversationID]
	for _, client := range room {
		select {
		case client.GetSendChannel() <- ev:
		default:
			// Slow consumer: drop the connection rather than block the loop.
			log.Printf("Connection %s send buffer full, unregistering", client.GetID())
			m.unregister(client)
		}
	}
}
