package chathub

import (
	"encoding/json"
	"log"

	"israel4u/backend/internal/models"
)

// StartPubSubListener starts a goroutine that relays realtime events from
// Redis Pub/Sub into the hub's event loop. Every instance of the server
// subscribes, so a message published by any instance reaches the rooms of
// all of them.
func (m *ManagerService) StartPubSubListener() {
	pubsub := m.Storage.SubscribeEvents()
	if pubsub == nil {
		return
	}
	go func() {
		defer pubsub.Close()

		for msg := range pubsub.Channel() {
			var ev models.ServerEvent
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				log.Printf("Error unmarshalling pubsub event: %v", err)
				continue
			}
			m.PubSubCh <- ev
		}
	}()
}
