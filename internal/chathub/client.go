package chathub

import "israel4u/backend/internal/models"

// Client is the interface for one live realtime connection. It abstracts
// the underlying transport so the hub can manage connections uniformly
// and tests can drive the hub without sockets.
type Client interface {
	// GetID returns the unique identifier of this connection. A user may
	// hold several connections at once; each has its own id and its own
	// room memberships.
	GetID() string
	// GetUserID returns the user authenticated at handshake time.
	GetUserID() string

	// GetSendChannel returns the channel the hub writes outbound events
	// to. It is a send-only channel.
	GetSendChannel() chan<- models.ServerEvent

	// Run starts the client's read and write pumps.
	Run()
	// Close shuts down the client's connection and associated channels.
	Close()
}
