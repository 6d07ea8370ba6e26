package chat

import "errors"

// Error taxonomy shared by the REST and realtime paths. The REST surface
// maps these to status codes; the gateway logs and drops.
var (
	// ErrNotFound indicates a missing conversation or user.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized indicates the caller is not a participant of the
	// conversation it is acting on.
	ErrUnauthorized = errors.New("not a participant")
	// ErrInvalidOperation indicates a structurally invalid request, such
	// as a self-conversation or an empty message body.
	ErrInvalidOperation = errors.New("invalid operation")
)
