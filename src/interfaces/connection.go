package interfaces

import (
	"context"
)

// -----------------------------------------------------------------------------

// IConnectionClient is one live socket to an exchange. Inbound frames are
// delivered through the callback passed at construction time; a socket-level
// failure is delivered exactly once on Failure(). The client never reconnects
// on its own; reconnection is a session-level decision.
type IConnectionClient interface {
	// Connect establishes the connection and starts the read loop.
	Connect(ctx context.Context) error

	// Disconnect closes the connection.
	Disconnect() error

	// IsRunning returns the connection status.
	IsRunning() bool

	// GetName returns the client name.
	GetName() string

	// GetType returns the transport type.
	GetType() string

	// SendMessage writes one outbound message.
	SendMessage([]byte) error

	// Failure yields the terminal error, if any. A deliberate Disconnect
	// produces no failure.
	Failure() <-chan error
}
