package interfaces

import "orderbook-aggregator/src/models"

// -----------------------------------------------------------------------------

// IPublisher defines the interface for fanning merged snapshots out to a
// message bus, alongside the gRPC stream.
type IPublisher interface {
	// OnSnapshot publishes one merged book snapshot for a symbol.
	OnSnapshot(symbol string, snapshot *models.MBookSnapshot)

	// Connect establishes connection to the message broker
	Connect() error

	// Disconnect closes the connection to the message broker
	Disconnect() error

	// IsConnected returns the current connection status
	IsConnected() bool
}
