package interfaces

import (
	"orderbook-aggregator/src/config"
	"orderbook-aggregator/src/logger"
	"orderbook-aggregator/src/models"
)

// -----------------------------------------------------------------------------

// IBrokerConstructor defines the function signature for creating a new IBroker
// instance; each broker registers its constructor under its exchange name.
type IBrokerConstructor func(config *config.Config, logger *logger.Logger, name string) (IBroker, error)

// -----------------------------------------------------------------------------

// IBroker is the per-exchange codec: it knows the exchange's endpoint, how to
// phrase the subscription handshake, and how to decode the exchange's native
// frames into the canonical book update.
type IBroker interface {
	// GetName returns the exchange name
	GetName() string

	// GetEndpoint returns the WebSocket endpoint URL
	GetEndpoint() string

	// BuildSubscription creates the subscription message for one symbol at
	// the requested per-side depth
	BuildSubscription(symbol string, depth int) ([]byte, error)

	// ParseFrame decodes one inbound frame. It returns (nil, nil) for
	// control frames that carry no book data (subscription acks,
	// heartbeats), a *models.DecodeError for malformed frames, and a
	// protocol ConnectionError when the exchange rejected the subscription.
	ParseFrame(message []byte) (*models.MBookUpdate, error)
}
