package brokers

import (
	"encoding/json"
	"fmt"
	"strings"

	"orderbook-aggregator/src/config"
	"orderbook-aggregator/src/interfaces"
	"orderbook-aggregator/src/logger"
	"orderbook-aggregator/src/models"
	"orderbook-aggregator/src/serializers"
)

// -----------------------------------------------------------------------------
// STRUCT DEFINITION
// -----------------------------------------------------------------------------

// Bitstamp implements interfaces.IBroker for the Bitstamp live detail order
// book channel. Every frame carries the full current book; Bitstamp does not
// support a server-side depth limit, so frames are trimmed after decoding.
type Bitstamp struct {
	Name       string
	Logger     *logger.Logger
	Config     *models.MExchangeConfig
	Serializer interfaces.ISerializer
}

// -----------------------------------------------------------------------------
// CONSTRUCTOR AND REGISTRATION
// -----------------------------------------------------------------------------

func init() {
	if err := Register("bitstamp", NewBitstamp); err != nil {
		fmt.Printf("Error registering Bitstamp broker: %v\n", err)
	}
}

// -----------------------------------------------------------------------------

// NewBitstamp creates a new Bitstamp broker instance.
// Matches the interfaces.IBrokerConstructor signature.
func NewBitstamp(config *config.Config, logger *logger.Logger, name string) (interfaces.IBroker, error) {
	exchangeConfig := config.GetExchangeByName(name)
	if exchangeConfig == nil {
		return nil, fmt.Errorf("exchange config '%s' not found", name)
	}
	if !strings.HasPrefix(exchangeConfig.Endpoint, "wss://") {
		return nil, fmt.Errorf("bitstamp endpoint must use wss:// protocol")
	}

	return &Bitstamp{
		Name:       name,
		Logger:     logger,
		Config:     exchangeConfig,
		Serializer: serializers.NewJSONSerializer(),
	}, nil
}

// -----------------------------------------------------------------------------
// IBroker IMPLEMENTATION
// -----------------------------------------------------------------------------

// GetName returns the exchange name
func (b *Bitstamp) GetName() string {
	return b.Name
}

// -----------------------------------------------------------------------------

// GetEndpoint returns the WebSocket endpoint URL
func (b *Bitstamp) GetEndpoint() string {
	return b.Config.Endpoint
}

// -----------------------------------------------------------------------------

// BuildSubscription creates the bts:subscribe message for the detail order
// book channel, e.g. "detail_order_book_btcusd".
func (b *Bitstamp) BuildSubscription(symbol string, depth int) ([]byte, error) {
	if err := models.ValidateDepth(depth); err != nil {
		return nil, err
	}

	subMsg, err := b.Serializer.Marshal(map[string]interface{}{
		"event": "bts:subscribe",
		"data": map[string]string{
			"channel": fmt.Sprintf("detail_order_book_%s", strings.ToLower(symbol)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to serialize subscription message: %w", err)
	}
	return subMsg, nil
}

// -----------------------------------------------------------------------------

// ParseFrame decodes one inbound Bitstamp frame into a book update. Bitstamp
// wraps every payload in an envelope with an "event" discriminator, and the
// book itself sits under the "data" key.
func (b *Bitstamp) ParseFrame(message []byte) (*models.MBookUpdate, error) {
	var frame map[string]interface{}
	if err := json.Unmarshal(message, &frame); err != nil {
		return nil, &models.DecodeError{Exchange: b.Name, Reason: fmt.Sprintf("invalid JSON: %v", err)}
	}

	event, _ := frame["event"].(string)
	switch event {
	case "bts:subscription_succeeded":
		// Handshake ack, no book data.
		return nil, nil
	case "bts:error":
		return nil, models.NewUpstreamProtocolError(b.Name,
			fmt.Errorf("subscription rejected: %v", frame["data"]))
	case "bts:request_reconnect":
		// Bitstamp asks clients to reconnect before maintenance; treated as
		// a terminal failure so the session-level retry re-establishes the
		// socket.
		return nil, &models.ConnectionError{Exchange: b.Name,
			Cause: fmt.Errorf("exchange requested reconnect")}
	case "data":
		// Fall through to the book payload below.
	default:
		// Heartbeats and unknown control events are ignored.
		return nil, nil
	}

	data, ok := frame["data"].(map[string]interface{})
	if !ok {
		return nil, &models.DecodeError{Exchange: b.Name, Reason: "missing data object"}
	}

	rawBids, bidsOK := data["bids"].([]interface{})
	rawAsks, asksOK := data["asks"].([]interface{})
	if !bidsOK || !asksOK {
		return nil, &models.DecodeError{Exchange: b.Name, Reason: "missing bids/asks arrays"}
	}

	bids, err := parseLevels(b.Name, rawBids)
	if err != nil {
		return nil, &models.DecodeError{Exchange: b.Name, Reason: fmt.Sprintf("bids: %v", err)}
	}
	asks, err := parseLevels(b.Name, rawAsks)
	if err != nil {
		return nil, &models.DecodeError{Exchange: b.Name, Reason: fmt.Sprintf("asks: %v", err)}
	}

	return &models.MBookUpdate{Exchange: b.Name, Bids: bids, Asks: asks}, nil
}
