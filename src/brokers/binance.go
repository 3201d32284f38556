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

// Binance implements interfaces.IBroker for the Binance partial book depth
// stream. One subscription yields a full top-N snapshot per update frame.
type Binance struct {
	Name       string
	Logger     *logger.Logger
	Config     *models.MExchangeConfig
	Serializer interfaces.ISerializer
}

// -----------------------------------------------------------------------------
// CONSTRUCTOR AND REGISTRATION
// -----------------------------------------------------------------------------

func init() {
	if err := Register("binance", NewBinance); err != nil {
		fmt.Printf("Error registering Binance broker: %v\n", err)
	}
}

// -----------------------------------------------------------------------------

// NewBinance creates a new Binance broker instance.
// Matches the interfaces.IBrokerConstructor signature.
func NewBinance(config *config.Config, logger *logger.Logger, name string) (interfaces.IBroker, error) {
	exchangeConfig := config.GetExchangeByName(name)
	if exchangeConfig == nil {
		return nil, fmt.Errorf("exchange config '%s' not found", name)
	}
	if !strings.HasPrefix(exchangeConfig.Endpoint, "wss://") {
		return nil, fmt.Errorf("binance endpoint must use wss:// protocol")
	}

	return &Binance{
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
func (b *Binance) GetName() string {
	return b.Name
}

// -----------------------------------------------------------------------------

// GetEndpoint returns the WebSocket endpoint URL
func (b *Binance) GetEndpoint() string {
	return b.Config.Endpoint
}

// -----------------------------------------------------------------------------

// BuildSubscription creates the SUBSCRIBE message for the partial book depth
// stream, e.g. "btcusdt@depth10@1000ms". The cadence suffix is configurable;
// Binance supports 100ms and 1000ms update speeds.
func (b *Binance) BuildSubscription(symbol string, depth int) ([]byte, error) {
	if err := models.ValidateDepth(depth); err != nil {
		return nil, err
	}

	stream := fmt.Sprintf("%s@depth%d", strings.ToLower(symbol), depth)
	if b.Config.Cadence != "" {
		stream = fmt.Sprintf("%s@%s", stream, b.Config.Cadence)
	}

	subMsg, err := b.Serializer.Marshal(map[string]interface{}{
		"method": "SUBSCRIBE",
		"params": []string{stream},
		"id":     1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to serialize subscription message: %w", err)
	}
	return subMsg, nil
}

// -----------------------------------------------------------------------------

// ParseFrame decodes one inbound Binance frame into a book update.
func (b *Binance) ParseFrame(message []byte) (*models.MBookUpdate, error) {
	var data map[string]interface{}
	if err := json.Unmarshal(message, &data); err != nil {
		return nil, &models.DecodeError{Exchange: b.Name, Reason: fmt.Sprintf("invalid JSON: %v", err)}
	}

	// Subscription rejections arrive as {"error":{"code":..,"msg":..},"id":..}.
	if rawErr, ok := data["error"]; ok {
		return nil, models.NewUpstreamProtocolError(b.Name,
			fmt.Errorf("subscription rejected: %v", rawErr))
	}

	// Subscription confirmations ({"result":null,"id":1}) carry no book data.
	if _, ok := data["result"]; ok {
		return nil, nil
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
