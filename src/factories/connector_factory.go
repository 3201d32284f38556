package factories

import (
	"context"
	"fmt"

	"orderbook-aggregator/src/brokers"
	"orderbook-aggregator/src/config"
	"orderbook-aggregator/src/connector"
	"orderbook-aggregator/src/interfaces"
	"orderbook-aggregator/src/logger"
	"orderbook-aggregator/src/transports"
)

// -----------------------------------------------------------------------------

// ConnectorFactory creates exchange connectors from configuration. Each
// session asks the factory for a fresh connector pair; connections are never
// shared across sessions.
type ConnectorFactory struct {
	Name   string
	Config *config.Config
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

// NewConnectorFactory creates a new ConnectorFactory instance
func NewConnectorFactory(config *config.Config, logger *logger.Logger) *ConnectorFactory {
	return &ConnectorFactory{
		Name:   "ConnectorFactory",
		Config: config,
		Logger: logger,
	}
}

// -----------------------------------------------------------------------------

// CreateConnector builds a broker and its WebSocket transport for one
// exchange, wired so that every inbound frame flows through the connector's
// decode-and-rank path.
func (f *ConnectorFactory) CreateConnector(exchange, symbol string, depth int) (*connector.Connector, error) {
	exchangeConfig := f.Config.GetExchangeByName(exchange)
	if exchangeConfig == nil {
		return nil, fmt.Errorf("exchange %s not found in config", exchange)
	}

	broker, err := f.createBroker(exchange)
	if err != nil {
		return nil, err
	}

	conn, err := connector.New(broker, f.Logger, symbol, depth)
	if err != nil {
		return nil, err
	}

	conn.Client = transports.NewWebSocketClient(exchangeConfig, f.Logger, exchange, conn.HandleFrame)

	return conn, nil
}

// -----------------------------------------------------------------------------

// Probe opens and immediately closes a connection to every configured
// exchange. The server runs it once at startup so a misconfigured or
// unreachable feed fails the process instead of every future request.
func (f *ConnectorFactory) Probe(ctx context.Context, symbol string, depth int) error {
	for _, exchangeConfig := range f.Config.Exchanges {
		conn, err := f.CreateConnector(exchangeConfig.Name, symbol, depth)
		if err != nil {
			return fmt.Errorf("probe %s: %w", exchangeConfig.Name, err)
		}
		if err := conn.Start(ctx); err != nil {
			return fmt.Errorf("probe %s: %w", exchangeConfig.Name, err)
		}
		if err := conn.Stop(); err != nil {
			f.Logger.Warning("%s : probe close for %s: %v", f.Name, exchangeConfig.Name, err)
		}
		f.Logger.Info("%s : probe of %s succeeded", f.Name, exchangeConfig.Name)
	}
	return nil
}

// -----------------------------------------------------------------------------

// createBroker resolves the exchange's codec through the dynamic registry.
func (f *ConnectorFactory) createBroker(exchange string) (interfaces.IBroker, error) {
	constructor, err := brokers.GetConstructor(exchange)
	if err != nil {
		return nil, err
	}

	newBroker, err := constructor(f.Config, f.Logger, exchange)
	if err != nil {
		return nil, fmt.Errorf("failed to create broker %s: %w", exchange, err)
	}

	return newBroker, nil
}
