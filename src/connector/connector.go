package connector

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"orderbook-aggregator/src/book"
	"orderbook-aggregator/src/interfaces"
	"orderbook-aggregator/src/logger"
	"orderbook-aggregator/src/models"
)

// -----------------------------------------------------------------------------
// Exchange Connector
// -----------------------------------------------------------------------------

// Connector drives one exchange feed for one session: it connects the
// transport, sends the broker's subscription handshake before the first read,
// and turns every decoded frame into a ranked book update.
//
// Updates are delivered on a capacity-one, latest-wins channel: if the
// session is mid-merge when the next frame lands, the stale update is
// replaced rather than queued. Market data favors freshness over
// completeness, and the read loop must never block on a slow consumer.
type Connector struct {
	Name   string
	Symbol string
	Depth  int
	Logger *logger.Logger
	Broker interfaces.IBroker
	Client interfaces.IConnectionClient

	updates  chan *models.MBookUpdate
	failure  chan error
	done     chan struct{}
	stopOnce sync.Once
}

// -----------------------------------------------------------------------------

// New assembles a connector around an exchange broker. The transport client
// is attached separately (see factories.CreateConnector) because its frame
// callback needs the connector to exist first.
func New(broker interfaces.IBroker, log *logger.Logger, symbol string, depth int) (*Connector, error) {
	if err := models.ValidateDepth(depth); err != nil {
		return nil, err
	}

	return &Connector{
		Name:    broker.GetName(),
		Symbol:  symbol,
		Depth:   depth,
		Logger:  log,
		Broker:  broker,
		updates: make(chan *models.MBookUpdate, 1),
		failure: make(chan error, 1),
		done:    make(chan struct{}),
	}, nil
}

// -----------------------------------------------------------------------------

// Start opens the socket and sends the subscription message before any frame
// is awaited. It does not block on inbound data.
func (c *Connector) Start(ctx context.Context) error {
	if c.Client == nil {
		return fmt.Errorf("%s: connector has no transport client", c.Name)
	}

	if err := c.Client.Connect(ctx); err != nil {
		return &models.ConnectionError{Exchange: c.Name, Cause: err}
	}

	subscription, err := c.Broker.BuildSubscription(c.Symbol, c.Depth)
	if err != nil {
		_ = c.Client.Disconnect()
		return fmt.Errorf("failed to build subscription for %s: %w", c.Name, err)
	}

	if err := c.Client.SendMessage(subscription); err != nil {
		_ = c.Client.Disconnect()
		return &models.ConnectionError{Exchange: c.Name, Cause: err}
	}

	c.Logger.Info("%s : subscribed to %s at depth %d", c.Name, c.Symbol, c.Depth)

	go c.watchTransport()

	return nil
}

// -----------------------------------------------------------------------------

// Stop closes the socket. Safe to call more than once.
func (c *Connector) Stop() error {
	c.stopOnce.Do(func() { close(c.done) })
	if c.Client == nil {
		return nil
	}
	return c.Client.Disconnect()
}

// -----------------------------------------------------------------------------

// Updates yields ranked book updates, newest-wins.
func (c *Connector) Updates() <-chan *models.MBookUpdate {
	return c.updates
}

// -----------------------------------------------------------------------------

// Failure yields the terminal error of this feed, at most once.
func (c *Connector) Failure() <-chan error {
	return c.failure
}

// -----------------------------------------------------------------------------

// HandleFrame is the transport's frame callback. Decode errors are contained
// here: the frame is dropped, the feed keeps running. Exchange-side
// subscription rejections are terminal.
func (c *Connector) HandleFrame(message []byte) {
	update, err := c.Broker.ParseFrame(message)
	if err != nil {
		var decodeErr *models.DecodeError
		if errors.As(err, &decodeErr) {
			c.Logger.Warning("%s : %v", c.Name, decodeErr)
			return
		}
		c.fail(err)
		return
	}
	if update == nil {
		// Control frame (ack, heartbeat).
		return
	}

	update.Bids = book.Rank(update.Bids, models.SideBid, c.Depth)
	update.Asks = book.Rank(update.Asks, models.SideAsk, c.Depth)

	for {
		select {
		case c.updates <- update:
			return
		default:
		}
		select {
		case <-c.updates:
		default:
		}
	}
}

// -----------------------------------------------------------------------------

// watchTransport forwards the transport's terminal error into the
// connector's failure channel.
func (c *Connector) watchTransport() {
	select {
	case <-c.done:
	case err := <-c.Client.Failure():
		var connErr *models.ConnectionError
		if !errors.As(err, &connErr) {
			err = &models.ConnectionError{Exchange: c.Name, Cause: err}
		}
		c.fail(err)
	}
}

// -----------------------------------------------------------------------------

func (c *Connector) fail(err error) {
	select {
	case c.failure <- err:
	default:
	}
}
