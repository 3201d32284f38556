package transports

import (
	"context"
	"fmt"
	"sync"
	"time"

	"orderbook-aggregator/src/logger"
	"orderbook-aggregator/src/models"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

// -----------------------------------------------------------------------------

// WebSocketClient implements interfaces.IConnectionClient using Gorilla
// WebSocket. It owns exactly one socket for its lifetime: a read failure is
// terminal and reported once on Failure(). The session layer decides whether
// to build a replacement client.
type WebSocketClient struct {
	conn      *websocket.Conn
	name      string
	config    *models.MExchangeConfig
	logger    *logger.Logger
	isRunning bool
	mu        sync.RWMutex
	writeMu   sync.Mutex
	failure   chan error
	done      chan struct{}
	onFrame   func([]byte)
	limiter   *rate.Limiter
}

// -----------------------------------------------------------------------------

// NewWebSocketClient creates a new WebSocket client. onFrame is invoked
// inline on the read goroutine for every inbound text frame, so decode and
// ranking work happens synchronously between reads.
func NewWebSocketClient(config *models.MExchangeConfig, logger *logger.Logger, name string, onFrame func([]byte)) *WebSocketClient {
	var limiter *rate.Limiter
	if config.Connection.MaxFrameRate > 0 {
		limiter = rate.NewLimiter(rate.Limit(config.Connection.MaxFrameRate), 1)
	}

	return &WebSocketClient{
		name:    name,
		config:  config,
		logger:  logger,
		failure: make(chan error, 1),
		done:    make(chan struct{}),
		onFrame: onFrame,
		limiter: limiter,
	}
}

// -----------------------------------------------------------------------------

// Connect establishes the WebSocket connection and starts the read loop.
func (w *WebSocketClient) Connect(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.isRunning {
		return fmt.Errorf("%s: already connected", w.name)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: w.config.Connection.HandshakeTimeout,
	}

	conn, _, err := dialer.DialContext(ctx, w.config.Endpoint, nil)
	if err != nil {
		w.logger.Error("%s : failed to connect to %s: %v", w.name, w.config.Endpoint, err)
		return fmt.Errorf("failed to connect to %s: %w", w.config.Endpoint, err)
	}

	w.conn = conn
	w.isRunning = true
	w.logger.Info("%s : WebSocket connected to %s", w.name, w.config.Endpoint)

	go w.readLoop(ctx)

	return nil
}

// -----------------------------------------------------------------------------

// Disconnect closes the connection. It never produces a Failure event.
func (w *WebSocketClient) Disconnect() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.isRunning {
		return nil
	}

	w.isRunning = false
	close(w.done)

	err := w.conn.Close()
	if err != nil {
		return fmt.Errorf("failed to close connection: %s: %w", w.config.Endpoint, err)
	}

	w.logger.Info("%s : WebSocket disconnected from %s", w.name, w.config.Endpoint)
	return nil
}

// -----------------------------------------------------------------------------

// GetName returns the client name
func (w *WebSocketClient) GetName() string {
	return w.name
}

// -----------------------------------------------------------------------------

// GetType returns the transport type
func (w *WebSocketClient) GetType() string {
	return "websocket"
}

// -----------------------------------------------------------------------------

// IsRunning returns the connection status
func (w *WebSocketClient) IsRunning() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.isRunning
}

// -----------------------------------------------------------------------------

// Failure yields the terminal read error, if one occurred.
func (w *WebSocketClient) Failure() <-chan error {
	return w.failure
}

// -----------------------------------------------------------------------------

// SendMessage sends a text message to the WebSocket.
func (w *WebSocketClient) SendMessage(data []byte) error {
	w.mu.RLock()
	running := w.isRunning
	w.mu.RUnlock()
	if !running {
		return fmt.Errorf("%s: connection is not open", w.name)
	}

	w.writeMu.Lock()
	defer w.writeMu.Unlock()

	if err := w.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

// readLoop pulls frames off the socket until a read error occurs. A feed
// that stays silent longer than the configured idle window trips the read
// deadline and counts as failed, so a wedged upstream never hangs a session.
func (w *WebSocketClient) readLoop(ctx context.Context) {
	for {
		if w.limiter != nil {
			if err := w.limiter.Wait(ctx); err != nil {
				return
			}
		}

		if idle := w.config.Connection.IdleTimeout; idle > 0 {
			_ = w.conn.SetReadDeadline(time.Now().Add(idle))
		}

		messageType, message, err := w.conn.ReadMessage()
		if err != nil {
			// A deliberate Disconnect also unblocks the read; only report
			// failures the session did not ask for.
			select {
			case <-w.done:
			case <-ctx.Done():
			default:
				w.fail(fmt.Errorf("read message error: %w", err))
			}
			return
		}

		if messageType == websocket.TextMessage {
			w.onFrame(message)
		}
	}
}

// -----------------------------------------------------------------------------

// fail reports the terminal error exactly once.
func (w *WebSocketClient) fail(err error) {
	w.logger.Error("%s : websocket error: %v", w.name, err)
	select {
	case w.failure <- err:
	default:
	}
}
