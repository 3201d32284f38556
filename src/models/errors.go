package models

import (
	"errors"
	"fmt"
)

// -----------------------------------------------------------------------------
// Error Taxonomy
// -----------------------------------------------------------------------------

// ValidDepths are the only per-side depths a request may ask for.
var ValidDepths = []int{5, 10, 20}

var (
	// ErrInvalidDepth rejects a request before any socket is opened.
	ErrInvalidDepth = errors.New("invalid depth: must be one of 5, 10 or 20")

	// ErrConsumerCancelled marks a normal, client-initiated end of stream.
	ErrConsumerCancelled = errors.New("consumer cancelled the stream")
)

// -----------------------------------------------------------------------------

// ValidateDepth checks a requested per-side depth against ValidDepths.
func ValidateDepth(depth int) error {
	for _, d := range ValidDepths {
		if depth == d {
			return nil
		}
	}
	return fmt.Errorf("%w (got %d)", ErrInvalidDepth, depth)
}

// -----------------------------------------------------------------------------

// DecodeError reports a malformed inbound frame. It is contained inside the
// exchange connector: the frame is logged and skipped, the stream continues.
type DecodeError struct {
	Exchange string
	Reason   string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: discarded frame: %s", e.Exchange, e.Reason)
}

// -----------------------------------------------------------------------------

// ConnectionError is a terminal, socket-level failure of one exchange feed.
// Protocol marks the subscription-rejected variant, which is fatal for the
// connection in exactly the same way a reset socket is.
type ConnectionError struct {
	Exchange string
	Protocol bool
	Cause    error
}

func (e *ConnectionError) Error() string {
	if e.Protocol {
		return fmt.Sprintf("%s: upstream protocol error: %v", e.Exchange, e.Cause)
	}
	return fmt.Sprintf("%s: connection error: %v", e.Exchange, e.Cause)
}

func (e *ConnectionError) Unwrap() error {
	return e.Cause
}

// -----------------------------------------------------------------------------

// NewUpstreamProtocolError wraps an exchange-side subscription rejection.
func NewUpstreamProtocolError(exchange string, cause error) *ConnectionError {
	return &ConnectionError{Exchange: exchange, Protocol: true, Cause: cause}
}
