package grpc_stream

import (
	"context"
	"errors"

	"orderbook-aggregator/src/config"
	"orderbook-aggregator/src/interfaces"
	"orderbook-aggregator/src/logger"
	"orderbook-aggregator/src/models"
	"orderbook-aggregator/src/session"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// -----------------------------------------------------------------------------
// OrderbookAggregator Implementation
// -----------------------------------------------------------------------------

type AggregatorServiceImpl struct {
	UnimplementedOrderbookAggregatorServer
	Name          string
	config        *config.Config
	logger        *logger.Logger
	dial          session.DialFunc
	publisher     interfaces.IPublisher
	defaultSymbol string
}

// -----------------------------------------------------------------------------

// NewAggregatorService creates the streaming service. defaultSymbol is the
// startup symbol used for requests that leave Symbol empty; publisher may be
// nil when the NATS fan-out is not configured.
func NewAggregatorService(config *config.Config, logger *logger.Logger, dial session.DialFunc, publisher interfaces.IPublisher, defaultSymbol string) *AggregatorServiceImpl {
	return &AggregatorServiceImpl{
		Name:          "OrderbookAggregator",
		config:        config,
		logger:        logger,
		dial:          dial,
		publisher:     publisher,
		defaultSymbol: defaultSymbol,
	}
}

// -----------------------------------------------------------------------------

// BookSummary implements the gRPC BookSummary method. One call owns one
// aggregation session with its own pair of exchange connections; the session
// is torn down completely on any exit path.
func (s *AggregatorServiceImpl) BookSummary(req *SummaryRequest, stream OrderbookAggregator_BookSummaryServer) error {
	symbol := req.GetSymbol()
	if symbol == "" {
		symbol = s.defaultSymbol
	}
	if symbol == "" {
		return status.Error(codes.InvalidArgument, "symbol is required")
	}

	sess, err := session.New(s.config, s.logger, s.dial, s.publisher, symbol, int(req.GetDepth()))
	if err != nil {
		if errors.Is(err, models.ErrInvalidDepth) {
			s.logger.Warning("%s : rejected request for %s: %v", s.Name, symbol, err)
			return status.Error(codes.InvalidArgument, err.Error())
		}
		s.logger.Error("%s : failed to create session for %s: %v", s.Name, symbol, err)
		return status.Error(codes.Internal, err.Error())
	}

	s.logger.Info("%s : session %s opened for %s (depth %d)", s.Name, sess.ID, symbol, sess.Depth)

	ctx, cancel := context.WithCancel(stream.Context())
	defer cancel()

	runDone := make(chan struct{})
	go func() {
		defer close(runDone)
		_ = sess.Run(ctx)
	}()

	for snapshot := range sess.Output() {
		if err := stream.Send(summaryFromSnapshot(snapshot)); err != nil {
			// The consumer went away; cancel the session and drain until
			// its goroutines are gone.
			cancel()
			for range sess.Output() {
			}
			break
		}
	}
	<-runDone

	runErr := sess.Err()
	switch {
	case runErr == nil, errors.Is(runErr, models.ErrConsumerCancelled):
		s.logger.Info("%s : session %s ended by consumer", s.Name, sess.ID)
		return nil
	default:
		s.logger.Error("%s : session %s terminated: %v", s.Name, sess.ID, runErr)
		return status.Error(codes.Unavailable, runErr.Error())
	}
}

// -----------------------------------------------------------------------------

// summaryFromSnapshot converts a merged snapshot to its wire representation.
// A nil Spread stays absent on the wire; it is never encoded as zero.
func summaryFromSnapshot(snapshot *models.MBookSnapshot) *Summary {
	summary := &Summary{
		Bids: levelsFromModel(snapshot.Bids),
		Asks: levelsFromModel(snapshot.Asks),
	}
	if snapshot.Spread != nil {
		summary.Spread = wrapperspb.Double(*snapshot.Spread)
	}
	return summary
}

func levelsFromModel(levels []models.MPriceLevel) []*Level {
	out := make([]*Level, 0, len(levels))
	for _, level := range levels {
		out = append(out, &Level{
			Exchange: level.Exchange,
			Price:    level.Price,
			Amount:   level.Amount,
		})
	}
	return out
}
