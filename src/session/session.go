package session

import (
	"context"
	"sync"
	"time"

	"orderbook-aggregator/src/book"
	"orderbook-aggregator/src/config"
	"orderbook-aggregator/src/interfaces"
	"orderbook-aggregator/src/logger"
	"orderbook-aggregator/src/models"

	"github.com/google/uuid"
	"github.com/jpillora/backoff"
)

// -----------------------------------------------------------------------------
// Aggregation Session
// -----------------------------------------------------------------------------

// State is the session lifecycle phase.
type State string

const (
	StateConnecting State = "connecting"
	StateStreaming  State = "streaming"
	StateRetrying   State = "retrying"
	StateClosing    State = "closing"
	StateClosed     State = "closed"
)

// -----------------------------------------------------------------------------

// Feed is one exchange connector as the session sees it.
type Feed interface {
	Start(ctx context.Context) error
	Stop() error
	Updates() <-chan *models.MBookUpdate
	Failure() <-chan error
}

// DialFunc builds a fresh Feed for one exchange. The session calls it once
// per feed at creation and again on every reconnect attempt.
type DialFunc func(exchange, symbol string, depth int) (Feed, error)

// -----------------------------------------------------------------------------

// Session aggregates both exchange feeds for a single streaming request. It
// owns its connector pair outright: nothing here is shared with any other
// session, and every goroutine it starts is stopped before Run returns.
//
// All merging happens on the Run goroutine. Each feed's latest ranked book
// lives in a slot only that goroutine touches, so merges are totally ordered
// by construction and need no locking.
type Session struct {
	ID     string
	Symbol string
	Depth  int

	config    *config.Config
	logger    *logger.Logger
	dial      DialFunc
	publisher interfaces.IPublisher

	feeds [2]*feedState
	out   chan *models.MBookSnapshot

	mu     sync.RWMutex
	state  State
	runErr error

	firstFrameSeen bool
}

// -----------------------------------------------------------------------------

// startResult reports the outcome of one feed's asynchronous Start.
type startResult struct {
	idx int
	err error
}

// feedState tracks one exchange inside the session loop. feed is nil while
// the connection is down (awaiting retry); the nil channels returned by the
// accessors then park the corresponding select cases.
type feedState struct {
	name     string
	feed     Feed
	book     *book.RankedBook
	backoff  *backoff.Backoff
	attempts int
	retryC   <-chan time.Time
	dead     bool
}

func (fs *feedState) updatesC() <-chan *models.MBookUpdate {
	if fs.feed == nil {
		return nil
	}
	return fs.feed.Updates()
}

func (fs *feedState) failureC() <-chan error {
	if fs.feed == nil {
		return nil
	}
	return fs.feed.Failure()
}

// -----------------------------------------------------------------------------

// New creates a session for one streaming request. A depth of 0 takes the
// configured default; anything outside the allowed set fails with
// ErrInvalidDepth before any socket is opened. Both feeds are dialed here so
// that constructor-level problems surface to the caller immediately.
func New(cfg *config.Config, log *logger.Logger, dial DialFunc, publisher interfaces.IPublisher, symbol string, depth int) (*Session, error) {
	if depth == 0 {
		depth = cfg.DefaultDepth
	}
	if err := models.ValidateDepth(depth); err != nil {
		return nil, err
	}

	s := &Session{
		ID:        uuid.NewString(),
		Symbol:    symbol,
		Depth:     depth,
		config:    cfg,
		logger:    log,
		dial:      dial,
		publisher: publisher,
		out:       make(chan *models.MBookSnapshot, 1),
		state:     StateConnecting,
	}

	for i, exchangeConfig := range cfg.Exchanges {
		feed, err := dial(exchangeConfig.Name, symbol, depth)
		if err != nil {
			return nil, err
		}
		s.feeds[i] = &feedState{
			name: exchangeConfig.Name,
			feed: feed,
			backoff: &backoff.Backoff{
				Min:    cfg.Retry.MinBackoff,
				Max:    cfg.Retry.MaxBackoff,
				Factor: 2,
				Jitter: true,
			},
		}
	}

	return s, nil
}

// -----------------------------------------------------------------------------

// Output yields merged snapshots, newest-wins. The channel is closed when
// the session ends; Err reports why.
func (s *Session) Output() <-chan *models.MBookSnapshot {
	return s.out
}

// Err returns the terminal error after Output is closed. It is
// ErrConsumerCancelled on a normal client-initiated stop.
func (s *Session) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.runErr
}

// State returns the current lifecycle phase.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// -----------------------------------------------------------------------------

// Run drives the session until the consumer cancels or both feeds fail
// beyond their retry budget. It blocks; the caller consumes Output from
// another goroutine (typically the gRPC stream handler's).
func (s *Session) Run(ctx context.Context) error {
	s.logger.Info("session %s : starting for %s at depth %d", s.ID, s.Symbol, s.Depth)

	defer func() {
		s.setState(StateClosed)
		close(s.out)
		s.logger.Info("session %s : closed", s.ID)
	}()

	// Open both connectors concurrently; the session streams as soon as the
	// first frame from either feed arrives.
	startC := make(chan startResult, len(s.feeds))
	for i := range s.feeds {
		go func(i int, f Feed) {
			startC <- startResult{i, f.Start(ctx)}
		}(i, s.feeds[i].feed)
	}

	for {
		f0, f1 := s.feeds[0], s.feeds[1]

		select {
		case <-ctx.Done():
			s.setState(StateClosing)
			s.stopAll()
			return s.finish(models.ErrConsumerCancelled)

		case res := <-startC:
			if res.err != nil {
				if terminal := s.feedDown(res.idx, res.err); terminal != nil {
					return s.finish(terminal)
				}
			}

		case update := <-f0.updatesC():
			s.applyUpdate(0, update)
		case err := <-f0.failureC():
			if terminal := s.feedDown(0, err); terminal != nil {
				return s.finish(terminal)
			}
		case <-f0.retryC:
			if terminal := s.redial(ctx, 0, startC); terminal != nil {
				return s.finish(terminal)
			}

		case update := <-f1.updatesC():
			s.applyUpdate(1, update)
		case err := <-f1.failureC():
			if terminal := s.feedDown(1, err); terminal != nil {
				return s.finish(terminal)
			}
		case <-f1.retryC:
			if terminal := s.redial(ctx, 1, startC); terminal != nil {
				return s.finish(terminal)
			}
		}
	}
}

// -----------------------------------------------------------------------------

// applyUpdate overwrites one exchange's slot with its newest ranked book,
// recomputes the merge across both slots and publishes the result.
func (s *Session) applyUpdate(idx int, update *models.MBookUpdate) {
	fs := s.feeds[idx]

	fs.book = &book.RankedBook{
		Exchange: update.Exchange,
		Bids:     update.Bids,
		Asks:     update.Asks,
	}

	// A live frame proves the feed recovered; the retry budget starts over
	// for the next outage.
	fs.attempts = 0
	fs.backoff.Reset()

	s.firstFrameSeen = true
	s.setState(StateStreaming)
	s.publishMerged()
}

// -----------------------------------------------------------------------------

// publishMerged merges the two slots in configured exchange order and hands
// the snapshot to the output channel, overwriting any unconsumed one. A slow
// consumer therefore skips intermediate books instead of stalling ingestion.
func (s *Session) publishMerged() {
	snapshot := book.Merge(s.feeds[0].book, s.feeds[1].book, s.Depth)

	if s.publisher != nil {
		s.publisher.OnSnapshot(s.Symbol, &snapshot)
	}

	for {
		select {
		case s.out <- &snapshot:
			return
		default:
		}
		select {
		case <-s.out:
		default:
		}
	}
}

// -----------------------------------------------------------------------------

// feedDown handles a terminal failure of one feed: the connection is torn
// down, its contribution leaves the merged book, and a reconnect is
// scheduled while the budget lasts. The returned error is non-nil only when
// the whole session must end (both feeds beyond recovery).
func (s *Session) feedDown(idx int, err error) error {
	fs := s.feeds[idx]
	s.logger.Error("session %s : feed %s failed: %v", s.ID, fs.name, err)

	if fs.feed != nil {
		_ = fs.feed.Stop()
		fs.feed = nil
	}
	fs.book = nil

	// Keep the survivor flowing one-sided while this side is out.
	if s.firstFrameSeen {
		s.publishMerged()
	}

	fs.attempts++
	if fs.attempts > s.config.Retry.MaxAttempts {
		fs.dead = true
		fs.retryC = nil
		s.logger.Error("session %s : feed %s exhausted %d reconnect attempts",
			s.ID, fs.name, s.config.Retry.MaxAttempts)
		if s.otherDead(idx) {
			s.setState(StateClosing)
			s.stopAll()
			return err
		}
		return nil
	}

	s.setState(StateRetrying)
	delay := fs.backoff.Duration()
	s.logger.Warning("session %s : reconnecting %s in %s (attempt %d/%d)",
		s.ID, fs.name, delay, fs.attempts, s.config.Retry.MaxAttempts)
	fs.retryC = time.After(delay)
	return nil
}

// -----------------------------------------------------------------------------

// redial rebuilds only the failed feed; the other exchange's state is
// untouched. The returned error is non-nil only when the rebuild pushed the
// session past the point of recovery.
func (s *Session) redial(ctx context.Context, idx int, startC chan<- startResult) error {
	fs := s.feeds[idx]
	fs.retryC = nil

	feed, err := s.dial(fs.name, s.Symbol, s.Depth)
	if err != nil {
		return s.feedDown(idx, err)
	}

	fs.feed = feed
	go func() {
		startC <- startResult{idx, feed.Start(ctx)}
	}()
	return nil
}

// -----------------------------------------------------------------------------

func (s *Session) otherDead(idx int) bool {
	for i, fs := range s.feeds {
		if i != idx && !fs.dead {
			return false
		}
	}
	return true
}

func (s *Session) stopAll() {
	for _, fs := range s.feeds {
		if fs.feed != nil {
			_ = fs.feed.Stop()
			fs.feed = nil
		}
	}
}

func (s *Session) setState(state State) {
	s.mu.Lock()
	if s.state != StateClosing || state == StateClosed {
		s.state = state
	}
	s.mu.Unlock()
}

func (s *Session) finish(err error) error {
	s.mu.Lock()
	s.runErr = err
	s.mu.Unlock()
	return err
}
