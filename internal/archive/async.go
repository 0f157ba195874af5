package archive

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/peerlink/internal/logging"
)

const defaultQueueSize = 256

// AsyncSink decouples archival from the send path: Store enqueues and
// returns immediately, a single worker drains the queue into the wrapped
// sink, and when the queue is full the message is dropped and the event
// logged. Reads pass through synchronously.
type AsyncSink struct {
	inner  Sink
	queue  chan *Message
	logger logging.Logger

	closeOnce sync.Once
	done      chan struct{}
}

func NewAsyncSink(inner Sink, logger logging.Logger) *AsyncSink {
	s := &AsyncSink{
		inner:  inner,
		queue:  make(chan *Message, defaultQueueSize),
		logger: logger.With("module", "archive"),
		done:   make(chan struct{}),
	}
	go s.run()
	return s
}

// Store never blocks. The context of the caller is deliberately not used by
// the worker; archival outlives the request that triggered it.
func (s *AsyncSink) Store(ctx context.Context, msg *Message) error {
	select {
	case s.queue <- msg:
	default:
		s.logger.Warn(ctx, "archive queue full, message dropped", "id", msg.ID)
	}
	return nil
}

func (s *AsyncSink) ForUser(ctx context.Context, userID string) ([]*Message, error) {
	return s.inner.ForUser(ctx, userID)
}

// Close stops accepting messages and waits until the queue is drained.
func (s *AsyncSink) Close() {
	s.closeOnce.Do(func() {
		close(s.queue)
	})
	<-s.done
}

func (s *AsyncSink) run() {
	defer close(s.done)

	for msg := range s.queue {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := s.inner.Store(ctx, msg); err != nil {
			s.logger.Warn(ctx, "archiving message failed", "id", msg.ID, "error", err.Error())
		}
		cancel()
	}
}
