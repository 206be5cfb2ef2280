// Package sequencer serializes message processing through a bounded FIFO
// queue. At most one handler invocation is in flight per process; beyond
// maxQueueSize new requests are shed with a fixed apology instead of queued.
package sequencer

import (
	"context"
	"sync"
	"time"

	apperrors "github.com/pakawat-dev/support-linebot-go/internal/errors"
	"github.com/pakawat-dev/support-linebot-go/internal/logger"
	"github.com/pakawat-dev/support-linebot-go/internal/metrics"
)

// Handler processes one queued message and returns the reply text.
type Handler func(ctx context.Context, userID, text string) (string, error)

// Result delivers one request's outcome to its original caller.
type Result struct {
	Text string
	Err  error
}

type queuedRequest struct {
	userID     string
	text       string
	enqueuedAt time.Time
	done       chan Result
}

// Sequencer drains queued requests one at a time. The draining worker starts
// on demand and exits when the queue empties.
type Sequencer struct {
	handler       Handler
	maxQueueSize  int
	busyResponse  string
	handleTimeout time.Duration
	log           *logger.Logger
	metrics       *metrics.Metrics

	mu       sync.Mutex
	queue    []*queuedRequest
	draining bool
	closed   bool

	baseCtx context.Context
	wg      sync.WaitGroup
}

// New creates a sequencer. baseCtx bounds all handler invocations; cancelling
// it fails queued work during shutdown.
func New(baseCtx context.Context, handler Handler, maxQueueSize int, busyResponse string, handleTimeout time.Duration, log *logger.Logger, m *metrics.Metrics) *Sequencer {
	return &Sequencer{
		handler:       handler,
		maxQueueSize:  maxQueueSize,
		busyResponse:  busyResponse,
		handleTimeout: handleTimeout,
		log:           log.WithModule("sequencer"),
		metrics:       m,
		baseCtx:       baseCtx,
	}
}

// Enqueue queues one message for sequential processing and returns a channel
// that receives exactly one Result. At capacity the channel resolves
// immediately with the busy apology; load shedding is not an error.
func (s *Sequencer) Enqueue(userID, text string) <-chan Result {
	done := make(chan Result, 1)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		done <- Result{Text: s.busyResponse, Err: apperrors.ErrQueueSaturated}
		return done
	}
	if len(s.queue) >= s.maxQueueSize {
		depth := len(s.queue)
		s.mu.Unlock()
		s.metrics.RecordAdmission("rejected")
		s.log.WithUserID(userID).WithField("queue_depth", depth).Warn("queue saturated; shedding request")
		done <- Result{Text: s.busyResponse}
		return done
	}

	s.queue = append(s.queue, &queuedRequest{
		userID:     userID,
		text:       text,
		enqueuedAt: time.Now(),
		done:       done,
	})
	s.metrics.SetQueueDepth(len(s.queue))
	startWorker := !s.draining
	if startWorker {
		s.draining = true
		s.wg.Add(1)
	}
	s.mu.Unlock()

	s.metrics.RecordAdmission("accepted")
	if startWorker {
		go s.drain()
	}
	return done
}

// drain pulls requests in enqueue order until the queue empties. A handler
// failure is delivered to that request's caller only; draining continues.
func (s *Sequencer) drain() {
	defer s.wg.Done()

	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			s.draining = false
			s.metrics.SetQueueDepth(0)
			s.mu.Unlock()
			return
		}
		req := s.queue[0]
		s.queue = s.queue[1:]
		s.metrics.SetQueueDepth(len(s.queue))
		s.mu.Unlock()

		req.done <- s.process(req)
	}
}

func (s *Sequencer) process(req *queuedRequest) Result {
	ctx, cancel := context.WithTimeout(s.baseCtx, s.handleTimeout)
	defer cancel()

	start := time.Now()
	text, err := s.handler(ctx, req.userID, req.text)
	if err != nil {
		s.log.WithUserID(req.userID).
			WithError(err).
			WithField("waited_ms", start.Sub(req.enqueuedAt).Milliseconds()).
			Error("request handling failed")
		return Result{Err: err}
	}
	return Result{Text: text}
}

// QueueDepth reports the number of requests waiting (not the one in flight).
func (s *Sequencer) QueueDepth() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Close stops admission and waits for the worker to finish the queue.
func (s *Sequencer) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.wg.Wait()
}
