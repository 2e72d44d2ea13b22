// Package worker runs the goroutines that consume bus messages.
//
// Bus callbacks must return quickly, so they only hand messages over. A Queue feeds one handler in
// arrival order. A Registry owns one goroutine per room camera.
package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// DefaultQueueSize bounds how many messages wait for a busy handler.
const DefaultQueueSize = 256

// ErrStopped is returned when submitting to a queue that is no longer running.
var ErrStopped = errors.New("worker stopped")

// Message is one inbound bus message.
type Message struct {
	Topic   string
	Payload []byte
}

// HandleFunc processes one message. It runs on the queue's goroutine.
type HandleFunc func(ctx context.Context, topic string, payload []byte)

// Queue runs a HandleFunc for each submitted message, one at a time, in submission order.
type Queue struct {
	name   string
	ch     chan Message
	handle HandleFunc
	logger *slog.Logger

	stopOnce sync.Once
	done     chan struct{}
}

// NewQueue creates a queue. Nothing is handled until Run is called.
func NewQueue(name string, size int, handle HandleFunc, logger *slog.Logger) *Queue {
	if size <= 0 {
		size = DefaultQueueSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Queue{
		name:   name,
		ch:     make(chan Message, size),
		handle: handle,
		logger: logger.With("queue", name),
		done:   make(chan struct{}),
	}
}

// Submit enqueues a message, waiting while the queue is full.
func (q *Queue) Submit(topic string, payload []byte) error {
	select {
	case <-q.done:
		return ErrStopped
	default:
	}
	select {
	case q.ch <- Message{Topic: topic, Payload: payload}:
		return nil
	case <-q.done:
		return ErrStopped
	}
}

// Run handles messages until ctx is done. Messages still queued at that point are discarded.
func (q *Queue) Run(ctx context.Context) error {
	defer q.stopOnce.Do(func() { close(q.done) })
	q.logger.Debug("queue started")
	for {
		select {
		case <-ctx.Done():
			if n := len(q.ch); n > 0 {
				q.logger.Warn("discarding queued messages on shutdown", "count", n)
			}
			return nil
		case msg := <-q.ch:
			q.handle(ctx, msg.Topic, msg.Payload)
		}
	}
}

// Len returns the number of messages waiting.
func (q *Queue) Len() int { return len(q.ch) }
