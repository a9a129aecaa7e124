package events

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var (
	ErrQueueFull   = errors.New("event queue is full")
	ErrQueueClosed = errors.New("event queue is closed")
)

// Queue hands events to the next publisher on its own goroutine. Publish
// never waits for the broker; an event that does not fit the buffer is
// rejected with ErrQueueFull.
type Queue struct {
	next   Publisher
	log    *zap.Logger
	events chan Event
	done   chan struct{}

	mu     sync.Mutex
	closed bool
}

func NewQueue(next Publisher, size int, log *zap.Logger) *Queue {
	if size <= 0 {
		size = 1
	}
	q := &Queue{
		next:   next,
		log:    log.Named("events"),
		events: make(chan Event, size),
		done:   make(chan struct{}),
	}
	go q.drain()
	return q
}

func (q *Queue) Publish(ctx context.Context, e Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrQueueClosed
	}
	select {
	case q.events <- e:
		return nil
	default:
		return ErrQueueFull
	}
}

// Detach stops accepting events without waiting. Queued events are still
// delivered; the next publisher is left open for its owner.
func (q *Queue) Detach() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.closed {
		q.closed = true
		close(q.events)
	}
}

// Close stops accepting events, delivers the queued ones and closes the
// next publisher.
func (q *Queue) Close() error {
	q.Detach()
	<-q.done
	return q.next.Close()
}

func (q *Queue) drain() {
	defer close(q.done)
	for e := range q.events {
		if err := q.next.Publish(context.Background(), e); err != nil {
			q.log.Warn("publish", zap.String("type", e.Type), zap.Error(err))
		}
	}
}
