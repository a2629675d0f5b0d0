package mqtt

import (
	"context"
	"log"
	"sync"

	"github.com/sweeney/rc-indicator/internal/logic"
)

// queued is one pending publish. Exactly one field is set.
type queued struct {
	event  *logic.Event
	system *SystemEvent
}

// Queue decouples the control loop from the broker. Publish and
// PublishSystem never block; a goroutine running Run delivers to the
// wrapped Publisher. When the queue is full the oldest entry is dropped.
type Queue struct {
	next Publisher

	mu sync.Mutex
	rb *ringBuffer[queued]

	wake chan struct{}
}

// NewQueue wraps next with a queue of the given capacity.
func NewQueue(next Publisher, capacity int) *Queue {
	return &Queue{
		next: next,
		rb:   newRingBuffer[queued]("publish queue", capacity),
		wake: make(chan struct{}, 1),
	}
}

func (q *Queue) push(item queued) {
	q.mu.Lock()
	q.rb.push(item)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Publish enqueues an indicator event. It never blocks and never fails.
func (q *Queue) Publish(event logic.Event) error {
	q.push(queued{event: &event})
	return nil
}

// PublishSystem enqueues a system event. It never blocks and never fails.
func (q *Queue) PublishSystem(event SystemEvent) error {
	q.push(queued{system: &event})
	return nil
}

// Len returns the number of pending entries.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.rb.len()
}

// Dropped returns the number of entries discarded because the queue was full.
func (q *Queue) Dropped() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.rb.dropped
}

// Flush delivers every pending entry synchronously.
func (q *Queue) Flush() {
	q.mu.Lock()
	items := q.rb.drainAll()
	q.mu.Unlock()

	for _, it := range items {
		switch {
		case it.event != nil:
			if err := q.next.Publish(*it.event); err != nil {
				log.Printf("publish error: %v", err)
			}
		case it.system != nil:
			if err := q.next.PublishSystem(*it.system); err != nil {
				log.Printf("failed to publish %s event: %v", it.system.Event, err)
			}
		}
	}
}

// Run delivers entries until ctx is done, then flushes what is left.
func (q *Queue) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			q.Flush()
			return
		case <-q.wake:
			q.Flush()
		}
	}
}

// IsConnected reports the wrapped publisher's connection state, or false
// if it does not expose one.
func (q *Queue) IsConnected() bool {
	if cs, ok := q.next.(ConnectionStatus); ok {
		return cs.IsConnected()
	}
	return false
}

// Close closes the wrapped publisher. Pending entries are not delivered;
// call Flush or let Run return first.
func (q *Queue) Close() error {
	return q.next.Close()
}
