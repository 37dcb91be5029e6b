package relay

import (
	"sync"
	"time"

	"github.com/skobkin/dsrelay/internal/bus"
)

type busEvent struct {
	topic string
	msg   any
}

// eventQueue publishes events in push order from one goroutine. push never
// blocks, so it is safe to call with the manager's locks held.
type eventQueue struct {
	bus bus.MessageBus

	mu      sync.Mutex
	pending []busEvent
	closed  bool

	wake chan struct{}
	quit chan struct{}
	done chan struct{}
}

func newEventQueue(b bus.MessageBus) *eventQueue {
	q := &eventQueue{
		bus:  b,
		wake: make(chan struct{}, 1),
		quit: make(chan struct{}),
		done: make(chan struct{}),
	}
	if b == nil {
		close(q.done)

		return q
	}
	go q.run()

	return q
}

func (q *eventQueue) push(topic string, msg any) {
	if q.bus == nil {
		return
	}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()

		return
	}
	q.pending = append(q.pending, busEvent{topic: topic, msg: msg})
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// close stops accepting events and waits up to timeout for the backlog.
func (q *eventQueue) close(timeout time.Duration) bool {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.quit)
	}
	q.mu.Unlock()

	select {
	case <-q.done:
		return true
	case <-time.After(timeout):
		return false
	}
}

func (q *eventQueue) run() {
	defer close(q.done)

	for {
		q.mu.Lock()
		batch := q.pending
		q.pending = nil
		closed := q.closed
		q.mu.Unlock()

		for _, ev := range batch {
			q.bus.Publish(ev.topic, ev.msg)
		}
		if len(batch) > 0 {
			continue
		}
		if closed {
			return
		}

		select {
		case <-q.wake:
		case <-q.quit:
		}
	}
}
