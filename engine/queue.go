package engine

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"liaptui/domain/actions"
)

var (
	// ErrQueueFull is the transient backpressure error for non-critical
	// actions when the queue length exceeds the soft cap
	ErrQueueFull = errors.New("action queue full")

	// ErrQueueClosed is the fatal error returned once the room closed
	ErrQueueClosed = errors.New("action queue closed")
)

// ActionQueue is the single serialization point of a room: a
// multi-producer FIFO consumed by exactly one goroutine. Ordering is
// arrival order; ties between producers are broken by the arrival
// sequence stamped under the enqueue lock.
type ActionQueue struct {
	mu       sync.Mutex
	ch       chan *Action
	done     chan struct{}
	closed   bool
	arrivals atomic.Uint64
	softCap  int
}

// NewActionQueue creates a queue with the given soft cap. The channel
// buffer is sized above the cap so critical control actions always
// have room even under backpressure.
func NewActionQueue(softCap int) *ActionQueue {
	return &ActionQueue{
		ch:      make(chan *Action, softCap*2+16),
		done:    make(chan struct{}),
		softCap: softCap,
	}
}

// Enqueue submits an action. Non-critical actions are rejected with
// ErrQueueFull beyond the soft cap; critical control actions (leave,
// host kick, display advance) are never dropped.
func (q *ActionQueue) Enqueue(a *Action) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrQueueClosed
	}

	if !actions.Critical(a.Payload) && len(q.ch) >= q.softCap {
		q.mu.Unlock()
		return ErrQueueFull
	}

	a.Arrival = q.arrivals.Add(1)
	a.EnqueuedAt = time.Now()

	select {
	case q.ch <- a:
		q.mu.Unlock()
		return nil
	default:
		// Hard buffer exhausted; only reachable when critical actions
		// alone overflow twice the soft cap.
		q.mu.Unlock()
		return ErrQueueFull
	}
}

// Dequeue blocks until the next action or queue close. The second
// return is false once the queue is closed and drained.
func (q *ActionQueue) Dequeue() (*Action, bool) {
	select {
	case a := <-q.ch:
		return a, true
	case <-q.done:
		// Drain anything that raced with close so the terminal
		// rejection pass sees it.
		select {
		case a := <-q.ch:
			return a, true
		default:
			return nil, false
		}
	}
}

// Close stops intake. Pending actions are drained by the consumer and
// rejected with a fatal error.
func (q *ActionQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.done)
}

// Drain empties the queue after close, returning whatever was pending
func (q *ActionQueue) Drain() []*Action {
	var pending []*Action
	for {
		select {
		case a := <-q.ch:
			pending = append(pending, a)
		default:
			return pending
		}
	}
}

// Len returns the current queue length
func (q *ActionQueue) Len() int {
	return len(q.ch)
}
