package rebuild

import (
	"context"
	"sync"
	"time"
)

// Signal is one change notification. Source names what changed and is only
// used for logging.
type Signal struct {
	Source string
}

// SignalQueue is an unbounded FIFO of signals. Post never blocks and may be
// called from any goroutine; Wait is meant for a single consumer.
type SignalQueue struct {
	mu    sync.Mutex
	items []Signal

	// ready holds a token while items may be non-empty.
	ready chan struct{}
}

// NewSignalQueue returns an empty queue.
func NewSignalQueue() *SignalQueue {
	return &SignalQueue{ready: make(chan struct{}, 1)}
}

// Post appends s to the queue.
func (q *SignalQueue) Post(s Signal) {
	q.mu.Lock()
	q.items = append(q.items, s)
	q.mu.Unlock()
	q.wake()
}

// Len returns the number of queued signals.
func (q *SignalQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Wait removes and returns the oldest signal. It blocks until a signal is
// available, ctx is done, or timeout elapses. A timeout of zero or less waits
// without limit. The boolean is false when the timeout elapsed first.
func (q *SignalQueue) Wait(ctx context.Context, timeout time.Duration) (Signal, bool, error) {
	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}
	for {
		if s, ok := q.pop(); ok {
			return s, true, nil
		}
		select {
		case <-q.ready:
		case <-expired:
			return Signal{}, false, nil
		case <-ctx.Done():
			return Signal{}, false, ctx.Err()
		}
	}
}

func (q *SignalQueue) pop() (Signal, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return Signal{}, false
	}
	s := q.items[0]
	q.items[0] = Signal{}
	q.items = q.items[1:]
	if len(q.items) > 0 {
		q.wake()
	}
	return s, true
}

func (q *SignalQueue) wake() {
	select {
	case q.ready <- struct{}{}:
	default:
	}
}
