package strategy

import (
	"sync"
	"time"

	decompbin "github.com/decomp/exp/bin"
)

// Queue is the MPMC work queue of spec §5: multiple producers and
// consumers push/pop absolute addresses; duplicates are tolerated (the
// bitmap check filters them) so no duplicate suppression is attempted.
type Queue struct {
	mu     sync.Mutex
	items  []decompbin.Address
	signal chan struct{}
}

// NewQueue builds an empty Queue, optionally pre-seeded with initial.
func NewQueue(initial ...decompbin.Address) *Queue {
	q := &Queue{signal: make(chan struct{}, 1)}
	q.items = append(q.items, initial...)
	return q
}

// Push enqueues addr.
func (q *Queue) Push(addr decompbin.Address) {
	q.mu.Lock()
	q.items = append(q.items, addr)
	q.mu.Unlock()
	select {
	case q.signal <- struct{}{}:
	default:
	}
}

// Pop waits up to timeout for an item, per spec §4.6's "poll the queue
// with a short timeout (≈ 1s)".
func (q *Queue) Pop(timeout time.Duration) (decompbin.Address, bool) {
	deadline := time.Now().Add(timeout)
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			addr := q.items[0]
			q.items = q.items[1:]
			q.mu.Unlock()
			return addr, true
		}
		q.mu.Unlock()

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return 0, false
		}
		select {
		case <-q.signal:
		case <-time.After(remaining):
			return 0, false
		}
	}
}
