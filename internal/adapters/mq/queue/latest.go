package queue

import (
	"context"
	"sync"
)

// Latest is a bounded buffer that favours fresh items: when it is full,
// Offer evicts the oldest waiting item to make room. Sensors use it so a
// slow consumer never acts on stale readings.
type Latest[T any] struct {
	mu     sync.Mutex
	items  chan T
	done   chan struct{}
	closed bool
}

// NewLatest creates a buffer holding up to size items (minimum 1).
func NewLatest[T any](size int) *Latest[T] {
	if size < 1 {
		size = 1
	}
	return &Latest[T]{items: make(chan T, size), done: make(chan struct{})}
}

// Offer stores item and reports how many older items were evicted.
// Offers after Close are ignored.
func (l *Latest[T]) Offer(item T) (evicted int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return 0
	}
	for {
		select {
		case l.items <- item:
			return evicted
		default:
		}
		select {
		case <-l.items:
			evicted++
		default:
		}
	}
}

// Take blocks for the next item. Items still buffered when the buffer is
// closed are handed out before ErrClosed. It also fails with ctx's error.
func (l *Latest[T]) Take(ctx context.Context) (T, error) {
	var zero T
	select {
	case item := <-l.items:
		return item, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	case <-l.done:
		// Offer is refused once done is closed, so this drain is final.
		select {
		case item := <-l.items:
			return item, nil
		default:
			return zero, ErrClosed
		}
	}
}

// Len returns the number of waiting items.
func (l *Latest[T]) Len() int {
	return len(l.items)
}

// Close wakes blocked Take calls. It is safe to call more than once.
func (l *Latest[T]) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.closed {
		l.closed = true
		close(l.done)
	}
}
