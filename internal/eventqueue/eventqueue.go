// Package eventqueue waits for the next occurrence of an event without
// missing occurrences that fired before the wait started.
//
// A Queue counts occurrences from the moment it is created (writes) and the
// occurrences its consumer has taken (reads). Next consumes a pending
// occurrence immediately when reads lag behind writes and only blocks when
// the consumer is caught up. A Queue has a single consumer.
package eventqueue

import (
	"context"
	"errors"
	"sync"

	"github.com/cboone/clifford/internal/eventbus"
)

var (
	// ErrClosed is returned by Next when the source has finished and no
	// occurrence is pending.
	ErrClosed = errors.New("eventqueue: source closed")

	// ErrDisposed is returned by Next after Dispose.
	ErrDisposed = errors.New("eventqueue: disposed")
)

// Source is an event stream that eventually finishes.
// *eventbus.Bus satisfies it.
type Source[T any] interface {
	Subscribe(handler eventbus.Handler[T]) (unsubscribe func())
	Done() <-chan struct{}
}

// Queue tracks occurrences of one Source.
type Queue[T any] struct {
	mu          sync.Mutex
	writes      int
	reads       int
	disposed    bool
	notify      chan struct{}
	done        <-chan struct{}
	unsubscribe func()
}

// New subscribes to src. Occurrences are counted from this call on.
func New[T any](src Source[T]) *Queue[T] {
	q := &Queue[T]{
		notify: make(chan struct{}, 1),
		done:   src.Done(),
	}
	q.unsubscribe = src.Subscribe(func(T) { q.write() })
	return q
}

func (q *Queue[T]) write() {
	q.mu.Lock()
	q.writes++
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// take consumes one pending occurrence if there is one.
func (q *Queue[T]) take() (ok bool, err error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.disposed {
		return false, ErrDisposed
	}
	if q.reads < q.writes {
		q.reads++
		return true, nil
	}
	return false, nil
}

// Next returns once an occurrence is available and consumes it. It returns
// ctx.Err() if ctx ends first, and ErrClosed once the source has finished
// and every counted occurrence has been consumed.
func (q *Queue[T]) Next(ctx context.Context) error {
	for {
		ok, err := q.take()
		if err != nil || ok {
			return err
		}

		select {
		case <-q.notify:
		case <-q.done:
			// Occurrences published before the source finished are
			// already counted.
			ok, err := q.take()
			if err != nil || ok {
				return err
			}
			return ErrClosed
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Pending reports how many occurrences have not been consumed yet.
func (q *Queue[T]) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.writes - q.reads
}

// Dispose unsubscribes from the source. It is safe to call more than once.
func (q *Queue[T]) Dispose() {
	q.mu.Lock()
	if q.disposed {
		q.mu.Unlock()
		return
	}
	q.disposed = true
	q.mu.Unlock()

	q.unsubscribe()
}
