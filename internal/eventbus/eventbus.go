// Package eventbus is a typed publish/subscribe bus that can be closed once
// its producer is finished.
package eventbus

import "sync"

// Handler is a callback function for events.
type Handler[T any] func(T)

// Bus delivers events to registered handlers. After Close, Publish is a
// no-op and Done is closed.
type Bus[T any] struct {
	mu       sync.RWMutex
	handlers map[int]Handler[T]
	nextID   int
	done     chan struct{}
	closed   bool
}

// New creates a new event bus.
func New[T any]() *Bus[T] {
	return &Bus[T]{
		handlers: make(map[int]Handler[T]),
		done:     make(chan struct{}),
	}
}

// Subscribe registers a handler and returns an unsubscribe function.
// Unsubscribing more than once is harmless.
func (b *Bus[T]) Subscribe(handler Handler[T]) func() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return func() {}
	}
	id := b.nextID
	b.nextID++
	b.handlers[id] = handler
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.handlers, id)
		b.mu.Unlock()
	}
}

// Publish sends an event to all registered handlers.
// Handlers are called synchronously, on the publisher's goroutine.
func (b *Bus[T]) Publish(event T) {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return
	}
	// Snapshot handlers to avoid holding lock during callbacks
	snapshot := make([]Handler[T], 0, len(b.handlers))
	for _, h := range b.handlers {
		snapshot = append(snapshot, h)
	}
	b.mu.RUnlock()

	for _, h := range snapshot {
		h(event)
	}
}

// Close marks the bus finished and drops every handler. Every event
// published before Close has been delivered when Done is closed.
func (b *Bus[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	clear(b.handlers)
	close(b.done)
}

// Done is closed by Close.
func (b *Bus[T]) Done() <-chan struct{} {
	return b.done
}

// Count returns the number of registered handlers.
func (b *Bus[T]) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers)
}
