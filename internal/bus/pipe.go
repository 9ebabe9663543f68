package bus

import (
	"context"
	"sync"
)

const defaultCapacity = 64

// Sender is a handle for delivering messages into a module's inbox.
// Sends from one goroutine arrive in order; the pipe is safe for many
// concurrent senders.
type Sender[T any] struct {
	ch   chan<- T
	done <-chan struct{}
}

// Receiver is the single consuming end of a pipe. It belongs to exactly
// one module run loop.
type Receiver[T any] struct {
	ch   chan T
	done chan struct{}
	once sync.Once
}

// NewPipe creates a buffered inbox and returns the sending and receiving
// ends. A capacity below one falls back to the default.
func NewPipe[T any](capacity int) (Sender[T], *Receiver[T]) {
	if capacity < 1 {
		capacity = defaultCapacity
	}
	recv := &Receiver[T]{
		ch:   make(chan T, capacity),
		done: make(chan struct{}),
	}
	return Sender[T]{ch: recv.ch, done: recv.done}, recv
}

// IsZero reports whether the sender was never connected to a pipe.
func (s Sender[T]) IsZero() bool {
	return s.ch == nil
}

// Send delivers a message to the inbox. It fails with ErrClosed once the
// receiver has shut down, and with the context error when the caller
// stops waiting for buffer space.
func (s Sender[T]) Send(ctx context.Context, msg T) error {
	if s.ch == nil {
		return ErrClosed
	}
	select {
	case <-s.done:
		return ErrClosed
	default:
	}
	select {
	case s.ch <- msg:
		return nil
	case <-s.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Receive blocks until a message arrives or the context ends. The second
// return is false only when the context ended first.
func (r *Receiver[T]) Receive(ctx context.Context) (T, bool) {
	select {
	case msg := <-r.ch:
		return msg, true
	case <-ctx.Done():
		var zero T
		return zero, false
	}
}

// Close marks the inbox as gone. Subsequent sends fail with ErrClosed;
// messages already buffered are dropped.
func (r *Receiver[T]) Close() {
	r.once.Do(func() { close(r.done) })
}
