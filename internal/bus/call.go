package bus

import (
	"context"
	"fmt"
	"sync/atomic"
)

type outcome[T any] struct {
	value T
	err   error
}

// Call is a request envelope carrying a payload and a single-use reply
// slot. Construct one with NewCall; the zero value cannot be replied to.
type Call[M, T any] struct {
	Msg M

	replied *atomic.Bool
	reply   chan<- outcome[T]
}

// Waiter receives the reply to exactly one call.
type Waiter[T any] struct {
	reply <-chan outcome[T]
}

// NewCall builds a request envelope for msg and the waiter that will
// observe its reply.
func NewCall[M, T any](msg M) (Call[M, T], Waiter[T]) {
	reply := make(chan outcome[T], 1)
	call := Call[M, T]{
		Msg:     msg,
		replied: new(atomic.Bool),
		reply:   reply,
	}
	return call, Waiter[T]{reply: reply}
}

// Reply resolves the call with a value and a domain error. Only the
// first Reply on a call succeeds; later attempts return ErrAlreadyReplied.
func (c Call[M, T]) Reply(value T, err error) error {
	if c.replied == nil || !c.replied.CompareAndSwap(false, true) {
		return ErrAlreadyReplied
	}
	c.reply <- outcome[T]{value: value, err: err}
	return nil
}

// ReplyErr resolves the call with only a domain error.
func (c Call[M, T]) ReplyErr(err error) error {
	var zero T
	return c.Reply(zero, err)
}

// Wait blocks until the reply arrives or the context ends. A context end
// surfaces as ErrNoReply so callers can tell an absent peer from a domain
// failure the peer returned.
func (w Waiter[T]) Wait(ctx context.Context) (T, error) {
	select {
	case out := <-w.reply:
		return out.value, out.err
	case <-ctx.Done():
		var zero T
		return zero, fmt.Errorf("%w: %v", ErrNoReply, ctx.Err())
	}
}
