package stream

import (
	"context"
	"io"
	"iter"
	"sync/atomic"
)

// Consumer is an independent cursor into a Session. A Consumer is not safe
// for concurrent use; create one per reader.
type Consumer[T any] struct {
	s *Session[T]
	// pos is read by the session when it releases a sealed buffer.
	pos    atomic.Int64
	closed atomic.Bool

	// view is the buffer as of the last locked read. Its elements never
	// change while the session is unsealed, so they are read without s.mu.
	view     []T
	viewBase int
}

// Next returns the next item. It blocks until an item is available, the
// source ends, or ctx is done. At the end of a clean sequence it returns
// io.EOF; if the source failed, it returns the source's error. Cancelling ctx
// only abandons this wait.
func (c *Consumer[T]) Next(ctx context.Context) (T, error) {
	var zero T
	s := c.s
	s.Start()
	for {
		if c.closed.Load() {
			return zero, ErrClosed
		}
		if !s.sealed.Load() {
			if idx := int(c.pos.Load()) - c.viewBase; idx < len(c.view) {
				v := c.view[idx]
				c.pos.Add(1)
				return v, nil
			}
		}

		s.mu.Lock()
		if c.closed.Load() {
			s.mu.Unlock()
			return zero, ErrClosed
		}
		c.view, c.viewBase = s.items, s.base
		if idx := int(c.pos.Load()) - s.base; idx < len(s.items) {
			v := s.items[idx]
			c.pos.Add(1)
			s.releaseLocked()
			s.mu.Unlock()
			return v, nil
		}
		if s.done {
			err := s.err
			s.mu.Unlock()
			if err == nil {
				err = io.EOF
			}
			return zero, err
		}
		wait := s.notify
		s.mu.Unlock()

		select {
		case <-wait:
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}
}

// All iterates the remaining items. A terminal error other than io.EOF is
// yielded once as the final element. The consumer is closed when iteration
// stops.
func (c *Consumer[T]) All(ctx context.Context) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		defer c.Close()
		for {
			v, err := c.Next(ctx)
			if err == io.EOF {
				return
			}
			if err != nil {
				var zero T
				yield(zero, err)
				return
			}
			if !yield(v, nil) {
				return
			}
		}
	}
}

// Close unregisters the consumer so the session no longer retains items on
// its behalf.
func (c *Consumer[T]) Close() {
	c.s.mu.Lock()
	if c.closed.Load() {
		c.s.mu.Unlock()
		return
	}
	c.closed.Store(true)
	c.view = nil
	c.s.mu.Unlock()
	c.s.remove(c)
}
