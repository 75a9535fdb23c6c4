package stream

import (
	"context"
	"iter"
)

// Source produces the items of a session. It calls yield for each item in
// order and returns when the sequence ends, yield returns false, or ctx is
// done. A non-nil return value is the terminal error of the sequence.
type Source[T any] func(ctx context.Context, yield func(T) bool) error

// FromChannel adapts a channel into a Source. The sequence ends when the
// channel is closed.
func FromChannel[T any](ch <-chan T) Source[T] {
	return func(ctx context.Context, yield func(T) bool) error {
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case v, ok := <-ch:
				if !ok {
					return nil
				}
				if !yield(v) {
					return nil
				}
			}
		}
	}
}

// FromSeq adapts an iterator into a Source. The first non-nil error yielded
// terminates the sequence.
func FromSeq[T any](seq iter.Seq2[T, error]) Source[T] {
	return func(ctx context.Context, yield func(T) bool) error {
		for v, err := range seq {
			if err != nil {
				return err
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if !yield(v) {
				return nil
			}
		}
		return nil
	}
}

// FromSlice creates a Source over a fixed sequence of items followed by an
// optional terminal error.
func FromSlice[T any](items []T, err error) Source[T] {
	return func(ctx context.Context, yield func(T) bool) error {
		for _, v := range items {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if !yield(v) {
				return nil
			}
		}
		return err
	}
}
