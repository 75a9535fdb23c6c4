// Package stream fans a single-pass sequence out to any number of independent
// consumers.
//
// A [Session] pulls from its [Source] at most once, on a single goroutine, and
// buffers every item. Each [Consumer] keeps its own cursor into that buffer,
// so consumers created late replay from the first item and a slow consumer
// never holds back a fast one. The terminal error of the source, or a clean
// end of sequence, is delivered to every consumer once it has read all
// buffered items.
package stream

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
)

var (
	// ErrSealed is returned by NewConsumer after Seal.
	ErrSealed = errors.New("stream: session sealed")
	// ErrClosed is returned by Next on a consumer that has been closed.
	ErrClosed = errors.New("stream: consumer closed")
)

type options struct {
	logger *slog.Logger
}

// Option configures a Session.
type Option func(*options)

// WithLogger sets the logger used for pump lifecycle messages.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// Session multiplexes one Source across many consumers.
type Session[T any] struct {
	source Source[T]
	ctx    context.Context
	cancel context.CancelFunc
	logger *slog.Logger

	startOnce sync.Once

	mu sync.Mutex
	// items holds buffered items; items[0] is the item at absolute index base.
	items     []T
	base      int
	done      bool
	err       error
	// sealed is written under mu; consumers load it without mu to decide
	// whether a buffered read may skip the lock.
	sealed    atomic.Bool
	notify    chan struct{}
	consumers map[*Consumer[T]]struct{}
}

// New creates a session over src. The source is not pulled until the first
// consumer asks for an item, or Start is called. The pump runs on a context
// derived from ctx, so cancelling ctx (or calling Close) stops the pump, while
// cancelling the context passed to an individual consumer does not.
func New[T any](ctx context.Context, src Source[T], opts ...Option) *Session[T] {
	o := &options{logger: slog.Default()}
	for _, opt := range opts {
		opt(o)
	}
	pctx, cancel := context.WithCancel(ctx)
	return &Session[T]{
		source:    src,
		ctx:       pctx,
		cancel:    cancel,
		logger:    o.logger,
		notify:    make(chan struct{}),
		consumers: make(map[*Consumer[T]]struct{}),
	}
}

// NewConsumer registers a consumer positioned at the first item ever
// produced. It fails with ErrSealed once the session has been sealed.
func (s *Session[T]) NewConsumer() (*Consumer[T], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sealed.Load() {
		return nil, ErrSealed
	}
	c := &Consumer[T]{s: s, view: s.items, viewBase: s.base}
	c.pos.Store(int64(s.base))
	s.consumers[c] = struct{}{}
	return c, nil
}

// Start begins pulling from the source. It is safe to call any number of
// times; only the first call has an effect.
func (s *Session[T]) Start() {
	s.startOnce.Do(func() {
		go s.pump()
	})
}

// Seal stops accepting new consumers. From then on, buffered items that every
// registered consumer has read are released.
func (s *Session[T]) Seal() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sealed.Store(true)
	s.releaseLocked()
}

// Close stops the pump. Consumers that have not reached the end receive the
// pump's cancellation error after draining what was buffered.
func (s *Session[T]) Close() {
	s.cancel()
}

// Buffered returns the number of items currently held in the buffer.
func (s *Session[T]) Buffered() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Done reports whether the source has finished.
func (s *Session[T]) Done() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

// Err returns the terminal error of the source once it has finished.
func (s *Session[T]) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Session[T]) pump() {
	s.logger.Debug("stream pump started")
	n := 0
	err := s.source(s.ctx, func(v T) bool {
		s.mu.Lock()
		s.items = append(s.items, v)
		s.broadcastLocked()
		s.mu.Unlock()
		n++
		return s.ctx.Err() == nil
	})
	if err == nil && s.ctx.Err() != nil {
		err = s.ctx.Err()
	}

	s.mu.Lock()
	s.done = true
	s.err = err
	s.broadcastLocked()
	s.mu.Unlock()

	if err != nil {
		s.logger.Debug("stream pump finished with error", "items", n, "error", err)
	} else {
		s.logger.Debug("stream pump finished", "items", n)
	}
	s.cancel()
}

// broadcastLocked wakes every waiting consumer.
func (s *Session[T]) broadcastLocked() {
	close(s.notify)
	s.notify = make(chan struct{})
}

// releaseLocked drops the buffered prefix read by every registered consumer.
// It only runs after Seal, since an unsealed session must be able to replay
// from the start for consumers created later.
func (s *Session[T]) releaseLocked() {
	if !s.sealed.Load() || len(s.items) == 0 {
		return
	}
	low := s.base + len(s.items)
	for c := range s.consumers {
		if pos := int(c.pos.Load()); pos < low {
			low = pos
		}
	}
	n := low - s.base
	if n <= 0 {
		return
	}
	clear(s.items[:n])
	s.items = s.items[n:]
	s.base = low
}

func (s *Session[T]) remove(c *Consumer[T]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.consumers, c)
	s.releaseLocked()
}
