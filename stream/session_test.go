package stream

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingSource wraps a slice source and records how often the session
// invokes it.
type countingSource struct {
	calls atomic.Int32
	items []int
	err   error
}

func (c *countingSource) source() Source[int] {
	inner := FromSlice(c.items, c.err)
	return func(ctx context.Context, yield func(int) bool) error {
		c.calls.Add(1)
		return inner(ctx, yield)
	}
}

func drain(t *testing.T, c *Consumer[int]) ([]int, error) {
	t.Helper()
	var out []int
	for {
		v, err := c.Next(context.Background())
		if err != nil {
			if err == io.EOF {
				return out, nil
			}
			return out, err
		}
		out = append(out, v)
	}
}

func TestSessionFanOut(t *testing.T) {
	src := &countingSource{items: []int{1, 2, 3, 4, 5}}
	s := New(context.Background(), src.source())

	const readers = 8
	results := make([][]int, readers)
	var wg sync.WaitGroup
	for i := range readers {
		c, err := s.NewConsumer()
		require.NoError(t, err)
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := drain(t, c)
			assert.NoError(t, err)
			results[i] = out
		}()
	}
	wg.Wait()

	for _, r := range results {
		assert.Equal(t, []int{1, 2, 3, 4, 5}, r)
	}
	assert.Equal(t, int32(1), src.calls.Load())
}

func TestSessionLateConsumerReplays(t *testing.T) {
	src := &countingSource{items: []int{1, 2, 3}}
	s := New(context.Background(), src.source())

	first, err := s.NewConsumer()
	require.NoError(t, err)
	out, err := drain(t, first)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, out)

	late, err := s.NewConsumer()
	require.NoError(t, err)
	out, err = drain(t, late)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, out)

	assert.Equal(t, int32(1), src.calls.Load())
}

func TestSessionPartialDrain(t *testing.T) {
	src := &countingSource{items: []int{1, 2, 3, 4}}
	s := New(context.Background(), src.source())

	a, _ := s.NewConsumer()
	b, _ := s.NewConsumer()

	v, err := a.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, v)
	a.Close()

	out, err := drain(t, b)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4}, out)

	_, err = a.Next(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
}

func TestSessionErrorBroadcast(t *testing.T) {
	boom := errors.New("backend failed")
	src := &countingSource{items: []int{1, 2}, err: boom}
	s := New(context.Background(), src.source())

	for range 3 {
		c, err := s.NewConsumer()
		require.NoError(t, err)
		out, err := drain(t, c)
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, []int{1, 2}, out)
	}
	assert.ErrorIs(t, s.Err(), boom)
	assert.True(t, s.Done())
}

func TestSessionConsumerCancellationIsLocal(t *testing.T) {
	ch := make(chan int)
	s := New(context.Background(), FromChannel(ch))

	a, _ := s.NewConsumer()
	b, _ := s.NewConsumer()

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		_, err := a.Next(ctx)
		errc <- err
	}()
	cancel()
	assert.ErrorIs(t, <-errc, context.Canceled)

	go func() {
		ch <- 7
		close(ch)
	}()
	out, err := drain(t, b)
	require.NoError(t, err)
	assert.Equal(t, []int{7}, out)

	// The cancelled consumer can still read after its wait was abandoned.
	out, err = drain(t, a)
	require.NoError(t, err)
	assert.Equal(t, []int{7}, out)
}

func TestSessionNoBackendCallWithoutConsumers(t *testing.T) {
	src := &countingSource{items: []int{1}}
	s := New(context.Background(), src.source())
	_, err := s.NewConsumer()
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, int32(0), src.calls.Load())
	assert.False(t, s.Done())
}

func TestSessionSeal(t *testing.T) {
	t.Run("rejects new consumers", func(t *testing.T) {
		s := New(context.Background(), FromSlice([]int{1}, nil))
		s.Seal()
		_, err := s.NewConsumer()
		assert.ErrorIs(t, err, ErrSealed)
	})

	t.Run("releases items read by every consumer", func(t *testing.T) {
		s := New(context.Background(), FromSlice([]int{1, 2, 3, 4}, nil))
		a, _ := s.NewConsumer()
		b, _ := s.NewConsumer()

		out, err := drain(t, a)
		require.NoError(t, err)
		require.Len(t, out, 4)
		assert.Equal(t, 4, s.Buffered(), "unsealed session keeps everything")

		s.Seal()
		assert.Equal(t, 4, s.Buffered(), "b has not read anything yet")

		_, err = b.Next(context.Background())
		require.NoError(t, err)
		_, err = b.Next(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 2, s.Buffered())

		b.Close()
		assert.Equal(t, 0, s.Buffered())
	})
}

func TestSessionClose(t *testing.T) {
	ch := make(chan int)
	s := New(context.Background(), FromChannel(ch))
	c, _ := s.NewConsumer()
	s.Start()
	s.Close()

	_, err := drain(t, c)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConsumerAll(t *testing.T) {
	t.Run("clean end", func(t *testing.T) {
		s := New(context.Background(), FromSlice([]int{1, 2, 3}, nil))
		c, _ := s.NewConsumer()
		var got []int
		for v, err := range c.All(context.Background()) {
			require.NoError(t, err)
			got = append(got, v)
		}
		assert.Equal(t, []int{1, 2, 3}, got)
	})

	t.Run("error is the final element", func(t *testing.T) {
		boom := errors.New("boom")
		s := New(context.Background(), FromSlice([]int{1}, boom))
		c, _ := s.NewConsumer()
		var errs []error
		for _, err := range c.All(context.Background()) {
			errs = append(errs, err)
		}
		require.Len(t, errs, 2)
		assert.NoError(t, errs[0])
		assert.ErrorIs(t, errs[1], boom)
	})

	t.Run("early break closes consumer", func(t *testing.T) {
		s := New(context.Background(), FromSlice([]int{1, 2, 3}, nil))
		c, _ := s.NewConsumer()
		for range c.All(context.Background()) {
			break
		}
		_, err := c.Next(context.Background())
		assert.ErrorIs(t, err, ErrClosed)
	})
}

func TestFromSeq(t *testing.T) {
	boom := errors.New("boom")
	seq := func(yield func(int, error) bool) {
		if !yield(1, nil) {
			return
		}
		yield(0, boom)
	}
	s := New(context.Background(), FromSeq(seq))
	c, _ := s.NewConsumer()
	out, err := drain(t, c)
	assert.Equal(t, []int{1}, out)
	assert.ErrorIs(t, err, boom)
}

func TestBufferedReadsSkipLock(t *testing.T) {
	s := New(context.Background(), FromSlice([]int{1, 2, 3}, nil))
	first, _ := s.NewConsumer()
	out, err := drain(t, first)
	require.NoError(t, err)
	require.Equal(t, []int{1, 2, 3}, out)

	late, err := s.NewConsumer()
	require.NoError(t, err)

	s.mu.Lock()
	got := make(chan []int, 1)
	go func() {
		var vs []int
		for range 3 {
			v, err := late.Next(context.Background())
			if err != nil {
				break
			}
			vs = append(vs, v)
		}
		got <- vs
	}()

	select {
	case vs := <-got:
		assert.Equal(t, []int{1, 2, 3}, vs)
	case <-time.After(time.Second):
		t.Fatal("reading buffered items blocked on the session lock")
	}
	s.mu.Unlock()

	_, err = late.Next(context.Background())
	assert.ErrorIs(t, err, io.EOF)
}
