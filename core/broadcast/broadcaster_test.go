package broadcast_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/eventkit/core/broadcast"
)

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("creates broadcaster with defaults", func(t *testing.T) {
		t.Parallel()

		b := broadcast.New[string]()
		require.NotNil(t, b)
		defer b.Close()

		assert.Equal(t, 0, b.Observers())
	})

	t.Run("creates broadcaster with custom logger", func(t *testing.T) {
		t.Parallel()

		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		b := broadcast.New(broadcast.WithLogger[string](logger))
		require.NotNil(t, b)
		defer b.Close()

		_, err := b.Observe()
		require.NoError(t, err)
	})

	t.Run("creates broadcaster with capacity hint", func(t *testing.T) {
		t.Parallel()

		b := broadcast.New(broadcast.WithCapacityHint[string](32))
		require.NotNil(t, b)
		defer b.Close()

		// Hint only affects allocation; the broadcaster starts empty.
		assert.Equal(t, 0, b.Observers())
	})

	t.Run("ignores nil logger", func(t *testing.T) {
		t.Parallel()

		b := broadcast.New(broadcast.WithLogger[string](nil))
		require.NotNil(t, b)
		defer b.Close()

		err := b.Broadcast(context.Background(), "test")
		require.NoError(t, err)
	})

	t.Run("ignores nil clone func", func(t *testing.T) {
		t.Parallel()

		b := broadcast.New(broadcast.WithCloneFunc[string](nil))
		require.NotNil(t, b)
		defer b.Close()

		err := b.Broadcast(context.Background(), "test")
		require.NoError(t, err)
	})
}

func TestBroadcaster_Observe(t *testing.T) {
	t.Parallel()

	t.Run("default subscription is unbounded and unfiltered", func(t *testing.T) {
		t.Parallel()

		b := broadcast.New[int]()
		defer b.Close()

		stream, err := b.Observe()
		require.NoError(t, err)
		require.NotNil(t, stream)
		defer stream.Close()

		ctx := context.Background()

		// No consumer is pulling, yet broadcasts must not wait.
		for i := 0; i < 100; i++ {
			require.NoError(t, b.Broadcast(ctx, i))
		}

		for i := 0; i < 100; i++ {
			got, err := stream.Next(ctx)
			require.NoError(t, err)
			assert.Equal(t, i, got)
		}
	})

	t.Run("explicit unbounded matches default", func(t *testing.T) {
		t.Parallel()

		b := broadcast.New[int]()
		defer b.Close()

		stream, err := b.Observe(broadcast.Unbounded[int]())
		require.NoError(t, err)
		defer stream.Close()

		ctx := context.Background()
		require.NoError(t, b.Broadcast(ctx, 42))

		got, err := stream.Next(ctx)
		require.NoError(t, err)
		assert.Equal(t, 42, got)
	})

	t.Run("bounded subscription with valid buffer", func(t *testing.T) {
		t.Parallel()

		b := broadcast.New[string]()
		defer b.Close()

		stream, err := b.Observe(broadcast.WithBuffer[string](4))
		require.NoError(t, err)
		require.NotNil(t, stream)
		defer stream.Close()

		assert.Equal(t, 1, b.Observers())
	})

	t.Run("rejects zero buffer size", func(t *testing.T) {
		t.Parallel()

		b := broadcast.New[string]()
		defer b.Close()

		stream, err := b.Observe(broadcast.WithBuffer[string](0))
		assert.Nil(t, stream)
		assert.ErrorIs(t, err, broadcast.ErrInvalidBufferSize)

		// The failed observe must not leave a half-registered subscription.
		assert.Equal(t, 0, b.Observers())
	})

	t.Run("rejects negative buffer size", func(t *testing.T) {
		t.Parallel()

		b := broadcast.New[string]()
		defer b.Close()

		stream, err := b.Observe(broadcast.WithBuffer[string](-3))
		assert.Nil(t, stream)
		assert.ErrorIs(t, err, broadcast.ErrInvalidBufferSize)
	})

	t.Run("fails after broadcaster close", func(t *testing.T) {
		t.Parallel()

		b := broadcast.New[string]()
		require.NoError(t, b.Close())

		stream, err := b.Observe()
		assert.Nil(t, stream)
		assert.ErrorIs(t, err, broadcast.ErrClosed)
	})

	t.Run("last filter wins", func(t *testing.T) {
		t.Parallel()

		b := broadcast.New[int]()
		defer b.Close()

		stream, err := b.Observe(
			broadcast.WithFilter(func(int) bool { return false }),
			broadcast.WithFilter(func(int) bool { return true }),
		)
		require.NoError(t, err)
		defer stream.Close()

		ctx := context.Background()
		require.NoError(t, b.Broadcast(ctx, 7))

		got, err := stream.Next(ctx)
		require.NoError(t, err)
		assert.Equal(t, 7, got)
	})

	t.Run("context cancellation closes the stream", func(t *testing.T) {
		t.Parallel()

		b := broadcast.New[string]()
		defer b.Close()

		ctx, cancel := context.WithCancel(context.Background())
		stream, err := b.Observe(broadcast.WithContext[string](ctx))
		require.NoError(t, err)

		cancel()

		select {
		case <-stream.Done():
			// Expected
		case <-time.After(time.Second):
			t.Fatal("timeout waiting for stream to close")
		}

		_, err = stream.Next(context.Background())
		assert.ErrorIs(t, err, broadcast.ErrStreamClosed)
	})
}

func TestBroadcaster_Broadcast_Ordering(t *testing.T) {
	t.Parallel()

	t.Run("single observer receives events in broadcast order", func(t *testing.T) {
		t.Parallel()

		b := broadcast.New[int]()
		defer b.Close()

		stream, err := b.Observe(broadcast.WithBuffer[int](10))
		require.NoError(t, err)
		defer stream.Close()

		ctx := context.Background()
		for i := 0; i < 10; i++ {
			require.NoError(t, b.Broadcast(ctx, i))
		}

		for i := 0; i < 10; i++ {
			got, err := stream.Next(ctx)
			require.NoError(t, err)
			assert.Equal(t, i, got, "event %d out of order", i)
		}
	})

	t.Run("observers see events in the same relative order", func(t *testing.T) {
		t.Parallel()

		b := broadcast.New[int]()
		defer b.Close()

		first, err := b.Observe()
		require.NoError(t, err)
		defer first.Close()

		second, err := b.Observe()
		require.NoError(t, err)
		defer second.Close()

		ctx := context.Background()
		for i := 0; i < 20; i++ {
			require.NoError(t, b.Broadcast(ctx, i))
		}

		for i := 0; i < 20; i++ {
			got1, err := first.Next(ctx)
			require.NoError(t, err)
			got2, err := second.Next(ctx)
			require.NoError(t, err)
			assert.Equal(t, i, got1)
			assert.Equal(t, i, got2)
		}
	})

	t.Run("delivery follows registration order", func(t *testing.T) {
		t.Parallel()

		b := broadcast.New[string]()
		defer b.Close()

		// First observer's buffer is filled so the next broadcast stalls on
		// it before ever reaching the second observer.
		first, err := b.Observe(broadcast.WithBuffer[string](1))
		require.NoError(t, err)
		defer first.Close()

		ctx := context.Background()
		require.NoError(t, b.Broadcast(ctx, "fill"))

		second, err := b.Observe(broadcast.WithBuffer[string](1))
		require.NoError(t, err)
		defer second.Close()

		done := make(chan struct{})
		go func() {
			assert.NoError(t, b.Broadcast(ctx, "next"))
			close(done)
		}()

		// The broadcast is stalled on the first observer, so the second must
		// not have received anything yet.
		select {
		case <-done:
			t.Fatal("broadcast should be blocked on the first observer")
		case <-time.After(100 * time.Millisecond):
			// Expected
		}

		shortCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
		defer cancel()
		_, err = second.Next(shortCtx)
		assert.ErrorIs(t, err, context.DeadlineExceeded)

		// Draining the first observer lets the broadcast proceed to the
		// second.
		got, err := first.Next(ctx)
		require.NoError(t, err)
		assert.Equal(t, "fill", got)

		select {
		case <-done:
			// Expected
		case <-time.After(time.Second):
			t.Fatal("broadcast did not complete after draining")
		}

		got, err = second.Next(ctx)
		require.NoError(t, err)
		assert.Equal(t, "next", got)
	})
}

func TestBroadcaster_Broadcast_Backpressure(t *testing.T) {
	t.Parallel()

	t.Run("broadcast waits when bounded buffer is full", func(t *testing.T) {
		t.Parallel()

		b := broadcast.New[int]()
		defer b.Close()

		stream, err := b.Observe(broadcast.WithBuffer[int](2))
		require.NoError(t, err)
		defer stream.Close()

		ctx := context.Background()

		// Two events fit in the buffer without a consumer.
		require.NoError(t, b.Broadcast(ctx, 1))
		require.NoError(t, b.Broadcast(ctx, 2))

		// The third must wait until the observer pulls one out.
		done := make(chan struct{})
		go func() {
			assert.NoError(t, b.Broadcast(ctx, 3))
			close(done)
		}()

		select {
		case <-done:
			t.Fatal("broadcast should be blocked on full buffer")
		case <-time.After(100 * time.Millisecond):
			// Expected
		}

		got, err := stream.Next(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, got)

		select {
		case <-done:
			// Expected
		case <-time.After(time.Second):
			t.Fatal("broadcast should complete after a pull")
		}

		got, err = stream.Next(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, got)

		got, err = stream.Next(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, got)
	})

	t.Run("closing the blocking stream releases the broadcast", func(t *testing.T) {
		t.Parallel()

		b := broadcast.New[int]()
		defer b.Close()

		stream, err := b.Observe(broadcast.WithBuffer[int](1))
		require.NoError(t, err)

		ctx := context.Background()
		require.NoError(t, b.Broadcast(ctx, 1))

		done := make(chan error, 1)
		go func() {
			done <- b.Broadcast(ctx, 2)
		}()

		select {
		case <-done:
			t.Fatal("broadcast should be blocked on full buffer")
		case <-time.After(100 * time.Millisecond):
			// Expected
		}

		// Closure of the blocking subscription is pruning, not an error.
		require.NoError(t, stream.Close())

		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(time.Second):
			t.Fatal("broadcast should complete after stream close")
		}

		assert.Equal(t, 0, b.Observers())
	})

	t.Run("context cancellation aborts a blocked broadcast", func(t *testing.T) {
		t.Parallel()

		b := broadcast.New[int]()
		defer b.Close()

		stream, err := b.Observe(broadcast.WithBuffer[int](1))
		require.NoError(t, err)
		defer stream.Close()

		ctx := context.Background()
		require.NoError(t, b.Broadcast(ctx, 1))

		timeoutCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
		defer cancel()

		err = b.Broadcast(timeoutCtx, 2)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("aborted broadcast keeps later observers registered", func(t *testing.T) {
		t.Parallel()

		b := broadcast.New[string]()
		defer b.Close()

		first, err := b.Observe(broadcast.WithBuffer[string](1))
		require.NoError(t, err)
		defer first.Close()

		ctx := context.Background()
		require.NoError(t, b.Broadcast(ctx, "fill"))

		second, err := b.Observe(broadcast.WithBuffer[string](1))
		require.NoError(t, err)
		defer second.Close()

		timeoutCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
		defer cancel()
		err = b.Broadcast(timeoutCtx, "lost")
		require.ErrorIs(t, err, context.DeadlineExceeded)

		// The aborted event never reached the second observer, but the
		// subscription survives and later broadcasts reach it.
		assert.Equal(t, 2, b.Observers())

		got, err := first.Next(ctx)
		require.NoError(t, err)
		assert.Equal(t, "fill", got)

		require.NoError(t, b.Broadcast(ctx, "after"))

		got, err = first.Next(ctx)
		require.NoError(t, err)
		assert.Equal(t, "after", got)

		got, err = second.Next(ctx)
		require.NoError(t, err)
		assert.Equal(t, "after", got)
	})

	t.Run("unbounded subscription never delays broadcast", func(t *testing.T) {
		t.Parallel()

		b := broadcast.New[int]()
		defer b.Close()

		stream, err := b.Observe()
		require.NoError(t, err)
		defer stream.Close()

		ctx := context.Background()

		// A thousand broadcasts with no consumer must all complete.
		for i := 0; i < 1000; i++ {
			require.NoError(t, b.Broadcast(ctx, i))
		}

		for i := 0; i < 1000; i++ {
			got, err := stream.Next(ctx)
			require.NoError(t, err)
			require.Equal(t, i, got)
		}
	})
}

func TestBroadcaster_Broadcast_Filters(t *testing.T) {
	t.Parallel()

	type connState int
	const (
		connOpen connState = iota
		connClosed
		connError
	)

	t.Run("filtered observer receives matching events only", func(t *testing.T) {
		t.Parallel()

		b := broadcast.New[connState]()

		all, err := b.Observe(broadcast.WithBuffer[connState](2))
		require.NoError(t, err)

		closedOnly, err := b.Observe(broadcast.WithFilter(func(s connState) bool {
			return s == connClosed
		}))
		require.NoError(t, err)

		ctx := context.Background()

		var wg sync.WaitGroup
		wg.Add(2)

		var allGot, closedGot []connState
		go func() {
			defer wg.Done()
			for {
				s, err := all.Next(ctx)
				if err != nil {
					return
				}
				allGot = append(allGot, s)
			}
		}()
		go func() {
			defer wg.Done()
			for {
				s, err := closedOnly.Next(ctx)
				if err != nil {
					return
				}
				closedGot = append(closedGot, s)
			}
		}()

		require.NoError(t, b.Broadcast(ctx, connOpen))
		require.NoError(t, b.Broadcast(ctx, connClosed))
		require.NoError(t, b.Broadcast(ctx, connError))
		require.NoError(t, b.Close())

		wg.Wait()

		assert.Equal(t, []connState{connOpen, connClosed, connError}, allGot)
		assert.Equal(t, []connState{connClosed}, closedGot)
	})

	t.Run("filtered events do not consume buffer space", func(t *testing.T) {
		t.Parallel()

		b := broadcast.New[int]()
		defer b.Close()

		evens, err := b.Observe(
			broadcast.WithBuffer[int](1),
			broadcast.WithFilter(func(n int) bool { return n%2 == 0 }),
		)
		require.NoError(t, err)
		defer evens.Close()

		ctx := context.Background()

		// Buffer holds one event; odd events are skipped without waiting
		// even though the buffer is already full.
		require.NoError(t, b.Broadcast(ctx, 0))
		require.NoError(t, b.Broadcast(ctx, 1))
		require.NoError(t, b.Broadcast(ctx, 3))
		require.NoError(t, b.Broadcast(ctx, 5))

		got, err := evens.Next(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, got)
	})

	t.Run("all observers filtered out still succeeds", func(t *testing.T) {
		t.Parallel()

		b := broadcast.New[int]()
		defer b.Close()

		stream, err := b.Observe(broadcast.WithFilter(func(int) bool { return false }))
		require.NoError(t, err)
		defer stream.Close()

		err = b.Broadcast(context.Background(), 1)
		assert.NoError(t, err)

		stats := b.Stats()
		assert.Equal(t, int64(1), stats.Filtered)
		assert.Equal(t, int64(0), stats.Delivered)
	})
}

func TestBroadcaster_Broadcast_Pruning(t *testing.T) {
	t.Parallel()

	t.Run("closed streams are dropped during broadcast", func(t *testing.T) {
		t.Parallel()

		b := broadcast.New[string]()
		defer b.Close()

		first, err := b.Observe()
		require.NoError(t, err)

		second, err := b.Observe()
		require.NoError(t, err)
		defer second.Close()

		require.NoError(t, first.Close())

		// Broadcasting over a closed subscription is pruning, not an error.
		ctx := context.Background()
		require.NoError(t, b.Broadcast(ctx, "still flowing"))

		got, err := second.Next(ctx)
		require.NoError(t, err)
		assert.Equal(t, "still flowing", got)

		assert.Equal(t, 1, b.Observers())
		assert.Equal(t, int64(1), b.Stats().Pruned)
	})

	t.Run("broadcast to zero observers succeeds", func(t *testing.T) {
		t.Parallel()

		b := broadcast.New[string]()
		defer b.Close()

		err := b.Broadcast(context.Background(), "into the void")
		assert.NoError(t, err)
	})

	t.Run("pruning preserves registration order of survivors", func(t *testing.T) {
		t.Parallel()

		b := broadcast.New[int]()
		defer b.Close()

		streams := make([]*broadcast.Stream[int], 5)
		for i := range streams {
			s, err := b.Observe()
			require.NoError(t, err)
			streams[i] = s
		}

		// Drop the middle ones; the outer two keep their relative order.
		require.NoError(t, streams[1].Close())
		require.NoError(t, streams[2].Close())
		require.NoError(t, streams[3].Close())

		assert.Equal(t, 2, b.Observers())

		ctx := context.Background()
		require.NoError(t, b.Broadcast(ctx, 99))

		for _, i := range []int{0, 4} {
			got, err := streams[i].Next(ctx)
			require.NoError(t, err)
			assert.Equal(t, 99, got)
		}
	})
}

func TestBroadcaster_Close(t *testing.T) {
	t.Parallel()

	t.Run("close succeeds once", func(t *testing.T) {
		t.Parallel()

		b := broadcast.New[string]()
		assert.NoError(t, b.Close())
	})

	t.Run("double close returns error", func(t *testing.T) {
		t.Parallel()

		b := broadcast.New[string]()
		require.NoError(t, b.Close())

		err := b.Close()
		assert.ErrorIs(t, err, broadcast.ErrClosed)
	})

	t.Run("broadcast after close is a no-op", func(t *testing.T) {
		t.Parallel()

		b := broadcast.New[string]()

		stream, err := b.Observe()
		require.NoError(t, err)

		require.NoError(t, b.Close())

		// No error, and nothing is delivered.
		err = b.Broadcast(context.Background(), "ghost")
		assert.NoError(t, err)

		_, err = stream.Next(context.Background())
		assert.ErrorIs(t, err, broadcast.ErrStreamClosed)

		assert.Equal(t, int64(0), b.Stats().Broadcasts)
	})

	t.Run("buffered events drain before end of sequence", func(t *testing.T) {
		t.Parallel()

		b := broadcast.New[int]()

		stream, err := b.Observe(broadcast.WithBuffer[int](5))
		require.NoError(t, err)

		ctx := context.Background()
		for i := 0; i < 3; i++ {
			require.NoError(t, b.Broadcast(ctx, i))
		}

		require.NoError(t, b.Close())

		for i := 0; i < 3; i++ {
			got, err := stream.Next(ctx)
			require.NoError(t, err)
			assert.Equal(t, i, got)
		}

		_, err = stream.Next(ctx)
		assert.ErrorIs(t, err, broadcast.ErrStreamClosed)
	})

	t.Run("unbounded streams drain before end of sequence", func(t *testing.T) {
		t.Parallel()

		b := broadcast.New[int]()

		stream, err := b.Observe()
		require.NoError(t, err)

		ctx := context.Background()
		for i := 0; i < 50; i++ {
			require.NoError(t, b.Broadcast(ctx, i))
		}

		require.NoError(t, b.Close())

		for i := 0; i < 50; i++ {
			got, err := stream.Next(ctx)
			require.NoError(t, err)
			require.Equal(t, i, got)
		}

		_, err = stream.Next(ctx)
		assert.ErrorIs(t, err, broadcast.ErrStreamClosed)
	})

	t.Run("concurrent close is safe", func(t *testing.T) {
		t.Parallel()

		b := broadcast.New[string]()

		var wg sync.WaitGroup
		numClosers := 10
		wg.Add(numClosers)

		errs := make([]error, numClosers)
		for i := 0; i < numClosers; i++ {
			go func(idx int) {
				defer wg.Done()
				errs[idx] = b.Close()
			}(i)
		}

		wg.Wait()

		successes := 0
		for _, err := range errs {
			if err == nil {
				successes++
			} else {
				assert.ErrorIs(t, err, broadcast.ErrClosed)
			}
		}
		assert.Equal(t, 1, successes, "exactly one close should succeed")
	})
}

func TestBroadcaster_Observers(t *testing.T) {
	t.Parallel()

	t.Run("counts active subscriptions", func(t *testing.T) {
		t.Parallel()

		b := broadcast.New[string]()
		defer b.Close()

		assert.Equal(t, 0, b.Observers())

		first, err := b.Observe()
		require.NoError(t, err)
		assert.Equal(t, 1, b.Observers())

		second, err := b.Observe(broadcast.WithBuffer[string](2))
		require.NoError(t, err)
		assert.Equal(t, 2, b.Observers())

		require.NoError(t, first.Close())
		assert.Equal(t, 1, b.Observers())

		require.NoError(t, second.Close())
		assert.Equal(t, 0, b.Observers())
	})

	t.Run("returns zero after close", func(t *testing.T) {
		t.Parallel()

		b := broadcast.New[string]()

		_, err := b.Observe()
		require.NoError(t, err)

		require.NoError(t, b.Close())
		assert.Equal(t, 0, b.Observers())
	})
}

func TestBroadcaster_CloneFunc(t *testing.T) {
	t.Parallel()

	type payload struct {
		Tags []string
	}

	t.Run("each observer receives its own copy", func(t *testing.T) {
		t.Parallel()

		b := broadcast.New(broadcast.WithCloneFunc(func(p payload) payload {
			tags := make([]string, len(p.Tags))
			copy(tags, p.Tags)
			return payload{Tags: tags}
		}))
		defer b.Close()

		first, err := b.Observe(broadcast.WithBuffer[payload](1))
		require.NoError(t, err)
		defer first.Close()

		second, err := b.Observe(broadcast.WithBuffer[payload](1))
		require.NoError(t, err)
		defer second.Close()

		ctx := context.Background()
		require.NoError(t, b.Broadcast(ctx, payload{Tags: []string{"original"}}))

		got1, err := first.Next(ctx)
		require.NoError(t, err)
		got1.Tags[0] = "mutated"

		got2, err := second.Next(ctx)
		require.NoError(t, err)
		assert.Equal(t, "original", got2.Tags[0], "observers must not share backing data")
	})
}

func TestBroadcaster_Stats(t *testing.T) {
	t.Parallel()

	t.Run("tracks broadcast and delivery counts", func(t *testing.T) {
		t.Parallel()

		b := broadcast.New[int]()
		defer b.Close()

		first, err := b.Observe()
		require.NoError(t, err)
		defer first.Close()

		second, err := b.Observe(broadcast.WithFilter(func(n int) bool { return n > 10 }))
		require.NoError(t, err)
		defer second.Close()

		ctx := context.Background()
		require.NoError(t, b.Broadcast(ctx, 5))
		require.NoError(t, b.Broadcast(ctx, 20))

		stats := b.Stats()
		assert.Equal(t, 2, stats.Observers)
		assert.Equal(t, int64(2), stats.Broadcasts)
		assert.Equal(t, int64(3), stats.Delivered)
		assert.Equal(t, int64(1), stats.Filtered)
		assert.False(t, stats.Closed)
	})

	t.Run("reports closed state", func(t *testing.T) {
		t.Parallel()

		b := broadcast.New[int]()
		require.NoError(t, b.Close())

		stats := b.Stats()
		assert.True(t, stats.Closed)
		assert.Equal(t, 0, stats.Observers)
	})
}

func TestBroadcaster_Healthcheck(t *testing.T) {
	t.Parallel()

	t.Run("healthy while open", func(t *testing.T) {
		t.Parallel()

		b := broadcast.New[string]()
		defer b.Close()

		assert.NoError(t, b.Healthcheck(context.Background()))
	})

	t.Run("fails after close", func(t *testing.T) {
		t.Parallel()

		b := broadcast.New[string]()
		require.NoError(t, b.Close())

		err := b.Healthcheck(context.Background())
		assert.ErrorIs(t, err, broadcast.ErrHealthcheckFailed)
		assert.ErrorIs(t, err, broadcast.ErrClosed)
	})

	t.Run("respects canceled context", func(t *testing.T) {
		t.Parallel()

		b := broadcast.New[string]()
		defer b.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := b.Healthcheck(ctx)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestBroadcaster_Concurrency(t *testing.T) {
	t.Parallel()

	t.Run("concurrent broadcasters and observers", func(t *testing.T) {
		t.Parallel()

		b := broadcast.New[int]()
		defer b.Close()

		numObservers := 5
		numProducers := 4
		eventsPerProducer := 50
		total := numProducers * eventsPerProducer

		streams := make([]*broadcast.Stream[int], numObservers)
		for i := range streams {
			s, err := b.Observe()
			require.NoError(t, err)
			streams[i] = s
		}

		ctx := context.Background()

		var consumerWg sync.WaitGroup
		consumerWg.Add(numObservers)
		counts := make([]int, numObservers)
		for i, s := range streams {
			go func(idx int, s *broadcast.Stream[int]) {
				defer consumerWg.Done()
				for j := 0; j < total; j++ {
					if _, err := s.Next(ctx); err != nil {
						return
					}
					counts[idx]++
				}
			}(i, s)
		}

		var producerWg sync.WaitGroup
		producerWg.Add(numProducers)
		for i := 0; i < numProducers; i++ {
			go func() {
				defer producerWg.Done()
				for j := 0; j < eventsPerProducer; j++ {
					assert.NoError(t, b.Broadcast(ctx, j))
				}
			}()
		}

		producerWg.Wait()
		consumerWg.Wait()

		for i, count := range counts {
			assert.Equal(t, total, count, "observer %d missed events", i)
		}
	})

	t.Run("observe during broadcast is safe", func(t *testing.T) {
		t.Parallel()

		b := broadcast.New[int]()
		defer b.Close()

		ctx := context.Background()

		var wg sync.WaitGroup
		wg.Add(2)

		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				assert.NoError(t, b.Broadcast(ctx, i))
			}
		}()

		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				s, err := b.Observe()
				assert.NoError(t, err)
				assert.NoError(t, s.Close())
			}
		}()

		wg.Wait()
	})
}
