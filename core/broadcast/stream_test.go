package broadcast_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/eventkit/core/broadcast"
)

func TestStream_Next(t *testing.T) {
	t.Parallel()

	t.Run("returns broadcast events", func(t *testing.T) {
		t.Parallel()

		b := broadcast.New[string]()
		defer b.Close()

		stream, err := b.Observe(broadcast.WithBuffer[string](2))
		require.NoError(t, err)
		defer stream.Close()

		ctx := context.Background()
		require.NoError(t, b.Broadcast(ctx, "hello"))

		got, err := stream.Next(ctx)
		require.NoError(t, err)
		assert.Equal(t, "hello", got)
	})

	t.Run("blocks until an event arrives", func(t *testing.T) {
		t.Parallel()

		b := broadcast.New[string]()
		defer b.Close()

		stream, err := b.Observe()
		require.NoError(t, err)
		defer stream.Close()

		ctx := context.Background()

		got := make(chan string, 1)
		go func() {
			s, err := stream.Next(ctx)
			assert.NoError(t, err)
			got <- s
		}()

		// Give the consumer time to park in Next before broadcasting.
		time.Sleep(50 * time.Millisecond)
		require.NoError(t, b.Broadcast(ctx, "late"))

		select {
		case s := <-got:
			assert.Equal(t, "late", s)
		case <-time.After(time.Second):
			t.Fatal("timeout waiting for event")
		}
	})

	t.Run("context cancellation leaves the stream usable", func(t *testing.T) {
		t.Parallel()

		b := broadcast.New[string]()
		defer b.Close()

		stream, err := b.Observe(broadcast.WithBuffer[string](1))
		require.NoError(t, err)
		defer stream.Close()

		shortCtx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		_, err = stream.Next(shortCtx)
		require.ErrorIs(t, err, context.DeadlineExceeded)

		// The timeout did not end the stream.
		ctx := context.Background()
		require.NoError(t, b.Broadcast(ctx, "still here"))

		got, err := stream.Next(ctx)
		require.NoError(t, err)
		assert.Equal(t, "still here", got)
	})

	t.Run("end of sequence is sticky", func(t *testing.T) {
		t.Parallel()

		b := broadcast.New[string]()

		stream, err := b.Observe()
		require.NoError(t, err)

		require.NoError(t, b.Close())

		ctx := context.Background()
		for i := 0; i < 3; i++ {
			_, err := stream.Next(ctx)
			assert.ErrorIs(t, err, broadcast.ErrStreamClosed)
		}
	})

	t.Run("closed stream ignores buffered events", func(t *testing.T) {
		t.Parallel()

		b := broadcast.New[int]()
		defer b.Close()

		stream, err := b.Observe(broadcast.WithBuffer[int](3))
		require.NoError(t, err)

		ctx := context.Background()
		for i := 0; i < 3; i++ {
			require.NoError(t, b.Broadcast(ctx, i))
		}

		// Events sit undelivered in the buffer, but closing wins over them.
		require.NoError(t, stream.Close())

		for i := 0; i < 2; i++ {
			_, err := stream.Next(ctx)
			assert.ErrorIs(t, err, broadcast.ErrStreamClosed)
		}
	})
}

func TestStream_Close(t *testing.T) {
	t.Parallel()

	t.Run("close succeeds once", func(t *testing.T) {
		t.Parallel()

		b := broadcast.New[string]()
		defer b.Close()

		stream, err := b.Observe()
		require.NoError(t, err)

		assert.NoError(t, stream.Close())
	})

	t.Run("double close returns error", func(t *testing.T) {
		t.Parallel()

		b := broadcast.New[string]()
		defer b.Close()

		stream, err := b.Observe()
		require.NoError(t, err)

		require.NoError(t, stream.Close())
		assert.ErrorIs(t, stream.Close(), broadcast.ErrStreamClosed)
	})

	t.Run("close is independent per stream", func(t *testing.T) {
		t.Parallel()

		b := broadcast.New[string]()
		defer b.Close()

		first, err := b.Observe()
		require.NoError(t, err)

		second, err := b.Observe()
		require.NoError(t, err)
		defer second.Close()

		require.NoError(t, first.Close())

		ctx := context.Background()
		require.NoError(t, b.Broadcast(ctx, "for the survivor"))

		got, err := second.Next(ctx)
		require.NoError(t, err)
		assert.Equal(t, "for the survivor", got)
	})

	t.Run("close after broadcaster shutdown", func(t *testing.T) {
		t.Parallel()

		b := broadcast.New[string]()

		stream, err := b.Observe()
		require.NoError(t, err)

		require.NoError(t, b.Close())
		assert.NoError(t, stream.Close())
	})
}

func TestStream_Events(t *testing.T) {
	t.Parallel()

	t.Run("range terminates on broadcaster shutdown", func(t *testing.T) {
		t.Parallel()

		b := broadcast.New[int]()

		stream, err := b.Observe(broadcast.WithBuffer[int](10))
		require.NoError(t, err)

		ctx := context.Background()
		for i := 0; i < 5; i++ {
			require.NoError(t, b.Broadcast(ctx, i))
		}
		require.NoError(t, b.Close())

		var got []int
		for event := range stream.Events() {
			got = append(got, event)
		}
		assert.Equal(t, []int{0, 1, 2, 3, 4}, got)
	})

	t.Run("select on events and done", func(t *testing.T) {
		t.Parallel()

		b := broadcast.New[int]()
		defer b.Close()

		stream, err := b.Observe()
		require.NoError(t, err)

		ctx := context.Background()
		require.NoError(t, b.Broadcast(ctx, 1))

		var got []int
		finished := make(chan struct{})
		go func() {
			defer close(finished)
			for {
				select {
				case event, ok := <-stream.Events():
					if !ok {
						return
					}
					got = append(got, event)
				case <-stream.Done():
					return
				}
			}
		}()

		// Allow the consumer to pick up the first event, then shut the
		// subscription down from the consumer side.
		time.Sleep(100 * time.Millisecond)
		require.NoError(t, stream.Close())

		select {
		case <-finished:
			assert.Equal(t, []int{1}, got)
		case <-time.After(time.Second):
			t.Fatal("consumer loop did not terminate")
		}
	})

	t.Run("done reflects stream closure", func(t *testing.T) {
		t.Parallel()

		b := broadcast.New[int]()
		defer b.Close()

		stream, err := b.Observe()
		require.NoError(t, err)

		select {
		case <-stream.Done():
			t.Fatal("done should not be closed yet")
		default:
		}

		require.NoError(t, stream.Close())

		select {
		case <-stream.Done():
			// Expected
		case <-time.After(time.Second):
			t.Fatal("done should be closed")
		}
	})
}

func TestObservable(t *testing.T) {
	t.Parallel()

	t.Run("broadcaster satisfies observable", func(t *testing.T) {
		t.Parallel()

		b := broadcast.New[string]()
		defer b.Close()

		var obs broadcast.Observable[string] = b

		stream, err := obs.Observe(broadcast.WithFilter(func(s string) bool {
			return s != "skip"
		}))
		require.NoError(t, err)
		defer stream.Close()

		ctx := context.Background()
		require.NoError(t, b.Broadcast(ctx, "skip"))
		require.NoError(t, b.Broadcast(ctx, "keep"))

		got, err := stream.Next(ctx)
		require.NoError(t, err)
		assert.Equal(t, "keep", got)
	})

	t.Run("observable hides producer methods", func(t *testing.T) {
		t.Parallel()

		// A type owning a broadcaster exposes only the observe side.
		type server struct {
			events *broadcast.Broadcaster[int]
		}

		srv := &server{events: broadcast.New[int]()}
		defer srv.events.Close()

		var obs broadcast.Observable[int] = srv.events
		stream, err := obs.Observe()
		require.NoError(t, err)
		defer stream.Close()

		ctx := context.Background()
		require.NoError(t, srv.events.Broadcast(ctx, 42))

		got, err := stream.Next(ctx)
		require.NoError(t, err)
		assert.Equal(t, 42, got)
	})
}
