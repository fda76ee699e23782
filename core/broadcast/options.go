package broadcast

import (
	"context"
	"log/slog"
)

// Option configures a Broadcaster during construction.
type Option[E any] func(*Broadcaster[E])

// WithLogger sets a custom logger for broadcaster operations.
// By default logs are discarded.
func WithLogger[E any](logger *slog.Logger) Option[E] {
	return func(b *Broadcaster[E]) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithCapacityHint pre-allocates internal storage for the expected number of
// observers. It only affects allocation behavior, not correctness; the
// broadcaster grows past the hint as needed.
func WithCapacityHint[E any](n int) Option[E] {
	return func(b *Broadcaster[E]) {
		if n > 0 {
			b.subs = make([]*subscription[E], 0, n)
		}
	}
}

// WithCloneFunc sets the function used to produce each observer's copy of a
// broadcast event. Without it events are copied by plain assignment, so
// observers of events containing pointers, slices, or maps share the
// referenced data. Provide a clone function when observers mutate events.
func WithCloneFunc[E any](fn func(E) E) Option[E] {
	return func(b *Broadcaster[E]) {
		if fn != nil {
			b.clone = fn
		}
	}
}

// observeConfig collects the per-subscription settings applied by
// ObserveOption values. The zero value describes the default subscription:
// unbounded delivery and no filter.
type observeConfig[E any] struct {
	bounded bool
	buffer  int
	filter  func(E) bool
	ctx     context.Context
}

// ObserveOption configures a single subscription created by Observe.
type ObserveOption[E any] func(*observeConfig[E])

// WithBuffer requests bounded delivery through a channel holding up to size
// events. When the buffer is full, Broadcast waits for the observer to drain
// it before completing. Sizes below one are rejected by Observe with
// ErrInvalidBufferSize.
//
// The type parameter usually cannot be inferred and must be spelled out:
//
//	stream, err := b.Observe(broadcast.WithBuffer[Order](16))
func WithBuffer[E any](size int) ObserveOption[E] {
	return func(c *observeConfig[E]) {
		c.bounded = true
		c.buffer = size
	}
}

// Unbounded requests unbounded delivery: Broadcast never waits on this
// subscription, and pending events queue in memory until the observer reads
// them. This is the default when no backend option is given.
func Unbounded[E any]() ObserveOption[E] {
	return func(c *observeConfig[E]) {
		c.bounded = false
		c.buffer = 0
	}
}

// WithFilter restricts the subscription to events for which fn returns true.
// Filtered-out events are skipped for this observer without consuming buffer
// space. When given multiple times, the last filter wins.
func WithFilter[E any](fn func(E) bool) ObserveOption[E] {
	return func(c *observeConfig[E]) {
		c.filter = fn
	}
}

// WithContext ties the subscription's lifetime to ctx: when ctx is canceled
// the stream is closed as if Close had been called on it.
func WithContext[E any](ctx context.Context) ObserveOption[E] {
	return func(c *observeConfig[E]) {
		c.ctx = ctx
	}
}
