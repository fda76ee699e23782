package broadcast

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
)

// subscription pairs the sending endpoint of one observer's channel with
// that observer's filter. The done channel is closed by the Stream when the
// consumer releases it; the broadcaster treats that as the signal to prune
// the subscription on its next pass.
type subscription[E any] struct {
	ch     chan E
	done   chan struct{}
	filter func(E) bool
}

// released reports whether the consumer has closed its stream.
func (s *subscription[E]) released() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// Broadcaster delivers each broadcast event to every active subscription in
// the order the subscriptions were registered. It is safe for concurrent use
// by multiple goroutines.
//
// A Broadcaster is typically embedded in the type that produces the events,
// which exposes only the Observable side to consumers:
//
//	type Server struct {
//		events *broadcast.Broadcaster[Event]
//	}
//
//	func (s *Server) Events() broadcast.Observable[Event] {
//		return s.events
//	}
type Broadcaster[E any] struct {
	mu     sync.Mutex
	subs   []*subscription[E]
	closed bool

	clone  func(E) E
	logger *slog.Logger

	broadcasts atomic.Int64
	delivered  atomic.Int64
	filtered   atomic.Int64
	pruned     atomic.Int64
}

// New creates a broadcaster for events of type E.
func New[E any](opts ...Option[E]) *Broadcaster[E] {
	b := &Broadcaster[E]{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// Observe registers a new subscription and returns its stream. With no
// options the subscription is unbounded and unfiltered. It returns ErrClosed
// after the broadcaster has been closed, and ErrInvalidBufferSize when
// WithBuffer was given a size below one.
func (b *Broadcaster[E]) Observe(opts ...ObserveOption[E]) (*Stream[E], error) {
	var cfg observeConfig[E]
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.bounded && cfg.buffer < 1 {
		return nil, ErrInvalidBufferSize
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrClosed
	}

	sub := &subscription[E]{
		done:   make(chan struct{}),
		filter: cfg.filter,
	}

	var stream *Stream[E]
	if cfg.bounded {
		sub.ch = make(chan E, cfg.buffer)
		stream = newStream(sub.ch, sub.done)
	} else {
		sub.ch = make(chan E)
		out := make(chan E)
		go pump(sub.ch, out, sub.done)
		stream = newStream(out, sub.done)
	}

	if cfg.ctx != nil {
		context.AfterFunc(cfg.ctx, func() { _ = stream.Close() })
	}

	b.subs = append(b.subs, sub)

	b.logger.Debug("observer registered",
		slog.Int("observers", len(b.subs)),
		slog.Bool("bounded", cfg.bounded),
		slog.Int("buffer", cfg.buffer))

	return stream, nil
}

// Broadcast delivers event to every active subscription in registration
// order. Subscriptions whose stream has been closed are dropped without
// error, and subscriptions whose filter rejects the event are skipped. A
// bounded subscription with a full buffer makes Broadcast wait until the
// observer drains it, closes its stream, or ctx is canceled; unbounded
// subscriptions never delay delivery.
//
// Broadcasting after Close is a no-op returning nil, so producers do not
// need to coordinate their shutdown with the broadcaster's. On cancellation
// Broadcast returns ctx.Err(); subscriptions not yet reached do not receive
// the event, but remain registered.
func (b *Broadcaster[E]) Broadcast(ctx context.Context, event E) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}

	b.broadcasts.Add(1)

	// Deliver and compact in one pass: live subscriptions keep their
	// registration order, released ones are dropped in place.
	kept := b.subs[:0]
	var pruned int
	for i, sub := range b.subs {
		if sub.released() {
			pruned++
			continue
		}

		if sub.filter != nil && !sub.filter(event) {
			b.filtered.Add(1)
			kept = append(kept, sub)
			continue
		}

		ev := event
		if b.clone != nil {
			ev = b.clone(event)
		}

		select {
		case sub.ch <- ev:
			b.delivered.Add(1)
			kept = append(kept, sub)
		case <-sub.done:
			pruned++
		case <-ctx.Done():
			kept = append(kept, sub)
			kept = append(kept, b.subs[i+1:]...)
			b.compact(kept, pruned)
			return ctx.Err()
		}
	}

	b.compact(kept, pruned)
	return nil
}

// compact installs the surviving subscriptions and clears the abandoned tail
// of the backing array so pruned entries can be collected. Callers must hold
// b.mu.
func (b *Broadcaster[E]) compact(kept []*subscription[E], pruned int) {
	for i := len(kept); i < len(b.subs); i++ {
		b.subs[i] = nil
	}
	b.subs = kept

	if pruned > 0 {
		b.pruned.Add(int64(pruned))
		b.logger.Debug("pruned closed subscriptions",
			slog.Int("pruned", pruned),
			slog.Int("observers", len(b.subs)))
	}
}

// Observers prunes subscriptions whose stream has been closed and returns
// the number of active ones remaining.
func (b *Broadcaster[E]) Observers() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	kept := b.subs[:0]
	var pruned int
	for _, sub := range b.subs {
		if sub.released() {
			pruned++
			continue
		}
		kept = append(kept, sub)
	}
	b.compact(kept, pruned)

	return len(b.subs)
}

// Close shuts the broadcaster down. Pending events already handed to
// subscription channels remain readable by their streams; after the buffers
// drain, each stream reports end of sequence. Further Observe calls fail
// with ErrClosed, and further Broadcast calls succeed without delivering
// anywhere. Calling Close again returns ErrClosed.
func (b *Broadcaster[E]) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrClosed
	}
	b.closed = true

	for i, sub := range b.subs {
		close(sub.ch)
		b.subs[i] = nil
	}
	b.subs = nil

	b.logger.Info("broadcaster closed")
	return nil
}

// BroadcasterStats is a snapshot of broadcaster counters.
type BroadcasterStats struct {
	// Observers is the number of registered subscriptions, including ones
	// whose stream closed but has not been pruned yet.
	Observers int
	// Broadcasts is the number of Broadcast calls that reached delivery.
	Broadcasts int64
	// Delivered is the number of per-subscription deliveries.
	Delivered int64
	// Filtered is the number of per-subscription skips due to filters.
	Filtered int64
	// Pruned is the number of subscriptions dropped after their stream
	// closed.
	Pruned int64
	// Closed reports whether the broadcaster has been shut down.
	Closed bool
}

// Stats returns current statistics for monitoring.
func (b *Broadcaster[E]) Stats() BroadcasterStats {
	b.mu.Lock()
	observers := len(b.subs)
	closed := b.closed
	b.mu.Unlock()

	return BroadcasterStats{
		Observers:  observers,
		Broadcasts: b.broadcasts.Load(),
		Delivered:  b.delivered.Load(),
		Filtered:   b.filtered.Load(),
		Pruned:     b.pruned.Load(),
		Closed:     closed,
	}
}

// Healthcheck returns an error when the broadcaster is no longer usable.
// It can be registered with health monitoring systems.
func (b *Broadcaster[E]) Healthcheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	closed := b.closed
	b.mu.Unlock()

	if closed {
		return errors.Join(ErrHealthcheckFailed, ErrClosed)
	}
	return nil
}
