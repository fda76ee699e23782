package event

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"

	"github.com/dmitrymomot/eventkit/core/broadcast"
)

// Bus is an in-memory event bus backed by an ordered broadcaster. Published
// payloads are wrapped in an Event envelope and fanned out to every observer
// in registration order, so all observers see the same event sequence.
//
// Bus implements broadcast.Observable[Event]; processors and transports
// subscribe through Observe.
//
// Example:
//
//	bus := event.NewBus(event.WithBusLogger(logger))
//	defer bus.Close()
//
//	processor := event.NewProcessor(
//	    event.WithSource(bus),
//	    event.WithHandler(handler),
//	)
type Bus struct {
	broadcaster *broadcast.Broadcaster[Event]
	logger      *slog.Logger
	closed      atomic.Bool
}

var _ broadcast.Observable[Event] = (*Bus)(nil)

type busConfig struct {
	logger       *slog.Logger
	capacityHint int
}

// BusOption configures a Bus.
type BusOption func(*busConfig)

// WithBusLogger configures structured logging for bus operations.
// By default logs are discarded.
func WithBusLogger(logger *slog.Logger) BusOption {
	return func(c *busConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithBusCapacityHint pre-allocates observer storage for the expected number
// of subscribers.
func WithBusCapacityHint(n int) BusOption {
	return func(c *busConfig) {
		if n > 0 {
			c.capacityHint = n
		}
	}
}

// NewBus creates a new in-memory event bus.
func NewBus(opts ...BusOption) *Bus {
	cfg := busConfig{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Bus{
		broadcaster: broadcast.New(
			broadcast.WithLogger[Event](cfg.logger),
			broadcast.WithCapacityHint[Event](cfg.capacityHint),
		),
		logger: cfg.logger,
	}
}

// Publish wraps payload in an Event envelope and delivers it to all
// observers. Passing an Event value publishes it as is, preserving its ID
// and timestamp; transports use this to re-emit events received from
// external brokers without minting new identities.
//
// Publish returns ErrBusClosed after Close, ErrInvalidPayload when no event
// name can be derived from the payload, and the context error if ctx is
// canceled while a bounded observer's buffer is full.
func (b *Bus) Publish(ctx context.Context, payload any) error {
	if b.closed.Load() {
		return ErrBusClosed
	}

	evt, ok := payload.(Event)
	if !ok {
		evt = NewEvent(payload)
	}
	if evt.Name == "" {
		return ErrInvalidPayload
	}

	if err := b.broadcaster.Broadcast(ctx, evt); err != nil {
		return err
	}

	b.logger.DebugContext(ctx, "event published",
		slog.String("event_id", evt.ID),
		slog.String("event_name", evt.Name))
	return nil
}

// Observe registers a new observer on the bus. It accepts the same options
// as broadcast.Broadcaster.Observe and returns ErrBusClosed after Close.
func (b *Bus) Observe(opts ...broadcast.ObserveOption[Event]) (*broadcast.Stream[Event], error) {
	stream, err := b.broadcaster.Observe(opts...)
	if err != nil {
		if errors.Is(err, broadcast.ErrClosed) {
			return nil, ErrBusClosed
		}
		return nil, err
	}
	return stream, nil
}

// Observers returns the number of active observers on the bus.
func (b *Bus) Observers() int {
	return b.broadcaster.Observers()
}

// Close shuts the bus down. Observer streams end after draining buffered
// events, and subsequent Publish and Observe calls return ErrBusClosed.
// Calling Close again returns ErrBusClosed.
func (b *Bus) Close() error {
	if !b.closed.CompareAndSwap(false, true) {
		return ErrBusClosed
	}

	// The swap guarantees this is the broadcaster's first close.
	_ = b.broadcaster.Close()

	b.logger.Info("event bus closed")
	return nil
}

// Stats returns counters from the underlying broadcaster.
func (b *Bus) Stats() broadcast.BroadcasterStats {
	return b.broadcaster.Stats()
}

// Healthcheck reports whether the bus can still accept events.
// It can be registered with health monitoring systems.
func (b *Bus) Healthcheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if b.closed.Load() {
		return errors.Join(ErrHealthcheckFailed, ErrBusClosed)
	}
	return nil
}
