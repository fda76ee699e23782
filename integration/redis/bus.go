package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/eventkit/core/broadcast"
	"github.com/dmitrymomot/eventkit/core/event"
)

var _ broadcast.Observable[event.Event] = (*Bus)(nil)

// Bus distributes events across process boundaries through a Redis Pub/Sub
// channel. Publish sends events to Redis only; local observers receive them
// when Run's subscription loop re-broadcasts incoming messages. Every
// instance subscribed to the same channel, the publisher included, therefore
// observes an identical event sequence.
type Bus struct {
	client  *redis.Client
	channel string
	local   *event.Bus
	logger  *slog.Logger
	closed  atomic.Bool
	done    chan struct{}
}

// BusOption configures a Bus during construction.
type BusOption func(*Bus)

// WithChannel overrides the Redis Pub/Sub channel name. Defaults to "events".
func WithChannel(name string) BusOption {
	return func(b *Bus) {
		if name != "" {
			b.channel = name
		}
	}
}

// WithLogger configures structured logging for bus operations.
// By default logs are discarded.
func WithLogger(logger *slog.Logger) BusOption {
	return func(b *Bus) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// NewBus creates a Redis-backed event bus on top of an established client.
// The client's lifecycle stays with the caller; closing the bus does not
// close the client. Start Run in a background goroutine to receive events.
func NewBus(client *redis.Client, opts ...BusOption) *Bus {
	b := &Bus{
		client:  client,
		channel: "events",
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.local = event.NewBus(event.WithBusLogger(b.logger))
	return b
}

// Publish wraps payload in an event envelope and sends it to the Redis
// channel. Passing an event.Event publishes it as is, preserving its ID and
// timestamp. Local observers receive the event only after the broker delivers
// it back through Run.
//
// Publish returns event.ErrBusClosed after Close, event.ErrInvalidPayload
// when no event name can be derived, and a wrapped transport error when the
// broker rejects the message.
func (b *Bus) Publish(ctx context.Context, payload any) error {
	if b.closed.Load() {
		return event.ErrBusClosed
	}

	evt, ok := payload.(event.Event)
	if !ok {
		evt = event.NewEvent(payload)
	}
	if evt.Name == "" {
		return event.ErrInvalidPayload
	}

	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to encode event envelope: %w", err)
	}

	if err := b.client.Publish(ctx, b.channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish event to redis channel %q: %w", b.channel, err)
	}

	b.logger.Debug("event published to redis",
		slog.String("event_id", evt.ID),
		slog.String("event_name", evt.Name),
		slog.String("channel", b.channel))
	return nil
}

// Observe registers a local observer for events arriving from the broker.
// It accepts the same options as event.Bus.Observe and returns
// event.ErrBusClosed after Close.
func (b *Bus) Observe(opts ...broadcast.ObserveOption[event.Event]) (*broadcast.Stream[event.Event], error) {
	if b.closed.Load() {
		return nil, event.ErrBusClosed
	}
	return b.local.Observe(opts...)
}

// Run subscribes to the Redis channel and re-broadcasts incoming events to
// local observers until ctx is canceled or the bus is closed. It blocks, so
// callers typically start it in an errgroup goroutine. Run returns nil on
// clean shutdown and a wrapped transport error otherwise.
func (b *Bus) Run(ctx context.Context) error {
	if b.closed.Load() {
		return event.ErrBusClosed
	}

	pubsub := b.client.Subscribe(ctx, b.channel)
	defer func() { _ = pubsub.Close() }()

	// Receive confirms the subscription before any message can be missed.
	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to redis channel %q: %w", b.channel, err)
	}

	b.logger.Info("redis event bus running", slog.String("channel", b.channel))

	msgs := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-b.done:
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			b.dispatch(ctx, []byte(msg.Payload))
		}
	}
}

func (b *Bus) dispatch(ctx context.Context, payload []byte) {
	var evt event.Event
	if err := json.Unmarshal(payload, &evt); err != nil {
		b.logger.Error("failed to decode event envelope",
			slog.String("channel", b.channel),
			slog.String("error", err.Error()))
		return
	}

	if err := b.local.Publish(ctx, evt); err != nil {
		b.logger.Error("failed to deliver event to local observers",
			slog.String("event_id", evt.ID),
			slog.String("event_name", evt.Name),
			slog.String("error", err.Error()))
	}
}

// Observers returns the number of active local observers.
func (b *Bus) Observers() int {
	return b.local.Observers()
}

// Stats returns delivery counters for the local fan-out.
func (b *Bus) Stats() broadcast.BroadcasterStats {
	return b.local.Stats()
}

// Close stops Run and shuts down local delivery. Observer streams end after
// draining buffered events. Calling Close again returns event.ErrBusClosed.
func (b *Bus) Close() error {
	if !b.closed.CompareAndSwap(false, true) {
		return event.ErrBusClosed
	}

	close(b.done)
	_ = b.local.Close()

	b.logger.Info("redis event bus closed", slog.String("channel", b.channel))
	return nil
}

// Healthcheck verifies the bus is open and Redis is reachable.
// It can be registered with health monitoring systems.
func (b *Bus) Healthcheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if b.closed.Load() {
		return errors.Join(ErrHealthcheckFailed, event.ErrBusClosed)
	}

	if err := b.client.Ping(ctx).Err(); err != nil {
		return errors.Join(ErrHealthcheckFailed, err)
	}
	return nil
}
