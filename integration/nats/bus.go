package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"

	"github.com/nats-io/nats.go"

	"github.com/dmitrymomot/eventkit/core/broadcast"
	"github.com/dmitrymomot/eventkit/core/event"
)

var _ broadcast.Observable[event.Event] = (*Bus)(nil)

// subscribeBuffer is the pending message capacity of Run's subscription
// channel. The client buffers bursts here before local fan-out.
const subscribeBuffer = 64

// Bus distributes events across process boundaries through a NATS subject.
// Publish sends events to the server only; local observers receive them when
// Run's subscription loop re-broadcasts incoming messages. Every instance
// subscribed to the same subject, the publisher included, therefore observes
// an identical event sequence.
type Bus struct {
	conn    *nats.Conn
	subject string
	local   *event.Bus
	logger  *slog.Logger
	closed  atomic.Bool
	done    chan struct{}
}

// BusOption configures a Bus during construction.
type BusOption func(*Bus)

// WithSubject overrides the NATS subject. Defaults to "events".
func WithSubject(subject string) BusOption {
	return func(b *Bus) {
		if subject != "" {
			b.subject = subject
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

// NewBus creates a NATS-backed event bus on top of an established connection.
// The connection's lifecycle stays with the caller; closing the bus does not
// close the connection. Start Run in a background goroutine to receive
// events.
func NewBus(conn *nats.Conn, opts ...BusOption) *Bus {
	b := &Bus{
		conn:    conn,
		subject: "events",
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.local = event.NewBus(event.WithBusLogger(b.logger))
	return b
}

// Publish wraps payload in an event envelope and sends it to the NATS
// subject. Passing an event.Event publishes it as is, preserving its ID and
// timestamp. Local observers receive the event only after the server delivers
// it back through Run.
//
// Publish returns event.ErrBusClosed after Close, event.ErrInvalidPayload
// when no event name can be derived, and a wrapped transport error when the
// server rejects the message.
func (b *Bus) Publish(ctx context.Context, payload any) error {
	if b.closed.Load() {
		return event.ErrBusClosed
	}
	if err := ctx.Err(); err != nil {
		return err
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

	if err := b.conn.Publish(b.subject, data); err != nil {
		return fmt.Errorf("failed to publish event to nats subject %q: %w", b.subject, err)
	}

	b.logger.Debug("event published to nats",
		slog.String("event_id", evt.ID),
		slog.String("event_name", evt.Name),
		slog.String("subject", b.subject))
	return nil
}

// Observe registers a local observer for events arriving from the server.
// It accepts the same options as event.Bus.Observe and returns
// event.ErrBusClosed after Close.
func (b *Bus) Observe(opts ...broadcast.ObserveOption[event.Event]) (*broadcast.Stream[event.Event], error) {
	if b.closed.Load() {
		return nil, event.ErrBusClosed
	}
	return b.local.Observe(opts...)
}

// Run subscribes to the NATS subject and re-broadcasts incoming events to
// local observers until ctx is canceled or the bus is closed. It blocks, so
// callers typically start it in an errgroup goroutine. Run returns nil on
// clean shutdown and a wrapped transport error otherwise.
func (b *Bus) Run(ctx context.Context) error {
	if b.closed.Load() {
		return event.ErrBusClosed
	}

	msgs := make(chan *nats.Msg, subscribeBuffer)
	sub, err := b.conn.ChanSubscribe(b.subject, msgs)
	if err != nil {
		return fmt.Errorf("failed to subscribe to nats subject %q: %w", b.subject, err)
	}
	defer func() { _ = sub.Unsubscribe() }()

	b.logger.Info("nats event bus running", slog.String("subject", b.subject))

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
			b.dispatch(ctx, msg.Data)
		}
	}
}

func (b *Bus) dispatch(ctx context.Context, payload []byte) {
	var evt event.Event
	if err := json.Unmarshal(payload, &evt); err != nil {
		b.logger.Error("failed to decode event envelope",
			slog.String("subject", b.subject),
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

	b.logger.Info("nats event bus closed", slog.String("subject", b.subject))
	return nil
}

// Healthcheck verifies the bus is open and the server connection is alive.
// It can be registered with health monitoring systems.
func (b *Bus) Healthcheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if b.closed.Load() {
		return errors.Join(ErrHealthcheckFailed, event.ErrBusClosed)
	}

	if !b.conn.IsConnected() {
		return errors.Join(ErrHealthcheckFailed, fmt.Errorf("connection status %s", b.conn.Status()))
	}
	return nil
}
