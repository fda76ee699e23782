package pg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/eventkit/core/broadcast"
	"github.com/dmitrymomot/eventkit/core/event"
)

var _ broadcast.Observable[event.Event] = (*Bus)(nil)

// notifyPayloadLimit is the default NOTIFY payload ceiling in PostgreSQL.
// Envelopes must stay strictly below it.
const notifyPayloadLimit = 8000

// Bus distributes events across process boundaries through PostgreSQL
// LISTEN/NOTIFY. Publish issues pg_notify on the configured channel; local
// observers receive events when Run's listening connection re-broadcasts
// incoming notifications. Every instance listening on the same channel, the
// publisher included, observes an identical event sequence.
//
// Notifications are delivered only to instances connected at publish time and
// the envelope must fit the NOTIFY payload limit, which makes this bus suited
// to small control-plane events rather than bulk data transfer.
type Bus struct {
	pool    *pgxpool.Pool
	channel string
	local   *event.Bus
	logger  *slog.Logger
	closed  atomic.Bool
	done    chan struct{}
}

// BusOption configures a Bus during construction.
type BusOption func(*Bus)

// WithChannel overrides the notification channel name. Defaults to "events".
// Channel names must fit PostgreSQL's 63-byte identifier limit.
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

// NewBus creates a PostgreSQL-backed event bus on top of an established pool.
// The pool's lifecycle stays with the caller; closing the bus does not close
// the pool. Start Run in a background goroutine to receive events.
func NewBus(pool *pgxpool.Pool, opts ...BusOption) *Bus {
	b := &Bus{
		pool:    pool,
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

// Publish wraps payload in an event envelope and issues pg_notify on the
// configured channel. Passing an event.Event publishes it as is, preserving
// its ID and timestamp. Local observers receive the event only after the
// database delivers it back through Run.
//
// Publish returns event.ErrBusClosed after Close, event.ErrInvalidPayload
// when no event name can be derived, ErrPayloadTooLarge when the encoded
// envelope exceeds the NOTIFY limit, and a wrapped transport error when the
// database rejects the notification.
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
	if len(data) >= notifyPayloadLimit {
		return fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, len(data))
	}

	if _, err := b.pool.Exec(ctx, "SELECT pg_notify($1, $2)", b.channel, string(data)); err != nil {
		return fmt.Errorf("failed to publish event to postgres channel %q: %w", b.channel, err)
	}

	b.logger.Debug("event published to postgres",
		slog.String("event_id", evt.ID),
		slog.String("event_name", evt.Name),
		slog.String("channel", b.channel))
	return nil
}

// Observe registers a local observer for events arriving from the database.
// It accepts the same options as event.Bus.Observe and returns
// event.ErrBusClosed after Close.
func (b *Bus) Observe(opts ...broadcast.ObserveOption[event.Event]) (*broadcast.Stream[event.Event], error) {
	if b.closed.Load() {
		return nil, event.ErrBusClosed
	}
	return b.local.Observe(opts...)
}

// Run dedicates a pool connection to LISTEN on the configured channel and
// re-broadcasts incoming notifications to local observers until ctx is
// canceled or the bus is closed. It blocks, so callers typically start it in
// an errgroup goroutine. Run returns nil on clean shutdown and a wrapped
// transport error otherwise; supervisors restart it to re-establish the
// listening connection after a failure.
func (b *Bus) Run(ctx context.Context) error {
	if b.closed.Load() {
		return event.ErrBusClosed
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Bridge bus closure into the context so WaitForNotification unblocks.
	go func() {
		select {
		case <-b.done:
			cancel()
		case <-runCtx.Done():
		}
	}()

	conn, err := b.pool.Acquire(runCtx)
	if err != nil {
		if b.shuttingDown(runCtx) {
			return nil
		}
		return fmt.Errorf("failed to acquire postgres listen connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(runCtx, "LISTEN "+pgx.Identifier{b.channel}.Sanitize()); err != nil {
		if b.shuttingDown(runCtx) {
			return nil
		}
		return fmt.Errorf("failed to listen on postgres channel %q: %w", b.channel, err)
	}

	b.logger.Info("postgres event bus running", slog.String("channel", b.channel))

	for {
		notification, err := conn.Conn().WaitForNotification(runCtx)
		if err != nil {
			if b.shuttingDown(runCtx) {
				return nil
			}
			return fmt.Errorf("failed while waiting for postgres notification: %w", err)
		}
		b.dispatch(runCtx, []byte(notification.Payload))
	}
}

// shuttingDown reports whether a transport error should be treated as a clean
// exit because the bus closed or the caller canceled.
func (b *Bus) shuttingDown(ctx context.Context) bool {
	return b.closed.Load() || ctx.Err() != nil
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

	b.logger.Info("postgres event bus closed", slog.String("channel", b.channel))
	return nil
}

// Healthcheck verifies the bus is open and the database is reachable.
// It can be registered with health monitoring systems.
func (b *Bus) Healthcheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if b.closed.Load() {
		return errors.Join(ErrHealthcheckFailed, event.ErrBusClosed)
	}

	if err := b.pool.Ping(ctx); err != nil {
		return errors.Join(ErrHealthcheckFailed, err)
	}
	return nil
}
