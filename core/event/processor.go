package event

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrymomot/eventkit/core/broadcast"
)

// Processor manages event handlers and coordinates event processing. It
// observes an event source and dispatches each event to the handlers
// registered for its name, executing them concurrently.
type Processor struct {
	handlers        map[string][]Handler
	source          broadcast.Observable[Event]
	fallbackHandler func(context.Context, Event) error
	mu              sync.RWMutex

	sourceBuffer          int
	shutdownTimeout       time.Duration
	staleThreshold        time.Duration
	stuckThreshold        int32
	maxConcurrentHandlers int
	logger                *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	stream *broadcast.Stream[Event]
	sem    chan struct{}
	wg     sync.WaitGroup

	eventsProcessed atomic.Int64
	eventsFailed    atomic.Int64
	activeEvents    atomic.Int32
	lastActivityAt  atomic.Int64
}

// ProcessorStats provides observability metrics for monitoring and debugging.
type ProcessorStats struct {
	EventsProcessed int64
	EventsFailed    int64
	ActiveEvents    int32
	IsRunning       bool
	LastActivityAt  time.Time
}

// NewProcessor creates a new event processor with the given options.
//
// Example:
//
//	processor := event.NewProcessor(
//	    event.WithSource(bus),
//	    event.WithHandler(handler1, handler2),
//	)
func NewProcessor(opts ...ProcessorOption) *Processor {
	p := &Processor{
		handlers:        make(map[string][]Handler),
		sourceBuffer:    256,
		shutdownTimeout: 30 * time.Second,
		staleThreshold:  5 * time.Minute,
		stuckThreshold:  1000,
		logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Start subscribes to the event source and processes events until the
// context is cancelled or the source closes. This is a blocking operation;
// use Run() for errgroup pattern or call this in a goroutine.
//
// When no fallback handler is configured, the subscription filters events at
// the source so that only events with registered handlers occupy the
// processor's buffer.
func (p *Processor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.cancel != nil {
		p.mu.Unlock()
		return ErrProcessorAlreadyStarted
	}

	if p.source == nil {
		p.mu.Unlock()
		return ErrSourceNil
	}

	if len(p.handlers) == 0 && p.fallbackHandler == nil {
		p.mu.Unlock()
		return ErrNoHandlers
	}

	opts := []broadcast.ObserveOption[Event]{
		broadcast.WithBuffer[Event](p.sourceBuffer),
	}
	if p.fallbackHandler == nil {
		registered := make(map[string]struct{}, len(p.handlers))
		for name := range p.handlers {
			registered[name] = struct{}{}
		}
		opts = append(opts, broadcast.WithFilter(func(e Event) bool {
			_, ok := registered[e.Name]
			return ok
		}))
	}

	stream, err := p.source.Observe(opts...)
	if err != nil {
		p.mu.Unlock()
		return fmt.Errorf("failed to observe event source: %w", err)
	}

	p.stream = stream
	p.ctx, p.cancel = context.WithCancel(ctx)
	if p.maxConcurrentHandlers > 0 {
		p.sem = make(chan struct{}, p.maxConcurrentHandlers)
	}
	ctx = p.ctx
	p.mu.Unlock()

	p.logger.InfoContext(ctx, "event processor started",
		slog.Int("handler_count", len(p.handlers)))

	for {
		event, err := stream.Next(ctx)
		if err != nil {
			switch {
			case errors.Is(err, broadcast.ErrStreamClosed):
				p.logger.Info("event source closed")
				return nil
			case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
				p.logger.Info("event processor stopping")
				return err
			default:
				return err
			}
		}

		if err := p.processHandlers(event); err != nil {
			if !errors.Is(err, ErrNoHandlers) {
				p.logger.ErrorContext(ctx, "failed to process event",
					slog.String("event_id", event.ID),
					slog.String("event_name", event.Name),
					slog.String("error", err.Error()))
			}
		}
	}
}

// Stop gracefully shuts down the processor with a timeout.
// Returns an error if the shutdown timeout is exceeded.
func (p *Processor) Stop() error {
	p.mu.Lock()
	if p.cancel == nil {
		p.mu.Unlock()
		return ErrProcessorNotStarted
	}

	cancel := p.cancel
	stream := p.stream
	p.cancel = nil
	p.stream = nil
	p.mu.Unlock()

	cancel()
	if stream != nil {
		_ = stream.Close()
	}

	p.logger.Info("event processor stopping, waiting for active handlers to complete",
		slog.Duration("timeout", p.shutdownTimeout))

	ctx, ctxCancel := context.WithTimeout(context.Background(), p.shutdownTimeout)
	defer ctxCancel()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("event processor stopped cleanly")
		return nil
	case <-ctx.Done():
		p.logger.Warn("event processor shutdown timeout exceeded - some handlers may be abandoned",
			slog.Duration("timeout", p.shutdownTimeout))
		return fmt.Errorf("shutdown timeout exceeded after %s", p.shutdownTimeout)
	}
}

// Run provides errgroup compatibility for coordinated lifecycle management.
// Returns a function that starts the processor, monitors context cancellation,
// and performs graceful shutdown when the context is cancelled.
func (p *Processor) Run(ctx context.Context) func() error {
	return func() error {
		errCh := make(chan error, 1)
		go func() {
			errCh <- p.Start(ctx)
		}()

		select {
		case <-ctx.Done():
			// Context cancelled - perform graceful shutdown
			_ = p.Stop() // Ignore stop error in normal shutdown
			<-errCh      // Wait for Start() to exit
			return nil
		case err := <-errCh:
			// Start() returned - check if it's a normal shutdown
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}
	}
}

func (p *Processor) processHandlers(event Event) error {
	p.mu.RLock()
	handlers, exists := p.handlers[event.Name]
	fallback := p.fallbackHandler
	ctx := p.ctx
	p.mu.RUnlock()

	if !exists || len(handlers) == 0 {
		if fallback != nil {
			if err := p.acquireSlot(ctx); err != nil {
				return err
			}

			p.wg.Add(1)
			p.activeEvents.Add(1)

			go func() {
				defer p.wg.Done()
				defer p.activeEvents.Add(-1)
				defer p.releaseSlot()

				hctx := WithStartProcessingTime(WithEventMeta(ctx, event), time.Now())

				defer func() {
					if r := recover(); r != nil {
						p.eventsFailed.Add(1)
						p.logger.ErrorContext(hctx, "fallback handler panicked",
							slog.String("event_id", event.ID),
							slog.String("event_name", event.Name),
							slog.Any("panic", r))
					}
				}()

				start := time.Now()

				if err := fallback(hctx, event); err != nil {
					p.eventsFailed.Add(1)
					p.logger.ErrorContext(hctx, "fallback handler failed",
						slog.String("event_id", event.ID),
						slog.String("event_name", event.Name),
						slog.Duration("duration", time.Since(start)),
						slog.String("error", err.Error()))
				} else {
					p.eventsProcessed.Add(1)
					p.logger.DebugContext(hctx, "fallback handler completed",
						slog.String("event_id", event.ID),
						slog.String("event_name", event.Name),
						slog.Duration("duration", time.Since(start)))
				}

				p.lastActivityAt.Store(time.Now().Unix())
			}()

			return nil
		}
		return ErrNoHandlers
	}

	for _, h := range handlers {
		if err := p.acquireSlot(ctx); err != nil {
			return err
		}

		p.wg.Add(1)
		p.activeEvents.Add(1)

		go func(handler Handler) {
			defer p.wg.Done()
			defer p.activeEvents.Add(-1)
			defer p.releaseSlot()

			hctx := WithStartProcessingTime(WithEventMeta(ctx, event), time.Now())

			defer func() {
				if r := recover(); r != nil {
					p.eventsFailed.Add(1)
					p.logger.ErrorContext(hctx, "event handler panicked",
						slog.String("event_id", event.ID),
						slog.String("event_name", event.Name),
						slog.String("handler", handler.EventName()),
						slog.Any("panic", r))
				}
			}()

			start := time.Now()

			if err := handler.Handle(hctx, event.Payload); err != nil {
				p.eventsFailed.Add(1)
				p.logger.ErrorContext(hctx, "event handler failed",
					slog.String("event_id", event.ID),
					slog.String("event_name", event.Name),
					slog.String("handler", handler.EventName()),
					slog.Duration("duration", time.Since(start)),
					slog.String("error", err.Error()))
			} else {
				p.eventsProcessed.Add(1)
				p.logger.DebugContext(hctx, "event handler completed",
					slog.String("event_id", event.ID),
					slog.String("event_name", event.Name),
					slog.String("handler", handler.EventName()),
					slog.Duration("duration", time.Since(start)))
			}

			p.lastActivityAt.Store(time.Now().Unix())
		}(h)
	}

	return nil
}

// acquireSlot blocks until a handler slot is available when concurrency is
// limited. The limit applies across all event types.
func (p *Processor) acquireSlot(ctx context.Context) error {
	if p.sem == nil {
		return nil
	}
	select {
	case p.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Processor) releaseSlot() {
	if p.sem != nil {
		<-p.sem
	}
}

// Stats returns current processor statistics for observability and monitoring.
func (p *Processor) Stats() ProcessorStats {
	p.mu.RLock()
	isRunning := p.cancel != nil
	p.mu.RUnlock()

	lastActivity := p.lastActivityAt.Load()
	var lastActivityTime time.Time
	if lastActivity > 0 {
		lastActivityTime = time.Unix(lastActivity, 0)
	}

	return ProcessorStats{
		EventsProcessed: p.eventsProcessed.Load(),
		EventsFailed:    p.eventsFailed.Load(),
		ActiveEvents:    p.activeEvents.Load(),
		IsRunning:       isRunning,
		LastActivityAt:  lastActivityTime,
	}
}

// Healthcheck validates that the processor is operational.
// Returns nil if healthy, or an error describing the health issue.
func (p *Processor) Healthcheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	stats := p.Stats()

	if !stats.IsRunning {
		return errors.Join(ErrHealthcheckFailed, ErrProcessorNotRunning)
	}

	if stats.ActiveEvents >= p.stuckThreshold {
		return errors.Join(ErrHealthcheckFailed, ErrProcessorStuck)
	}

	if stats.ActiveEvents > 0 && !stats.LastActivityAt.IsZero() &&
		time.Since(stats.LastActivityAt) > p.staleThreshold {
		return errors.Join(ErrHealthcheckFailed, ErrProcessorStale)
	}

	return nil
}
