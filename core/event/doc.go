// Package event provides a type-safe event system for building event-driven
// applications: an ordered in-memory bus, concurrent handler execution with
// graceful shutdown, and composable handler decorators.
//
// # Core Components
//
// Event represents a domain event with metadata (ID, Name, Payload, CreatedAt).
// Events are automatically assigned UUIDs and timestamps upon creation.
//
// Bus is an in-memory event bus built on an ordered broadcaster. Every
// observer receives the full event sequence in publish order, and each
// observer chooses its own buffering and filtering via observe options.
//
// Handler processes events through a type-safe interface. Handlers can be
// created from functions with automatic type inference using NewHandlerFunc,
// or with explicit event names using NewHandler.
//
// Processor observes an event source and coordinates concurrent handler
// execution. It provides graceful shutdown, health checks, observability
// metrics, and configurable concurrency controls.
//
// Decorator enables middleware-style wrapping of handlers for cross-cutting
// concerns like retries, backoff, and timeouts.
//
// # Basic Usage
//
// Create an event type, set up handlers, and process events:
//
//	import (
//		"context"
//		"log/slog"
//		"os"
//
//		"github.com/dmitrymomot/eventkit/core/event"
//	)
//
//	type UserCreated struct {
//		UserID string
//		Email  string
//	}
//
//	func main() {
//		logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
//
//		// Create in-memory event bus
//		bus := event.NewBus(event.WithBusLogger(logger))
//		defer bus.Close()
//
//		// Create handler with automatic type inference
//		handler := event.NewHandlerFunc(func(ctx context.Context, evt UserCreated) error {
//			logger.Info("user created", "user_id", evt.UserID, "email", evt.Email)
//			return nil
//		})
//
//		// Create processor
//		processor := event.NewProcessor(
//			event.WithSource(bus),
//			event.WithHandler(handler),
//			event.WithProcessorLogger(logger),
//		)
//
//		// Start processor in background
//		ctx, cancel := context.WithCancel(context.Background())
//		defer cancel()
//
//		go func() {
//			if err := processor.Start(ctx); err != nil {
//				logger.Error("processor failed", "error", err)
//			}
//		}()
//
//		// Publish events
//		bus.Publish(ctx, UserCreated{UserID: "123", Email: "user@example.com"})
//
//		// Graceful shutdown
//		cancel()
//		if err := processor.Stop(); err != nil {
//			logger.Error("shutdown failed", "error", err)
//		}
//	}
//
// # Multiple Handlers for Same Event
//
// Register multiple handlers for the same event type. All handlers execute
// concurrently in separate goroutines:
//
//	emailHandler := event.NewHandlerFunc(func(ctx context.Context, evt UserCreated) error {
//		return sendWelcomeEmail(ctx, evt.Email)
//	})
//
//	analyticsHandler := event.NewHandlerFunc(func(ctx context.Context, evt UserCreated) error {
//		return trackUserSignup(ctx, evt.UserID)
//	})
//
//	processor := event.NewProcessor(
//		event.WithSource(bus),
//		event.WithHandler(emailHandler, analyticsHandler),
//	)
//
// # Multiple Independent Observers
//
// Because the bus fans out to every observer, several processors can consume
// the same event sequence without stealing events from each other:
//
//	auditProcessor := event.NewProcessor(
//		event.WithSource(bus),
//		event.WithFallbackHandler(auditAll),
//	)
//
//	domainProcessor := event.NewProcessor(
//		event.WithSource(bus),
//		event.WithHandler(userHandler, billingHandler),
//	)
//
// A processor without a fallback handler subscribes with a filter derived
// from its registered handlers, so events it would ignore never occupy its
// buffer.
//
// # Decorators
//
// Wrap handlers with retries, backoff, and timeouts:
//
//	handler := event.Decorate(
//		event.NewHandlerFunc(notifyWebhookHandler),
//		event.Retry(3),
//		event.Timeout(30*time.Second),
//	)
//
// # Concurrency Control
//
// Limit concurrent handler executions to protect downstream resources. When
// the limit is reached, dispatch blocks, the processor's source buffer
// fills, and publishers experience backpressure:
//
//	processor := event.NewProcessor(
//		event.WithSource(bus),
//		event.WithHandler(handler),
//		event.WithMaxConcurrentHandlers(100),
//		event.WithSourceBuffer(512),
//	)
//
// # External Brokers
//
// The integration packages bridge the bus to external brokers (Redis
// Pub/Sub, Postgres LISTEN/NOTIFY, NATS) for cross-instance event delivery.
// Those transports also implement broadcast.Observable[Event] and plug into
// WithSource directly.
//
// # Observability
//
// Both Bus and Processor expose Stats() snapshots and Healthcheck(ctx)
// methods for health monitoring:
//
//	stats := processor.Stats()
//	logger.Info("processor stats",
//		"processed", stats.EventsProcessed,
//		"failed", stats.EventsFailed,
//		"active", stats.ActiveEvents)
package event
