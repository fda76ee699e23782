// Package broadcast provides an ordered, type-safe event multiplexer that
// fans each event out to many independent observers.
//
// A Broadcaster[E] owns a list of subscriptions in registration order. Every
// Broadcast delivers the event to each active subscription in that order, so
// two observers registered before a sequence of broadcasts see the events in
// the same relative order. Each subscription receives events through its own
// channel and exposes them to the consumer as a Stream[E].
//
// # Usage
//
// Basic fan-out:
//
//	b := broadcast.New[OrderEvent]()
//	defer b.Close()
//
//	stream, err := b.Observe(broadcast.WithBuffer[OrderEvent](16))
//	if err != nil {
//		return err
//	}
//	defer stream.Close()
//
//	go func() {
//		for {
//			event, err := stream.Next(ctx)
//			if err != nil {
//				return
//			}
//			handle(event)
//		}
//	}()
//
//	if err := b.Broadcast(ctx, OrderEvent{ID: "ord_123"}); err != nil {
//		return err
//	}
//
// # Delivery Modes
//
// Each subscription chooses its own delivery mode at Observe time:
//
//   - Bounded (WithBuffer): events pass through a channel with fixed
//     capacity. When the buffer is full, Broadcast waits for the observer to
//     catch up. This gives natural backpressure at the cost of coupling the
//     producer to the slowest bounded observer.
//   - Unbounded (the default): Broadcast never waits; undelivered events
//     queue in memory until the observer reads them. A persistently slow
//     observer grows the queue without limit, so unbounded subscriptions
//     trade memory for producer isolation.
//
// # Filters
//
// A subscription may carry a predicate that selects which events it
// receives:
//
//	errors, err := b.Observe(broadcast.WithFilter(func(e OrderEvent) bool {
//		return e.Kind == KindError
//	}))
//
// Filtered-out events are skipped for that observer only and consume no
// buffer space.
//
// # Lifecycle
//
// Consumers release their subscription with Stream.Close. The broadcaster
// notices closed streams lazily, dropping them during the next Broadcast or
// Observers call; closing a stream is never an error for the producer, even
// mid-broadcast. Broadcaster.Close ends every stream: buffered events remain
// readable, and after they drain each stream reports end of sequence via
// ErrStreamClosed. Observe after Close fails with ErrClosed, while Broadcast
// after Close is a deliberate no-op so producers can keep emitting during
// teardown.
//
// # Observable
//
// Types that own a broadcaster can expose the consumer-facing side only:
//
//	func (s *Server) Events() broadcast.Observable[OrderEvent] {
//		return s.events
//	}
//
// # Thread Safety
//
// All methods are safe for concurrent use. Broadcasts are serialized: a
// Broadcast that is waiting on a full bounded buffer holds back subsequent
// broadcasts until it completes or its context is canceled.
package broadcast
