// Package websocket exposes an observable event source to browser and
// service clients over websocket connections.
//
// Hub is an http.Handler that upgrades each request, registers a bounded
// observer on the source, and streams matching events to the client as JSON
// frames in publish order. It is the delivery edge for the event toolkit:
// an event.Bus or a broker-backed bus produces the events, the hub fans them
// out to connected clients.
//
// # Usage Example
//
//	bus := event.NewBus()
//	defer bus.Close()
//
//	hub := websocket.NewHub(bus,
//		websocket.WithStreamBuffer(64),
//		websocket.WithWriteTimeout(5*time.Second),
//	)
//
//	mux := http.NewServeMux()
//	mux.Handle("/ws/events", hub)
//
// Clients subscribe to everything by default, or narrow the stream with a
// comma-separated list of event names:
//
//	GET /ws/events?events=UserRegistered,PaymentReceived
//
// # Backpressure and Slow Clients
//
// Each connection observes the source through a bounded stream. A client
// that stops reading fills its buffer, the per-frame write deadline expires,
// and the hub drops the connection and releases its observer slot. The
// source is never stalled indefinitely by a single slow consumer.
//
// WithWriteRate adds an optional per-connection ceiling on frames per second
// for clients that cannot absorb bursts.
//
// # Lifecycle
//
// When the source closes, each connection receives any events still buffered
// in its stream and is then shut down with a going-away close frame. When a
// client disconnects, its observer stream is released immediately; the
// source prunes the subscription on its next broadcast.
package websocket
