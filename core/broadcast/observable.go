package broadcast

// Observable is the consumer-facing side of a Broadcaster. Types that own a
// broadcaster can expose it as an Observable so that callers may subscribe
// to events without being able to broadcast or close.
type Observable[E any] interface {
	// Observe registers a new subscription and returns its stream. See
	// Broadcaster.Observe for option semantics and errors.
	Observe(opts ...ObserveOption[E]) (*Stream[E], error)
}

var _ Observable[struct{}] = (*Broadcaster[struct{}])(nil)
