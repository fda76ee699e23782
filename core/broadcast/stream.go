package broadcast

import (
	"context"
	"sync"
)

// Stream is the receiving half of one subscription. It is owned by a single
// consumer and must not be shared; concurrent calls to Next from multiple
// goroutines would race for events. To fan out further, create additional
// subscriptions with Observe.
type Stream[E any] struct {
	events <-chan E
	done   chan struct{}
	once   sync.Once
}

func newStream[E any](events <-chan E, done chan struct{}) *Stream[E] {
	return &Stream[E]{events: events, done: done}
}

// Next blocks until an event is available and returns it. It returns
// ErrStreamClosed once the sequence has ended, either because the stream was
// closed or because the broadcaster shut down and all pending events have
// been drained. After that, every call returns ErrStreamClosed. If ctx is
// canceled while waiting, Next returns ctx.Err() and the stream remains
// usable.
func (s *Stream[E]) Next(ctx context.Context) (E, error) {
	var zero E

	// A closed stream stays closed even when undelivered events remain
	// buffered in the channel.
	select {
	case <-s.done:
		return zero, ErrStreamClosed
	default:
	}

	select {
	case <-s.done:
		return zero, ErrStreamClosed
	case <-ctx.Done():
		return zero, ctx.Err()
	case event, ok := <-s.events:
		if !ok {
			return zero, ErrStreamClosed
		}
		return event, nil
	}
}

// Events exposes the stream's receive channel for select-based consumption.
// The channel is closed when the broadcaster shuts down, so ranging over it
// terminates on shutdown. Closing the stream itself does not close this
// channel; select on Done alongside it when the consumer may close the
// stream:
//
//	for {
//		select {
//		case event, ok := <-stream.Events():
//			if !ok {
//				return
//			}
//			handle(event)
//		case <-stream.Done():
//			return
//		}
//	}
func (s *Stream[E]) Events() <-chan E {
	return s.events
}

// Done returns a channel that is closed when the stream is closed.
func (s *Stream[E]) Done() <-chan struct{} {
	return s.done
}

// Close releases the subscription. The broadcaster drops it during its next
// delivery pass, and any Broadcast currently waiting on this stream's buffer
// is released immediately. Events still buffered are discarded. Close is
// safe to call multiple times and from any goroutine; calls after the first
// return ErrStreamClosed.
func (s *Stream[E]) Close() error {
	err := ErrStreamClosed
	s.once.Do(func() {
		close(s.done)
		err = nil
	})
	return err
}

// pump shuttles events from the broadcaster into out, buffering without
// limit so that the sending side never waits on the consumer. It exits when
// the stream is closed, or when in is closed by broadcaster shutdown and the
// buffer has been flushed, closing out to mark the end of the sequence.
func pump[E any](in <-chan E, out chan<- E, done <-chan struct{}) {
	defer close(out)

	var buf []E
	for {
		if len(buf) == 0 {
			buf = nil
			if in == nil {
				return
			}
			select {
			case event, ok := <-in:
				if !ok {
					in = nil
					continue
				}
				buf = append(buf, event)
			case <-done:
				return
			}
			continue
		}

		select {
		case event, ok := <-in:
			if !ok {
				in = nil
				continue
			}
			buf = append(buf, event)
		case out <- buf[0]:
			buf = buf[1:]
		case <-done:
			return
		}
	}
}
