package broadcast

import "errors"

var (
	// ErrClosed is returned when an operation is attempted on a broadcaster
	// that has already been shut down.
	ErrClosed = errors.New("broadcaster is closed")

	// ErrStreamClosed marks the end of a stream's event sequence. Once Next
	// returns it, every subsequent call returns it as well.
	ErrStreamClosed = errors.New("stream is closed")

	// ErrInvalidBufferSize is returned by Observe when a bounded stream is
	// requested with a buffer size below one.
	ErrInvalidBufferSize = errors.New("stream buffer size must be at least 1")

	// ErrHealthcheckFailed is returned when the broadcaster healthcheck fails.
	ErrHealthcheckFailed = errors.New("broadcaster healthcheck failed")
)
