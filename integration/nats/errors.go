package nats

import "errors"

// Domain-specific NATS errors for consistent error handling across the
// application. Use errors.Is() to check error types for retry logic and
// user-facing messages.
var (
	ErrEmptyURL          = errors.New("empty nats server URL")
	ErrNATSNotReady      = errors.New("nats did not become ready within the given time period")
	ErrHealthcheckFailed = errors.New("nats healthcheck failed")
)
