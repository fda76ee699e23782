package event

import "errors"

var (
	// ErrBusClosed is returned when publishing to or observing a closed bus.
	ErrBusClosed = errors.New("event bus is closed")

	// ErrInvalidPayload is returned when a payload's event name cannot be
	// derived, such as a nil payload or an unnamed type.
	ErrInvalidPayload = errors.New("event payload has no derivable name")

	// ErrNoHandlers is returned when starting a processor with no handlers
	// and no fallback handler registered.
	ErrNoHandlers = errors.New("no handlers registered for event")

	// ErrSourceNil is returned when starting a processor without an event
	// source.
	ErrSourceNil = errors.New("event source is nil")

	// ErrProcessorAlreadyStarted is returned when attempting to start a processor that is already running.
	ErrProcessorAlreadyStarted = errors.New("processor already started")

	// ErrProcessorNotStarted is returned when attempting to stop a processor that is not running.
	ErrProcessorNotStarted = errors.New("processor not started")

	// ErrProcessorNotRunning indicates a healthcheck on a stopped processor.
	ErrProcessorNotRunning = errors.New("processor not running")

	// ErrProcessorStale indicates the processor has active events but no
	// recent activity.
	ErrProcessorStale = errors.New("processor has no recent activity")

	// ErrProcessorStuck indicates the processor has accumulated too many
	// in-flight events.
	ErrProcessorStuck = errors.New("processor has too many active events")

	// ErrHealthcheckFailed is returned when a healthcheck fails.
	ErrHealthcheckFailed = errors.New("event healthcheck failed")
)
