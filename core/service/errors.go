package service

import "errors"

var (
	// ErrNotRunning is returned when a receive is sent to a stopped service.
	ErrNotRunning = errors.New("service not running")
	// ErrNoReceiveHandler is returned when a service has no receive behavior configured.
	ErrNoReceiveHandler = errors.New("no receive handler")
	// ErrServiceNotFound is returned by a service map when the routed child is unknown.
	ErrServiceNotFound = errors.New("service not found")

	// ErrPutTimeout is returned when enqueueing on a full inbox exceeds the timeout.
	// The message was never delivered.
	ErrPutTimeout = errors.New("inbox enqueue timed out")
	// ErrTakeTimeout is returned when waiting for a reply exceeds the timeout.
	// The service may still complete the work; the result is abandoned.
	ErrTakeTimeout = errors.New("reply wait timed out")

	// ErrUserFunction wraps an error or panic raised by a user-supplied
	// start/stop/receive function.
	ErrUserFunction = errors.New("user function failed")
	// ErrClosed is returned when operating on a closed handle.
	ErrClosed = errors.New("service closed")
)

// isProtocolError reports whether err already carries one of the package's
// error kinds, so it must not be re-wrapped as a user-function failure.
func isProtocolError(err error) bool {
	for _, kind := range []error{
		ErrNotRunning,
		ErrNoReceiveHandler,
		ErrServiceNotFound,
		ErrPutTimeout,
		ErrTakeTimeout,
		ErrUserFunction,
		ErrClosed,
	} {
		if errors.Is(err, kind) {
			return true
		}
	}
	return false
}
