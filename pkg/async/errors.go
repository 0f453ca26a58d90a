package async

import "errors"

var (
	// ErrTimeout is returned by AwaitWithTimeout when the deadline passes
	// before the operation completes.
	ErrTimeout = errors.New("async: operation timed out waiting for future completion")

	// ErrPoolExhausted is returned when no executor slot becomes available
	// within the acquire timeout. Retryable; distinct from logical errors
	// returned by the operation itself.
	ErrPoolExhausted = errors.New("async: executor capacity exhausted")
)
