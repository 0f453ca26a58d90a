package async

import (
	"context"
	"time"
)

// Future represents the result of an asynchronous operation.
type Future[U any] struct {
	result U
	err    error
	done   chan struct{}
}

// Await blocks until the operation completes and returns its result and error.
func (f *Future[U]) Await() (U, error) {
	<-f.done
	return f.result, f.err
}

// AwaitWithTimeout blocks until the operation completes or the timeout
// elapses, in which case it returns ErrTimeout. The operation itself keeps
// running; only the wait is abandoned.
func (f *Future[U]) AwaitWithTimeout(timeout time.Duration) (U, error) {
	select {
	case <-f.done:
		return f.result, f.err
	case <-time.After(timeout):
		var zero U
		return zero, ErrTimeout
	}
}

// IsComplete reports whether the operation has finished, without blocking.
func (f *Future[U]) IsComplete() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

func (f *Future[U]) complete(result U, err error) {
	f.result = result
	f.err = err
	close(f.done)
}

// DefaultAcquireTimeout bounds how long Run waits for a free executor slot
// before giving up with ErrPoolExhausted.
const DefaultAcquireTimeout = 5 * time.Second

// Executor bounds the number of concurrently running operations. Size it to
// the capacity of the shared connection pool: a slot stands in for one
// connection, so blocking work can never outnumber the connections available
// to serve it.
type Executor struct {
	slots          chan struct{}
	acquireTimeout time.Duration
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithAcquireTimeout overrides DefaultAcquireTimeout.
func WithAcquireTimeout(d time.Duration) ExecutorOption {
	return func(e *Executor) {
		if d > 0 {
			e.acquireTimeout = d
		}
	}
}

// NewExecutor creates an Executor with the given capacity. A non-positive
// capacity falls back to 1 rather than producing an executor that can never
// run anything.
func NewExecutor(capacity int, opts ...ExecutorOption) *Executor {
	if capacity < 1 {
		capacity = 1
	}

	e := &Executor{
		slots:          make(chan struct{}, capacity),
		acquireTimeout: DefaultAcquireTimeout,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Capacity returns the maximum number of concurrently running operations.
func (e *Executor) Capacity() int {
	return cap(e.slots)
}

// InFlight returns the number of operations currently holding a slot.
func (e *Executor) InFlight() int {
	return len(e.slots)
}

// Run starts fn on its own goroutine once an executor slot is available and
// returns a Future for its result. If the context is cancelled before a slot
// is acquired, the Future completes with the context error and fn never runs.
// If no slot frees up within the acquire timeout, the Future completes with
// ErrPoolExhausted.
func Run[U any](ctx context.Context, e *Executor, fn func(context.Context) (U, error)) *Future[U] {
	f := &Future[U]{done: make(chan struct{})}

	var zero U

	// Checked before slot acquisition: a select with both a cancelled
	// context and a free slot ready picks a branch at random, and the
	// operation must never run once the context is done.
	if err := ctx.Err(); err != nil {
		f.complete(zero, err)
		return f
	}

	select {
	case e.slots <- struct{}{}:
	default:
		// All slots busy: wait bounded instead of queueing unboundedly.
		timer := time.NewTimer(e.acquireTimeout)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			f.complete(zero, ctx.Err())
			return f
		case <-timer.C:
			f.complete(zero, ErrPoolExhausted)
			return f
		case e.slots <- struct{}{}:
		}
	}

	go func() {
		defer func() { <-e.slots }()

		result, err := fn(ctx)
		f.complete(result, err)
	}()

	return f
}

// WaitAll blocks until every future completes and returns their results in
// order, along with the first error encountered.
func WaitAll[U any](futures ...*Future[U]) ([]U, error) {
	results := make([]U, len(futures))

	var firstErr error
	for i, future := range futures {
		result, err := future.Await()
		results[i] = result
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return results, firstErr
}
