// Package async bridges blocking storage calls into concurrent request
// handling without stalling the caller's scheduler.
//
// The package is centred around two types. Future represents the eventual
// result of an operation started with Run; the caller can block on Await,
// bound the wait with AwaitWithTimeout, or poll with IsComplete. Executor
// bounds how many operations may be in flight at once, sized to the capacity
// of the underlying connection pool so that blocking work can never queue up
// more goroutines than the pool has connections to serve.
//
// # Usage
//
//	ex := async.NewExecutor(int(pool.Config().MaxConns))
//
//	future := async.Run(ctx, ex, func(ctx context.Context) (*Session, error) {
//	    return store.FindByID(ctx, id)
//	})
//
//	sess, err := future.Await()
//
// # Error Handling
//
// Executor saturation surfaces as ErrPoolExhausted, a retryable infrastructure
// error deliberately distinct from whatever logical errors the operation
// itself returns (e.g. a not-found). Callers can therefore back off and retry
// on exhaustion while mapping operation errors straight to user-facing
// results. A context cancelled before a slot is acquired completes the Future
// with the context error and never runs the operation.
package async
