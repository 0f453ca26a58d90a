// Package session implements the session lifecycle for the authentication
// core: issuing, validating, refreshing, limiting and expiring user sessions
// against a pluggable store.
//
// The Manager orchestrates the lifecycle. Creation generates a random raw
// identifier, enforces the per-user session limit by evicting the oldest
// session on overflow, persists the row, and returns the wire token — signed
// with HMAC-SHA256 when signing is enabled, the bare identifier otherwise.
// Validation accepts both forms during the signing migration window, checks
// expiry lazily, and optionally slides the expiry forward when the remaining
// lifetime drops below the refresh threshold. Revocation is idempotent.
//
// All store access goes through an async executor sized to the connection
// pool, so blocking database work never stalls request handling and pool
// exhaustion surfaces as a retryable error instead of a deadlock.
//
// Three Store implementations ship with the package: MemoryStore for tests
// and development, PostgresStore over a pgx pool, and RedisStore over
// go-redis. The Reaper sweeps expired rows on a fixed interval with failure
// isolation, complementing lazy expiry at validation time.
//
// # Usage
//
//	store := session.NewPostgresStore(pool)
//	mgr, err := session.New(store, cfg,
//	    session.WithExecutor(async.NewExecutor(int(pool.Config().MaxConns))),
//	)
//	if err != nil {
//	    // configuration error, refuse to start
//	}
//
//	token, _, err := mgr.CreateSession(ctx, userID)
//
//	sess, err := mgr.ValidateSession(ctx, token)
//	if session.IsUnauthorized(err) {
//	    // respond 401 without distinguishing why
//	}
//
//	go session.NewReaper(mgr, cfg.CleanupInterval).Run(ctx)
package session
