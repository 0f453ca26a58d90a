// Package redis provides connection helpers for the Redis-backed session
// store: a Connect with startup retries driven by env-tagged configuration,
// and a health-check probe for liveness endpoints.
//
// The session layer only needs a connected *redis.Client; everything
// session-specific lives in pkg/session's RedisStore.
package redis
