package session

import "errors"

var (
	// ErrInvalidToken indicates a malformed token or a failed signature check.
	ErrInvalidToken = errors.New("session.invalid_token")

	// ErrSessionNotFound indicates no session exists for the identifier.
	ErrSessionNotFound = errors.New("session.not_found")

	// ErrSessionExpired indicates the session exists but is past its expiry.
	ErrSessionExpired = errors.New("session.expired")

	// ErrLimitEviction indicates the oldest session could not be evicted
	// while enforcing the per-user limit.
	ErrLimitEviction = errors.New("session.limit_eviction_failed")

	// ErrStoreUnavailable indicates a connectivity or pool failure.
	// Retryable at the infrastructure level.
	ErrStoreUnavailable = errors.New("session.store_unavailable")

	// ErrDuplicateID indicates an identifier collision on insert. The
	// manager regenerates internally; seeing this from the outside means
	// the bounded retries were exhausted.
	ErrDuplicateID = errors.New("session.duplicate_identifier")

	// ErrIDGeneration indicates identifier generation kept colliding past
	// the retry bound. Treated as fatal: the entropy source is suspect.
	ErrIDGeneration = errors.New("session.identifier_generation_failed")
)

// IsUnauthorized reports whether err should surface as a single generic
// unauthorized outcome. Bad signature, unknown session and expired session
// are deliberately indistinguishable to callers so the error cannot be used
// as an oracle.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrInvalidToken) ||
		errors.Is(err, ErrSessionNotFound) ||
		errors.Is(err, ErrSessionExpired)
}
