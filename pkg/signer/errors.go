package signer

import "errors"

var (
	// ErrWeakSecret indicates the configured secret is shorter than the
	// required minimum. This is a startup configuration error, not a
	// per-request failure.
	ErrWeakSecret = errors.New("signer.weak_secret")

	// ErrInvalidToken indicates a malformed token or a signature mismatch.
	ErrInvalidToken = errors.New("signer.invalid_token")
)
