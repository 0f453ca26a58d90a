// Package auth glues credential verification to the session lifecycle. It
// owns no HTTP concerns: request routing and handler wiring live with the
// consumer, which calls Login, Authenticate and Logout directly.
//
// Credential failures, unknown users and invalid sessions all collapse into
// ErrInvalidCredentials / the session package's unauthorized outcome, so a
// caller observing errors learns nothing about which check failed.
package auth
