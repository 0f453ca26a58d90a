package auth

import "errors"

var (
	// ErrInvalidCredentials covers unknown username and wrong password
	// alike, so login failures cannot be used to enumerate accounts.
	ErrInvalidCredentials = errors.New("auth.invalid_credentials")

	// ErrUserNotFound is returned by UserStorage implementations for
	// unknown users. The service maps it to ErrInvalidCredentials before
	// it reaches a caller.
	ErrUserNotFound = errors.New("auth.user_not_found")

	// ErrEmailNotVerified indicates the account exists but has not
	// completed email verification. Distinct so clients can prompt for
	// verification instead of a re-login.
	ErrEmailNotVerified = errors.New("auth.email_not_verified")

	// ErrAccountInactive indicates a suspended or otherwise disabled
	// account.
	ErrAccountInactive = errors.New("auth.account_inactive")
)
