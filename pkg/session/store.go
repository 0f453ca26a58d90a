package session

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store defines the persistence contract for session rows. Every operation
// may block on the backend and is only ever invoked through the async
// executor by the Manager, never directly from request-handling flow.
//
// Stores are clock-free: operations that depend on expiry take an explicit
// now parameter so policy stays with the Manager and tests control time.
type Store interface {
	// Insert persists a new session. Returns ErrDuplicateID when the
	// identifier already exists; connectivity failures are wrapped in
	// ErrStoreUnavailable.
	Insert(ctx context.Context, sess *Session) error

	// FindByID returns the session for a raw identifier, or
	// ErrSessionNotFound. Expired sessions are still returned; expiry
	// policy belongs to the Manager.
	FindByID(ctx context.Context, id string) (*Session, error)

	// UpdateExpiry persists a sliding refresh. Returns ErrSessionNotFound
	// when the row vanished in the meantime.
	UpdateExpiry(ctx context.Context, id string, expiresAt, lastActivity time.Time) error

	// Delete removes a session. Idempotent: deleting an absent identifier
	// is not an error.
	Delete(ctx context.Context, id string) error

	// DeleteExpired removes all rows with expires_at <= now and returns
	// the count removed.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)

	// CountForUser returns the number of stored sessions for a user.
	CountForUser(ctx context.Context, userID uuid.UUID) (int64, error)

	// DeleteOldestForUser removes and returns the user's oldest session
	// by created_at ascending, ties broken by identifier ascending.
	// Returns (nil, nil) when the user has no sessions.
	DeleteOldestForUser(ctx context.Context, userID uuid.UUID) (*Session, error)

	// ListForUser returns all stored sessions for a user, oldest first.
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*Session, error)

	// DeleteForUser removes all sessions for a user and returns the count.
	DeleteForUser(ctx context.Context, userID uuid.UUID) (int64, error)

	// ExpireForUser sets expires_at to now for all of the user's live
	// sessions and returns the count affected.
	ExpireForUser(ctx context.Context, userID uuid.UUID, now time.Time) (int64, error)

	// Stats returns total and active (unexpired at now) session counts.
	Stats(ctx context.Context, now time.Time) (Stats, error)
}
