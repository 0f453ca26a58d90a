package session

import (
	"time"

	"github.com/google/uuid"
)

// Session represents one authenticated login instance. ID is the raw random
// identifier as stored in the database; the signed wire form is derived at
// presentation time and never persisted.
type Session struct {
	ID             string    `json:"id"`
	UserID         uuid.UUID `json:"user_id"`
	CreatedAt      time.Time `json:"created_at"`
	ExpiresAt      time.Time `json:"expires_at"`
	LastActivityAt time.Time `json:"last_activity_at"`
}

// ExpiredAt reports whether the session is past its expiry at the given
// instant. Expiry is inclusive: a session whose ExpiresAt equals now is
// already expired.
func (s *Session) ExpiredAt(now time.Time) bool {
	return s != nil && !s.ExpiresAt.After(now)
}

// Remaining returns the lifetime left at the given instant. Negative once
// expired.
func (s *Session) Remaining(now time.Time) time.Duration {
	return s.ExpiresAt.Sub(now)
}

// Stats summarizes the store contents for observability.
type Stats struct {
	Total  int64 `json:"total"`
	Active int64 `json:"active"`
}
