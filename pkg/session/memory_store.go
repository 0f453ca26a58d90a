package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore implements Store with an in-process map. Intended for tests
// and development; it honors the full contract including eviction ordering.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewMemoryStore creates an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*Session)}
}

// Insert stores a new session, rejecting duplicate identifiers.
func (m *MemoryStore) Insert(ctx context.Context, sess *Session) error {
	if sess == nil || sess.ID == "" {
		return ErrInvalidToken
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sessions[sess.ID]; exists {
		return ErrDuplicateID
	}

	cp := *sess
	m.sessions[sess.ID] = &cp
	return nil
}

// FindByID returns a copy of the stored session, expired or not.
func (m *MemoryStore) FindByID(ctx context.Context, id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sess, exists := m.sessions[id]
	if !exists {
		return nil, ErrSessionNotFound
	}

	cp := *sess
	return &cp, nil
}

// UpdateExpiry persists a sliding refresh.
func (m *MemoryStore) UpdateExpiry(ctx context.Context, id string, expiresAt, lastActivity time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, exists := m.sessions[id]
	if !exists {
		return ErrSessionNotFound
	}

	sess.ExpiresAt = expiresAt
	sess.LastActivityAt = lastActivity
	return nil
}

// Delete removes a session; absent identifiers are a no-op.
func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, id)
	return nil
}

// DeleteExpired removes all sessions with expires_at <= now.
func (m *MemoryStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var count int64
	for id, sess := range m.sessions {
		if sess.ExpiredAt(now) {
			delete(m.sessions, id)
			count++
		}
	}
	return count, nil
}

// CountForUser returns the number of stored sessions for a user.
func (m *MemoryStore) CountForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var count int64
	for _, sess := range m.sessions {
		if sess.UserID == userID {
			count++
		}
	}
	return count, nil
}

// DeleteOldestForUser removes and returns the oldest session by created_at,
// ties broken by identifier, matching the relational ordering.
func (m *MemoryStore) DeleteOldestForUser(ctx context.Context, userID uuid.UUID) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var oldest *Session
	for _, sess := range m.sessions {
		if sess.UserID != userID {
			continue
		}
		if oldest == nil ||
			sess.CreatedAt.Before(oldest.CreatedAt) ||
			(sess.CreatedAt.Equal(oldest.CreatedAt) && sess.ID < oldest.ID) {
			oldest = sess
		}
	}

	if oldest == nil {
		return nil, nil
	}

	delete(m.sessions, oldest.ID)
	cp := *oldest
	return &cp, nil
}

// ListForUser returns all of the user's sessions, oldest first.
func (m *MemoryStore) ListForUser(ctx context.Context, userID uuid.UUID) ([]*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var sessions []*Session
	for _, sess := range m.sessions {
		if sess.UserID == userID {
			cp := *sess
			sessions = append(sessions, &cp)
		}
	}

	// Insertion-order stability is not guaranteed by the map; sort like
	// the relational stores do.
	for i := 1; i < len(sessions); i++ {
		for j := i; j > 0; j-- {
			a, b := sessions[j-1], sessions[j]
			if a.CreatedAt.Before(b.CreatedAt) ||
				(a.CreatedAt.Equal(b.CreatedAt) && a.ID < b.ID) {
				break
			}
			sessions[j-1], sessions[j] = b, a
		}
	}

	return sessions, nil
}

// DeleteForUser removes all sessions for a user.
func (m *MemoryStore) DeleteForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var count int64
	for id, sess := range m.sessions {
		if sess.UserID == userID {
			delete(m.sessions, id)
			count++
		}
	}
	return count, nil
}

// ExpireForUser force-expires the user's live sessions.
func (m *MemoryStore) ExpireForUser(ctx context.Context, userID uuid.UUID, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var count int64
	for _, sess := range m.sessions {
		if sess.UserID == userID && !sess.ExpiredAt(now) {
			sess.ExpiresAt = now
			count++
		}
	}
	return count, nil
}

// Stats returns total and active counts.
func (m *MemoryStore) Stats(ctx context.Context, now time.Time) (Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := Stats{Total: int64(len(m.sessions))}
	for _, sess := range m.sessions {
		if !sess.ExpiredAt(now) {
			stats.Active++
		}
	}
	return stats, nil
}
