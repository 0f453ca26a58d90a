package session

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/cmskit/pkg/async"
	"github.com/dmitrymomot/cmskit/pkg/signer"
)

// maxIDAttempts bounds regeneration on identifier collision before the
// entropy source is declared suspect.
const maxIDAttempts = 3

// defaultExecutorCapacity is used when no executor is supplied. Production
// setups should size the executor to the connection pool instead.
const defaultExecutorCapacity = 10

// Manager orchestrates the session lifecycle over a Store. Safe for
// concurrent use.
type Manager struct {
	store  Store
	cfg    Config
	signer *signer.Signer
	exec   *async.Executor
	log    *slog.Logger
	now    func() time.Time
	newID  func() string
}

// Option configures a Manager.
type Option func(*Manager)

// WithSigner overrides the signer built from Config.Secret. Useful when the
// secret lives in a key manager rather than plain configuration.
func WithSigner(s *signer.Signer) Option {
	return func(m *Manager) { m.signer = s }
}

// WithExecutor sets the async executor store calls run through. Size it to
// the connection pool capacity.
func WithExecutor(e *async.Executor) Option {
	return func(m *Manager) {
		if e != nil {
			m.exec = e
		}
	}
}

// WithClock injects the time source, for tests and deterministic expiry.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithIDGenerator injects the raw identifier generator. The default is
// UUIDv4, which carries the required 122 bits of entropy.
func WithIDGenerator(gen func() string) Option {
	return func(m *Manager) {
		if gen != nil {
			m.newID = gen
		}
	}
}

// WithLogger sets the logger used for lifecycle events.
func WithLogger(log *slog.Logger) Option {
	return func(m *Manager) {
		if log != nil {
			m.log = log
		}
	}
}

// New creates a Manager. Configuration problems (weak secret, non-positive
// duration) are reported here, at startup, never per request.
func New(store Store, cfg Config, opts ...Option) (*Manager, error) {
	if store == nil {
		return nil, errors.Join(ErrInvalidConfig, errors.New("store is required"))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	m := &Manager{
		store: store,
		cfg:   cfg,
		log:   slog.Default(),
		now:   time.Now,
		newID: uuid.NewString,
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.signer == nil && cfg.EnableSigning {
		s, err := signer.New(cfg.Secret)
		if err != nil {
			return nil, err
		}
		m.signer = s
	}

	if m.exec == nil {
		m.exec = async.NewExecutor(defaultExecutorCapacity)
	}

	return m, nil
}

// run routes a blocking store call through the executor so request handling
// is only suspended, never blocked on the backend.
func run[T any](ctx context.Context, m *Manager, fn func(context.Context) (T, error)) (T, error) {
	return async.Run(ctx, m.exec, fn).Await()
}

// CreateSession issues a new session for the user and returns the wire token
// together with the stored row. The per-user limit is enforced here by
// evicting the oldest sessions before the insert.
//
// Limit enforcement is deliberately relaxed: there is no per-user lock, so
// concurrent creations can transiently exceed the limit by one. The next
// creation or reaper sweep corrects the overshoot. This trades strict
// enforcement for lower contention on the hot login path.
func (m *Manager) CreateSession(ctx context.Context, userID uuid.UUID) (string, *Session, error) {
	if err := m.enforceLimit(ctx, userID); err != nil {
		return "", nil, err
	}

	now := m.now()

	var lastErr error
	for range maxIDAttempts {
		sess := &Session{
			ID:             m.newID(),
			UserID:         userID,
			CreatedAt:      now,
			ExpiresAt:      now.Add(m.cfg.Duration),
			LastActivityAt: now,
		}

		_, err := run(ctx, m, func(ctx context.Context) (struct{}, error) {
			return struct{}{}, m.store.Insert(ctx, sess)
		})
		if err == nil {
			m.log.InfoContext(ctx, "session created",
				slog.String("user_id", userID.String()),
				slog.Time("expires_at", sess.ExpiresAt))
			return m.presentToken(sess.ID), sess, nil
		}
		if !errors.Is(err, ErrDuplicateID) {
			return "", nil, err
		}

		// Collision on a 122-bit random identifier: regenerate, bounded.
		lastErr = err
		m.log.WarnContext(ctx, "session identifier collision, regenerating",
			slog.String("user_id", userID.String()))
	}

	return "", nil, errors.Join(ErrIDGeneration, lastErr)
}

// ValidateSession resolves a wire token to a live session. Signed tokens are
// verified and unwrapped; unsigned tokens are accepted as raw identifiers
// while the signing migration window is open. Expired sessions fail closed
// and are opportunistically deleted. When refresh is enabled and the
// remaining lifetime is below the threshold, expiry is extended and persisted
// before returning.
func (m *Manager) ValidateSession(ctx context.Context, token string) (*Session, error) {
	id, err := m.resolveID(token)
	if err != nil {
		return nil, err
	}

	sess, err := run(ctx, m, func(ctx context.Context) (*Session, error) {
		return m.store.FindByID(ctx, id)
	})
	if err != nil {
		return nil, err
	}

	now := m.now()
	if sess.ExpiredAt(now) {
		// Lazy cleanup; the reaper would get it anyway.
		if _, err := run(ctx, m, func(ctx context.Context) (struct{}, error) {
			return struct{}{}, m.store.Delete(ctx, id)
		}); err != nil {
			m.log.WarnContext(ctx, "failed to delete expired session", slog.Any("error", err))
		}
		return nil, ErrSessionExpired
	}

	if m.cfg.EnableRefresh && sess.Remaining(now) < m.cfg.RefreshThreshold {
		expiresAt := now.Add(m.cfg.Duration)
		if _, err := run(ctx, m, func(ctx context.Context) (struct{}, error) {
			return struct{}{}, m.store.UpdateExpiry(ctx, id, expiresAt, now)
		}); err != nil {
			return nil, err
		}
		sess.ExpiresAt = expiresAt
		sess.LastActivityAt = now
	}

	return sess, nil
}

// RevokeSession deletes the session a token resolves to. Idempotent:
// revoking an unknown or already-expired session is not an error, so a
// double logout never fails.
func (m *Manager) RevokeSession(ctx context.Context, token string) error {
	id, err := m.resolveID(token)
	if err != nil {
		return err
	}

	_, err = run(ctx, m, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, m.store.Delete(ctx, id)
	})
	return err
}

// ReapExpired deletes every session past its expiry and returns the count
// removed. Invoked by the background Reaper; safe to call manually.
func (m *Manager) ReapExpired(ctx context.Context) (int64, error) {
	now := m.now()
	return run(ctx, m, func(ctx context.Context) (int64, error) {
		return m.store.DeleteExpired(ctx, now)
	})
}

// UserSessions returns the user's active sessions, oldest first.
func (m *Manager) UserSessions(ctx context.Context, userID uuid.UUID) ([]*Session, error) {
	sessions, err := run(ctx, m, func(ctx context.Context) ([]*Session, error) {
		return m.store.ListForUser(ctx, userID)
	})
	if err != nil {
		return nil, err
	}

	now := m.now()
	active := sessions[:0]
	for _, sess := range sessions {
		if !sess.ExpiredAt(now) {
			active = append(active, sess)
		}
	}
	return active, nil
}

// RevokeUserSessions deletes all of the user's sessions and returns the
// count removed. Used for logout-everywhere.
func (m *Manager) RevokeUserSessions(ctx context.Context, userID uuid.UUID) (int64, error) {
	return run(ctx, m, func(ctx context.Context) (int64, error) {
		return m.store.DeleteForUser(ctx, userID)
	})
}

// ForceExpireUserSessions immediately expires all of the user's live
// sessions, for security incidents where revocation must not wait for
// clients to present tokens.
func (m *Manager) ForceExpireUserSessions(ctx context.Context, userID uuid.UUID) (int64, error) {
	now := m.now()
	count, err := run(ctx, m, func(ctx context.Context) (int64, error) {
		return m.store.ExpireForUser(ctx, userID, now)
	})
	if err != nil {
		return 0, err
	}
	if count > 0 {
		m.log.WarnContext(ctx, "force expired user sessions",
			slog.String("user_id", userID.String()),
			slog.Int64("count", count))
	}
	return count, nil
}

// Stats returns total and active session counts.
func (m *Manager) Stats(ctx context.Context) (Stats, error) {
	now := m.now()
	return run(ctx, m, func(ctx context.Context) (Stats, error) {
		return m.store.Stats(ctx, now)
	})
}

// resolveID maps a wire token to the raw identifier used for lookups. With
// signing enabled this is the dual-path acceptance documented in the package
// comment: signed tokens must verify, unsigned tokens pass through unchanged.
// Both failure modes collapse into ErrInvalidToken so the caller cannot tell
// a bad signature from garbage.
func (m *Manager) resolveID(token string) (string, error) {
	if m.signer == nil {
		if token == "" {
			return "", ErrInvalidToken
		}
		return token, nil
	}

	parsed := signer.Parse(token)
	switch parsed.Kind {
	case signer.KindSigned:
		id, err := m.signer.Verify(token)
		if err != nil {
			return "", ErrInvalidToken
		}
		return id, nil
	case signer.KindUnsigned:
		return parsed.ID, nil
	default:
		return "", ErrInvalidToken
	}
}

// presentToken derives the wire form of a raw identifier.
func (m *Manager) presentToken(id string) string {
	if m.signer == nil {
		return id
	}
	return m.signer.Sign(id)
}

// enforceLimit evicts oldest sessions until the user is below MaxPerUser,
// leaving room for the session about to be created.
func (m *Manager) enforceLimit(ctx context.Context, userID uuid.UUID) error {
	count, err := run(ctx, m, func(ctx context.Context) (int64, error) {
		return m.store.CountForUser(ctx, userID)
	})
	if err != nil {
		return err
	}

	for count >= int64(m.cfg.MaxPerUser) {
		evicted, err := run(ctx, m, func(ctx context.Context) (*Session, error) {
			return m.store.DeleteOldestForUser(ctx, userID)
		})
		if err != nil {
			return errors.Join(ErrLimitEviction, err)
		}
		if evicted == nil {
			// Another creation's eviction raced ours; the count is stale.
			break
		}
		count--

		m.log.InfoContext(ctx, "evicted oldest session to stay within limit",
			slog.String("user_id", userID.String()),
			slog.Time("created_at", evicted.CreatedAt))
	}

	return nil
}
