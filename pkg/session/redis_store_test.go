package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/cmskit/pkg/session"
)

func setupRedisStore(t *testing.T) *session.RedisStore {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return session.NewRedisStore(client)
}

func TestRedisStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("insert and find", func(t *testing.T) {
		t.Parallel()

		store := setupRedisStore(t)
		now := time.Now().UTC().Truncate(time.Second)
		sess := newTestSession(uuid.New(), now, time.Hour)
		require.NoError(t, store.Insert(ctx, sess))

		found, err := store.FindByID(ctx, sess.ID)
		require.NoError(t, err)
		assert.Equal(t, sess.ID, found.ID)
		assert.Equal(t, sess.UserID, found.UserID)
		assert.True(t, sess.ExpiresAt.Equal(found.ExpiresAt))
	})

	t.Run("insert rejects duplicate identifier", func(t *testing.T) {
		t.Parallel()

		store := setupRedisStore(t)
		sess := newTestSession(uuid.New(), time.Now().UTC(), time.Hour)
		require.NoError(t, store.Insert(ctx, sess))
		assert.ErrorIs(t, store.Insert(ctx, sess), session.ErrDuplicateID)
	})

	t.Run("unknown identifier", func(t *testing.T) {
		t.Parallel()

		store := setupRedisStore(t)
		_, err := store.FindByID(ctx, uuid.NewString())
		assert.ErrorIs(t, err, session.ErrSessionNotFound)
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		t.Parallel()

		store := setupRedisStore(t)
		sess := newTestSession(uuid.New(), time.Now().UTC(), time.Hour)
		require.NoError(t, store.Insert(ctx, sess))

		require.NoError(t, store.Delete(ctx, sess.ID))
		assert.NoError(t, store.Delete(ctx, sess.ID))

		_, err := store.FindByID(ctx, sess.ID)
		assert.ErrorIs(t, err, session.ErrSessionNotFound)
	})

	t.Run("update expiry", func(t *testing.T) {
		t.Parallel()

		store := setupRedisStore(t)
		now := time.Now().UTC().Truncate(time.Second)
		sess := newTestSession(uuid.New(), now, time.Hour)
		require.NoError(t, store.Insert(ctx, sess))

		newExpiry := now.Add(48 * time.Hour)
		require.NoError(t, store.UpdateExpiry(ctx, sess.ID, newExpiry, now.Add(time.Minute)))

		found, err := store.FindByID(ctx, sess.ID)
		require.NoError(t, err)
		assert.True(t, newExpiry.Equal(found.ExpiresAt))

		assert.ErrorIs(t,
			store.UpdateExpiry(ctx, "missing", newExpiry, now),
			session.ErrSessionNotFound)
	})

	t.Run("count and list for user", func(t *testing.T) {
		t.Parallel()

		store := setupRedisStore(t)
		userID := uuid.New()
		now := time.Now().UTC()

		for i := range 3 {
			sess := newTestSession(userID, now.Add(time.Duration(i)*time.Minute), time.Hour)
			require.NoError(t, store.Insert(ctx, sess))
		}
		require.NoError(t, store.Insert(ctx, newTestSession(uuid.New(), now, time.Hour)))

		count, err := store.CountForUser(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, int64(3), count)

		sessions, err := store.ListForUser(ctx, userID)
		require.NoError(t, err)
		require.Len(t, sessions, 3)
		for i := 1; i < len(sessions); i++ {
			assert.False(t, sessions[i].CreatedAt.Before(sessions[i-1].CreatedAt))
		}
	})

	t.Run("delete oldest for user", func(t *testing.T) {
		t.Parallel()

		store := setupRedisStore(t)
		userID := uuid.New()
		now := time.Now().UTC()

		oldest := newTestSession(userID, now.Add(-time.Hour), 2*time.Hour)
		newer := newTestSession(userID, now, time.Hour)
		require.NoError(t, store.Insert(ctx, oldest))
		require.NoError(t, store.Insert(ctx, newer))

		evicted, err := store.DeleteOldestForUser(ctx, userID)
		require.NoError(t, err)
		require.NotNil(t, evicted)
		assert.Equal(t, oldest.ID, evicted.ID)

		count, err := store.CountForUser(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})

	t.Run("delete oldest for user with no sessions", func(t *testing.T) {
		t.Parallel()

		store := setupRedisStore(t)
		evicted, err := store.DeleteOldestForUser(ctx, uuid.New())
		require.NoError(t, err)
		assert.Nil(t, evicted)
	})

	t.Run("delete expired cleans indexes", func(t *testing.T) {
		t.Parallel()

		store := setupRedisStore(t)
		userID := uuid.New()
		now := time.Now().UTC()

		soon := newTestSession(userID, now, time.Minute)
		later := newTestSession(userID, now, time.Hour)
		require.NoError(t, store.Insert(ctx, soon))
		require.NoError(t, store.Insert(ctx, later))

		count, err := store.DeleteExpired(ctx, now.Add(2*time.Minute))
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)

		_, err = store.FindByID(ctx, soon.ID)
		assert.ErrorIs(t, err, session.ErrSessionNotFound)

		remaining, err := store.CountForUser(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), remaining)
	})

	t.Run("delete for user", func(t *testing.T) {
		t.Parallel()

		store := setupRedisStore(t)
		userID := uuid.New()
		now := time.Now().UTC()

		for range 2 {
			require.NoError(t, store.Insert(ctx, newTestSession(userID, now, time.Hour)))
		}
		other := newTestSession(uuid.New(), now, time.Hour)
		require.NoError(t, store.Insert(ctx, other))

		count, err := store.DeleteForUser(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)

		_, err = store.FindByID(ctx, other.ID)
		assert.NoError(t, err)
	})

	t.Run("stats", func(t *testing.T) {
		t.Parallel()

		store := setupRedisStore(t)
		now := time.Now().UTC()

		require.NoError(t, store.Insert(ctx, newTestSession(uuid.New(), now, time.Minute)))
		require.NoError(t, store.Insert(ctx, newTestSession(uuid.New(), now, time.Hour)))

		stats, err := store.Stats(ctx, now.Add(2*time.Minute))
		require.NoError(t, err)
		assert.Equal(t, session.Stats{Total: 2, Active: 1}, stats)
	})

	t.Run("works through the manager", func(t *testing.T) {
		t.Parallel()

		store := setupRedisStore(t)
		cfg := testConfig()
		mgr, err := session.New(store, cfg)
		require.NoError(t, err)

		token, _, err := mgr.CreateSession(ctx, uuid.New())
		require.NoError(t, err)

		sess, err := mgr.ValidateSession(ctx, token)
		require.NoError(t, err)
		assert.NotNil(t, sess)

		require.NoError(t, mgr.RevokeSession(ctx, token))
		_, err = mgr.ValidateSession(ctx, token)
		assert.True(t, session.IsUnauthorized(err))
	})
}
