package session_test

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/cmskit/pkg/session"
)

// flakyStore fails DeleteExpired a fixed number of times before delegating,
// simulating a transient store outage during sweeps.
type flakyStore struct {
	*session.MemoryStore
	failures atomic.Int32
	calls    atomic.Int32
}

func (f *flakyStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	f.calls.Add(1)
	if f.failures.Add(-1) >= 0 {
		return 0, errors.New("store temporarily unavailable")
	}
	return f.MemoryStore.DeleteExpired(ctx, now)
}

func TestReaper(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("removes expired sessions on tick", func(t *testing.T) {
		t.Parallel()

		clock := newFakeClock()
		store := session.NewMemoryStore()
		mgr, err := session.New(store, testConfig(), session.WithClock(clock.Now))
		require.NoError(t, err)

		expired := newTestSession(uuid.New(), clock.Now().Add(-48*time.Hour), time.Hour)
		require.NoError(t, store.Insert(ctx, expired))
		live := newTestSession(uuid.New(), clock.Now(), 24*time.Hour)
		require.NoError(t, store.Insert(ctx, live))

		runCtx, cancel := context.WithCancel(ctx)
		done := make(chan struct{})
		go func() {
			defer close(done)
			session.NewReaper(mgr, 10*time.Millisecond).Run(runCtx)
		}()

		assert.Eventually(t, func() bool {
			_, err := store.FindByID(ctx, expired.ID)
			return errors.Is(err, session.ErrSessionNotFound)
		}, time.Second, 5*time.Millisecond)

		_, err = store.FindByID(ctx, live.ID)
		assert.NoError(t, err)

		cancel()
		<-done
	})

	t.Run("failed sweep does not stop future sweeps", func(t *testing.T) {
		t.Parallel()

		clock := newFakeClock()
		store := &flakyStore{MemoryStore: session.NewMemoryStore()}
		store.failures.Store(2)

		mgr, err := session.New(store, testConfig(),
			session.WithClock(clock.Now),
			session.WithLogger(slog.New(slog.DiscardHandler)))
		require.NoError(t, err)

		expired := newTestSession(uuid.New(), clock.Now().Add(-48*time.Hour), time.Hour)
		require.NoError(t, store.Insert(ctx, expired))

		runCtx, cancel := context.WithCancel(ctx)
		done := make(chan struct{})
		go func() {
			defer close(done)
			session.NewReaper(mgr, 10*time.Millisecond).Run(runCtx)
		}()

		// The first two sweeps fail; a later one still purges the row.
		assert.Eventually(t, func() bool {
			_, err := store.FindByID(ctx, expired.ID)
			return errors.Is(err, session.ErrSessionNotFound)
		}, time.Second, 5*time.Millisecond)
		assert.GreaterOrEqual(t, store.calls.Load(), int32(3))

		cancel()
		<-done
	})

	t.Run("zero interval disables the reaper", func(t *testing.T) {
		t.Parallel()

		clock := newFakeClock()
		mgr, err := session.New(session.NewMemoryStore(), testConfig(), session.WithClock(clock.Now))
		require.NoError(t, err)

		done := make(chan struct{})
		go func() {
			defer close(done)
			// Interval <= 0 falls back to the config value, which is 0
			// in testConfig, so Run returns immediately.
			session.NewReaper(mgr, 0).Run(ctx)
		}()

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("reaper did not return for zero interval")
		}
	})
}
