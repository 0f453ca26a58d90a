package async_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/cmskit/pkg/async"
)

func TestRun(t *testing.T) {
	t.Parallel()

	t.Run("returns result", func(t *testing.T) {
		t.Parallel()

		ex := async.NewExecutor(2)
		future := async.Run(context.Background(), ex, func(ctx context.Context) (int, error) {
			return 42, nil
		})

		result, err := future.Await()
		require.NoError(t, err)
		assert.Equal(t, 42, result)
	})

	t.Run("propagates operation error", func(t *testing.T) {
		t.Parallel()

		wantErr := errors.New("boom")
		ex := async.NewExecutor(2)
		future := async.Run(context.Background(), ex, func(ctx context.Context) (string, error) {
			return "", wantErr
		})

		_, err := future.Await()
		assert.ErrorIs(t, err, wantErr)
	})

	t.Run("pre-cancelled context never runs operation", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		ran := false
		ex := async.NewExecutor(2)
		future := async.Run(ctx, ex, func(ctx context.Context) (int, error) {
			ran = true
			return 0, nil
		})

		_, err := future.Await()
		assert.ErrorIs(t, err, context.Canceled)
		assert.False(t, ran)
	})

	t.Run("exhaustion surfaces as ErrPoolExhausted", func(t *testing.T) {
		t.Parallel()

		ex := async.NewExecutor(1, async.WithAcquireTimeout(50*time.Millisecond))

		release := make(chan struct{})
		blocked := async.Run(context.Background(), ex, func(ctx context.Context) (int, error) {
			<-release
			return 1, nil
		})

		// Second operation cannot get a slot within the acquire timeout.
		_, err := async.Run(context.Background(), ex, func(ctx context.Context) (int, error) {
			return 2, nil
		}).Await()
		assert.ErrorIs(t, err, async.ErrPoolExhausted)

		close(release)
		result, err := blocked.Await()
		require.NoError(t, err)
		assert.Equal(t, 1, result)
	})

	t.Run("slot is released after completion", func(t *testing.T) {
		t.Parallel()

		ex := async.NewExecutor(1)

		for range 3 {
			result, err := async.Run(context.Background(), ex, func(ctx context.Context) (int, error) {
				return 7, nil
			}).Await()
			require.NoError(t, err)
			assert.Equal(t, 7, result)
		}
		assert.Equal(t, 0, ex.InFlight())
	})

	t.Run("bounds concurrency to capacity", func(t *testing.T) {
		t.Parallel()

		const capacity = 3
		ex := async.NewExecutor(capacity, async.WithAcquireTimeout(time.Second))

		var mu sync.Mutex
		var current, peak int

		futures := make([]*async.Future[int], 0, 10)
		for i := range 10 {
			futures = append(futures, async.Run(context.Background(), ex, func(ctx context.Context) (int, error) {
				mu.Lock()
				current++
				if current > peak {
					peak = current
				}
				mu.Unlock()

				time.Sleep(10 * time.Millisecond)

				mu.Lock()
				current--
				mu.Unlock()
				return i, nil
			}))
		}

		_, err := async.WaitAll(futures...)
		require.NoError(t, err)
		assert.LessOrEqual(t, peak, capacity)
	})
}

func TestFuture(t *testing.T) {
	t.Parallel()

	t.Run("AwaitWithTimeout times out", func(t *testing.T) {
		t.Parallel()

		ex := async.NewExecutor(1)
		future := async.Run(context.Background(), ex, func(ctx context.Context) (int, error) {
			time.Sleep(200 * time.Millisecond)
			return 1, nil
		})

		_, err := future.AwaitWithTimeout(20 * time.Millisecond)
		assert.ErrorIs(t, err, async.ErrTimeout)

		// The operation still completes after the abandoned wait.
		result, err := future.Await()
		require.NoError(t, err)
		assert.Equal(t, 1, result)
	})

	t.Run("IsComplete", func(t *testing.T) {
		t.Parallel()

		ex := async.NewExecutor(1)
		release := make(chan struct{})
		future := async.Run(context.Background(), ex, func(ctx context.Context) (int, error) {
			<-release
			return 1, nil
		})

		assert.False(t, future.IsComplete())
		close(release)

		_, err := future.Await()
		require.NoError(t, err)
		assert.True(t, future.IsComplete())
	})
}
