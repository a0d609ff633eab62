package locking

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLocker(t *testing.T) {
	ctx := context.Background()

	t.Run("acquire and release", func(t *testing.T) {
		locker := NewMemoryLocker()

		release, err := locker.Acquire(ctx, "subscription:abc")
		require.NoError(t, err)
		require.NotNil(t, release)

		release()

		release, err = locker.Acquire(ctx, "subscription:abc")
		require.NoError(t, err)
		release()
	})

	t.Run("held key fails immediately", func(t *testing.T) {
		locker := NewMemoryLocker()

		release, err := locker.Acquire(ctx, "subscription:abc")
		require.NoError(t, err)
		defer release()

		_, err = locker.Acquire(ctx, "subscription:abc")
		assert.ErrorIs(t, err, ErrLockHeld)
	})

	t.Run("keys are independent", func(t *testing.T) {
		locker := NewMemoryLocker()

		releaseA, err := locker.Acquire(ctx, "subscription:a")
		require.NoError(t, err)
		defer releaseA()

		releaseB, err := locker.Acquire(ctx, "subscription:b")
		require.NoError(t, err)
		releaseB()
	})

	t.Run("only one concurrent holder per key", func(t *testing.T) {
		locker := NewMemoryLocker()

		var wg sync.WaitGroup
		var mu sync.Mutex
		acquired := 0

		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				release, err := locker.Acquire(ctx, "subscription:contended")
				if err != nil {
					return
				}
				defer release()
				mu.Lock()
				acquired++
				mu.Unlock()
			}()
		}
		wg.Wait()

		assert.GreaterOrEqual(t, acquired, 1)
	})
}
