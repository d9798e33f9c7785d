package lock_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventhub/internal/tickets/lock"
)

func TestLocalLockerMutualExclusion(t *testing.T) {
	locker := lock.NewLocalLocker()
	ctx := context.Background()

	ok, err := locker.LockEvent(ctx, "ev1", "t1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = locker.LockEvent(ctx, "ev1", "t2")
	require.NoError(t, err)
	assert.False(t, ok)

	// A different event is independent.
	ok, err = locker.LockEvent(ctx, "ev2", "t2")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLocalLockerUnlock(t *testing.T) {
	locker := lock.NewLocalLocker()
	ctx := context.Background()

	ok, _ := locker.LockEvent(ctx, "ev1", "t1")
	require.True(t, ok)

	// Wrong token may not release someone else's lock.
	err := locker.UnlockEvent(ctx, "ev1", "t2")
	assert.Error(t, err)
	ok, _ = locker.LockEvent(ctx, "ev1", "t3")
	assert.False(t, ok)

	require.NoError(t, locker.UnlockEvent(ctx, "ev1", "t1"))
	ok, _ = locker.LockEvent(ctx, "ev1", "t3")
	assert.True(t, ok)
}

func TestLocalLockerSingleWinnerUnderContention(t *testing.T) {
	locker := lock.NewLocalLocker()
	ctx := context.Background()

	const goroutines = 32
	var wg sync.WaitGroup
	wins := make(chan string, goroutines)

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(token string) {
			defer wg.Done()
			if ok, _ := locker.LockEvent(ctx, "ev1", token); ok {
				wins <- token
			}
		}(string(rune('a' + i)))
	}
	wg.Wait()
	close(wins)

	assert.Len(t, drain(wins), 1)
}

func drain(ch chan string) []string {
	var out []string
	for v := range ch {
		out = append(out, v)
	}
	return out
}
