package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionLocks_SerializesSameKey(t *testing.T) {
	locks := newSessionLocks()
	ctx := context.Background()

	unlock, err := locks.Lock(ctx, "team/s1")
	require.NoError(t, err)

	acquired := make(chan struct{})
	go func() {
		second, err := locks.Lock(ctx, "team/s1")
		if err == nil {
			close(acquired)
			second()
		}
	}()

	select {
	case <-acquired:
		t.Fatal("second turn ran while the first held the session")
	case <-time.After(50 * time.Millisecond):
	}

	unlock()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second turn never acquired the session")
	}
	assert.Eventually(t, func() bool { return locks.size() == 0 }, time.Second, 5*time.Millisecond)
}

func TestSessionLocks_IndependentKeys(t *testing.T) {
	locks := newSessionLocks()
	ctx := context.Background()

	a, err := locks.Lock(ctx, "team/s1")
	require.NoError(t, err)
	defer a()

	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	b, err := locks.Lock(ctx, "team/s2")
	require.NoError(t, err)
	b()
}

func TestSessionLocks_CancelledWait(t *testing.T) {
	locks := newSessionLocks()

	unlock, err := locks.Lock(context.Background(), "team/s1")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = locks.Lock(ctx, "team/s1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()
	unlock() // releasing twice is harmless
	assert.Equal(t, 0, locks.size())
}

func TestSessionLocks_ManyWaiters(t *testing.T) {
	locks := newSessionLocks()
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		running int
		maxSeen int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := locks.Lock(ctx, "team/s1")
			if err != nil {
				return
			}
			defer unlock()

			mu.Lock()
			running++
			if running > maxSeen {
				maxSeen = running
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			running--
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen)
	assert.Equal(t, 0, locks.size())
}

func TestSessionLocks_FreeKeyIgnoresCancelledContext(t *testing.T) {
	locks := newSessionLocks()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	unlock, err := locks.Lock(ctx, "team/s1")
	require.NoError(t, err)
	unlock()
	assert.Equal(t, 0, locks.size())
}
