package service

import (
	"context"
	"sync"
)

// sessionLocks serializes turns of one session within this process, so each
// turn loads the context its predecessor saved.
type sessionLocks struct {
	mu    sync.Mutex
	slots map[string]*sessionSlot
}

type sessionSlot struct {
	ch   chan struct{}
	refs int
}

func newSessionLocks() *sessionLocks {
	return &sessionLocks{slots: make(map[string]*sessionSlot)}
}

// Lock waits until no other turn holds key. The returned func releases it.
func (l *sessionLocks) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	slot, ok := l.slots[key]
	if !ok {
		slot = &sessionSlot{ch: make(chan struct{}, 1)}
		l.slots[key] = slot
	}
	slot.refs++
	l.mu.Unlock()

	unlock := func() func() {
		var once sync.Once
		return func() {
			once.Do(func() {
				<-slot.ch
				l.release(key, slot)
			})
		}
	}

	// An uncontended session is taken even if ctx is already done.
	select {
	case slot.ch <- struct{}{}:
		return unlock(), nil
	default:
	}

	select {
	case slot.ch <- struct{}{}:
		return unlock(), nil
	case <-ctx.Done():
		l.release(key, slot)
		return nil, ctx.Err()
	}
}

func (l *sessionLocks) release(key string, slot *sessionSlot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	slot.refs--
	if slot.refs == 0 {
		delete(l.slots, key)
	}
}

func (l *sessionLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.slots)
}
