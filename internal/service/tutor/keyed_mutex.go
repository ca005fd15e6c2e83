package tutor

import (
	"context"
	"sync"
)

// keyedMutex hands out one lock per key and forgets it once nobody holds
// or waits on it.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

// refMutex is a one-slot channel so waiting can be abandoned.
type refMutex struct {
	slot chan struct{}
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*refMutex)}
}

// Lock blocks until key is free or ctx is done. On success it returns the
// matching unlock func; otherwise ctx's error and nothing is held.
func (k *keyedMutex) Lock(ctx context.Context, key string) (func(), error) {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{slot: make(chan struct{}, 1)}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	select {
	case m.slot <- struct{}{}:
	case <-ctx.Done():
		k.release(key, m)
		return nil, ctx.Err()
	}

	// select picks at random when both cases are ready.
	if err := ctx.Err(); err != nil {
		<-m.slot
		k.release(key, m)
		return nil, err
	}

	return func() {
		<-m.slot
		k.release(key, m)
	}, nil
}

func (k *keyedMutex) release(key string, m *refMutex) {
	k.mu.Lock()
	m.refs--
	if m.refs == 0 {
		delete(k.locks, key)
	}
	k.mu.Unlock()
}

func (k *keyedMutex) len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}

// waiters reports how many callers hold or wait on key.
func (k *keyedMutex) waiters(key string) int {
	k.mu.Lock()
	defer k.mu.Unlock()
	if m, ok := k.locks[key]; ok {
		return m.refs
	}
	return 0
}
