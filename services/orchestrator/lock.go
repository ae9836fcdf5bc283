package orchestrator

import (
	"context"
	"sync"
	"time"
)

// keyedLock serialises work per booking number. Slots are dropped once
// nobody holds or waits on them.
type keyedLock struct {
	mu    sync.Mutex
	slots map[string]*slot
}

type slot struct {
	ch   chan struct{}
	refs int
}

func newKeyedLock() *keyedLock {
	return &keyedLock{slots: make(map[string]*slot)}
}

// acquire waits at most wait for the key and returns the release func.
func (l *keyedLock) acquire(ctx context.Context, key string, wait time.Duration) (func(), error) {
	l.mu.Lock()
	s, ok := l.slots[key]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		l.slots[key] = s
	}
	s.refs++
	l.mu.Unlock()

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case s.ch <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-s.ch
				l.forget(key, s)
			})
		}, nil
	case <-timer.C:
		l.forget(key, s)
		return nil, ErrConcurrentModification
	case <-ctx.Done():
		l.forget(key, s)
		return nil, ctx.Err()
	}
}

func (l *keyedLock) forget(key string, s *slot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s.refs--
	if s.refs == 0 {
		delete(l.slots, key)
	}
}
