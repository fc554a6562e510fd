package store

import (
	"context"
	"sync"
)

// Locker serialises actions per session id so each session has at most one
// in-flight action. Different sessions never block each other.
type Locker struct {
	mu    sync.Mutex
	locks map[string]*sessionLock
}

type sessionLock struct {
	ch   chan struct{} // holds one token while the session is locked
	refs int
}

// NewLocker creates an empty Locker.
func NewLocker() *Locker {
	return &Locker{locks: make(map[string]*sessionLock)}
}

// Lock blocks until the session is free or ctx is done. On success the
// returned function releases the lock and must be called exactly once.
func (l *Locker) Lock(ctx context.Context, id string) (func(), error) {
	l.mu.Lock()
	sl, ok := l.locks[id]
	if !ok {
		sl = &sessionLock{ch: make(chan struct{}, 1)}
		l.locks[id] = sl
	}
	sl.refs++
	l.mu.Unlock()

	select {
	case sl.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(id, sl)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-sl.ch
			l.release(id, sl)
		})
	}, nil
}

func (l *Locker) release(id string, sl *sessionLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	sl.refs--
	if sl.refs == 0 {
		delete(l.locks, id)
	}
}

// Active returns the number of sessions with a held or awaited lock.
func (l *Locker) Active() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
