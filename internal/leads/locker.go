package leads

import (
	"context"
	"sync"
)

// Locker serializes work per lead ID. Requests for different leads never
// block each other; entries are dropped once no goroutine holds or waits on
// them.
type Locker struct {
	mu    sync.Mutex
	locks map[string]*leadLock
}

type leadLock struct {
	ch   chan struct{}
	refs int
}

// NewLocker returns an empty Locker.
func NewLocker() *Locker {
	return &Locker{locks: make(map[string]*leadLock)}
}

// Lock blocks until the caller holds the lock for id or ctx is done. On
// success it returns the matching unlock func; otherwise it returns
// ctx.Err() and the caller holds nothing.
func (l *Locker) Lock(ctx context.Context, id string) (func(), error) {
	l.mu.Lock()
	ll, ok := l.locks[id]
	if !ok {
		ll = &leadLock{ch: make(chan struct{}, 1)}
		l.locks[id] = ll
	}
	ll.refs++
	l.mu.Unlock()

	select {
	case ll.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(id, ll)
		return nil, ctx.Err()
	}
	return func() {
		<-ll.ch
		l.release(id, ll)
	}, nil
}

func (l *Locker) release(id string, ll *leadLock) {
	l.mu.Lock()
	ll.refs--
	if ll.refs == 0 {
		delete(l.locks, id)
	}
	l.mu.Unlock()
}

func (l *Locker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
