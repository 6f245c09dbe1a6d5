// Package lock prevents overlapping runs of the same scheduled job.
//
// A Locker hands out named, non-blocking, exclusive locks. LocalLocker keeps
// them in process memory; RedisLocker shares them across instances with
// SET NX PX and a token-checked release.
package lock

import (
	"context"
	"errors"
	"sync"
)

// ErrLocked is returned by TryLock when the lock is already held.
var ErrLocked = errors.New("lock already held")

// Locker acquires named exclusive locks without waiting.
type Locker interface {
	// TryLock acquires name or returns ErrLocked. The returned release
	// function is safe to call more than once.
	TryLock(ctx context.Context, name string) (release func(), err error)
}

// LocalLocker is an in-process Locker.
type LocalLocker struct {
	mu   sync.Mutex
	held map[string]bool
}

// NewLocalLocker creates an in-process locker.
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: make(map[string]bool)}
}

// TryLock implements Locker.
func (l *LocalLocker) TryLock(_ context.Context, name string) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.held[name] {
		return nil, ErrLocked
	}
	l.held[name] = true

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, name)
			l.mu.Unlock()
		})
	}, nil
}

// Held reports whether name is currently locked.
func (l *LocalLocker) Held(name string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.held[name]
}
