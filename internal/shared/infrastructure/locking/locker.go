// Package locking provides per-key mutual exclusion for operations that
// must not run twice concurrently, such as charging one subscription from
// two scheduler runs.
package locking

import (
	"context"
	"errors"
	"sync"
)

// ErrLockHeld is returned when the key is already locked elsewhere.
var ErrLockHeld = errors.New("lock already held")

// Locker serializes work per key. Acquire returns a release function, or
// ErrLockHeld when another holder has the key.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// MemoryLocker implements Locker with in-process keyed locks. It is the
// default for single-process deployments.
type MemoryLocker struct {
	mu   sync.Mutex
	held map[string]struct{}
}

// NewMemoryLocker creates an in-process locker.
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{held: make(map[string]struct{})}
}

// Acquire takes the key or fails immediately with ErrLockHeld.
func (l *MemoryLocker) Acquire(_ context.Context, key string) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, taken := l.held[key]; taken {
		return nil, ErrLockHeld
	}
	l.held[key] = struct{}{}

	return func() {
		l.mu.Lock()
		delete(l.held, key)
		l.mu.Unlock()
	}, nil
}
