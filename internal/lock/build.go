// Package lock provides an in-process exclusive lock used to serialize cache builds.
package lock

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

var (
	// ErrLockHeld is returned by TryAcquire when another holder owns the lock.
	ErrLockHeld = errors.New("lock is held")

	// ErrNotHeld is returned by Release when the lock is not held.
	ErrNotHeld = errors.New("lock is not held")
)

// BuildLock is a named, non-reentrant exclusive lock. Unlike sync.Mutex it
// supports a non-blocking attempt and context-aware waiting.
type BuildLock struct {
	name string
	sem  *semaphore.Weighted
	held atomic.Bool
}

// NewBuildLock creates an unlocked BuildLock.
func NewBuildLock(name string) *BuildLock {
	return &BuildLock{
		name: name,
		sem:  semaphore.NewWeighted(1),
	}
}

// Name returns the lock name.
func (l *BuildLock) Name() string {
	return l.name
}

// TryAcquire takes the lock without waiting.
func (l *BuildLock) TryAcquire() error {
	if !l.sem.TryAcquire(1) {
		return fmt.Errorf("%s: %w", l.name, ErrLockHeld)
	}
	l.held.Store(true)
	return nil
}

// Acquire waits for the lock until ctx is done.
func (l *BuildLock) Acquire(ctx context.Context) error {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("%s: %w", l.name, err)
	}
	l.held.Store(true)
	return nil
}

// Release frees the lock.
func (l *BuildLock) Release() error {
	if !l.held.CompareAndSwap(true, false) {
		return fmt.Errorf("%s: %w", l.name, ErrNotHeld)
	}
	l.sem.Release(1)
	return nil
}

// IsHeld reports whether some holder currently owns the lock.
func (l *BuildLock) IsHeld() bool {
	return l.held.Load()
}
