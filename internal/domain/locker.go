// internal/domain/locker.go
package domain

import (
	"context"
	"errors"
)

// ErrLockNotAcquired is returned when a named lock is already held elsewhere,
// for example by another backend replica running the same sweep.
var ErrLockNotAcquired = errors.New("lock not acquired")

// Lock represents an acquired lock.
type Lock interface {
	Unlock(ctx context.Context) error
}

// Locker hands out named, non-blocking locks. Lock must return
// ErrLockNotAcquired instead of waiting when the name is taken.
type Locker interface {
	Lock(ctx context.Context, name string) (Lock, error)
}
