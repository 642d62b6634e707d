package memory

import (
	"context"
	"sync"

	"job-listings/internal/domain"
)

// locker is a single-process domain.Locker.
type locker struct {
	mu   sync.Mutex
	held map[string]bool
}

func NewLocker() domain.Locker {
	return &locker{held: make(map[string]bool)}
}

func (l *locker) Lock(_ context.Context, name string) (domain.Lock, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[name] {
		return nil, domain.ErrLockNotAcquired
	}
	l.held[name] = true
	return &lock{owner: l, name: name}, nil
}

type lock struct {
	owner *locker
	name  string
	once  sync.Once
}

func (k *lock) Unlock(context.Context) error {
	k.once.Do(func() {
		k.owner.mu.Lock()
		delete(k.owner.held, k.name)
		k.owner.mu.Unlock()
	})
	return nil
}
