package redis

import (
	"context"
	"fmt"
	"time"

	"job-listings/internal/domain"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// LockPrefix namespaces lock keys.
	LockPrefix = "jobs:locks:"
	// DefaultLockTTL bounds how long a crashed holder keeps a lock.
	DefaultLockTTL = 10 * time.Minute
)

// releaseScript deletes the key only while it still holds our token, so an
// expired lock taken over by another replica is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type locker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewLocker returns a domain.Locker built on SET NX with an expiry.
func NewLocker(client *redis.Client, ttl time.Duration) domain.Locker {
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}
	return &locker{client: client, ttl: ttl}
}

func (l *locker) Lock(ctx context.Context, name string) (domain.Lock, error) {
	key := LockPrefix + name
	token := uuid.New().String()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire redis lock %s: %w", name, err)
	}
	if !ok {
		return nil, domain.ErrLockNotAcquired
	}
	return &lock{client: l.client, key: key, token: token}, nil
}

type lock struct {
	client *redis.Client
	key    string
	token  string
}

func (k *lock) Unlock(ctx context.Context) error {
	if err := releaseScript.Run(ctx, k.client, []string{k.key}, k.token).Err(); err != nil {
		return fmt.Errorf("failed to release redis lock %s: %w", k.key, err)
	}
	return nil
}
