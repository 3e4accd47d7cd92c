package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Colossus92/eazy-recycling-sub004/internal/core/id"
	"github.com/Colossus92/eazy-recycling-sub004/internal/core/lock"
)

const lockPrefix = KeyPrefix + "lock:"

// Locker implements lock.Locker with SET NX PX. Each acquisition stores
// a random token so a holder only ever deletes its own lock.
type Locker struct {
	client redis.UniversalClient
}

var _ lock.Locker = (*Locker)(nil)

// NewLocker creates a locker on client.
func NewLocker(client redis.UniversalClient) *Locker {
	return &Locker{client: client}
}

var unlockScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("DEL", KEYS[1])
	else
		return 0
	end
`)

// Acquire implements lock.Locker. It does not wait: a held key returns
// lock.ErrNotAcquired at once.
func (l *Locker) Acquire(ctx context.Context, key string, ttl time.Duration) (lock.Release, error) {
	redisKey := lockPrefix + key
	token := id.New().String()

	ok, err := l.client.SetNX(ctx, redisKey, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", key, err)
	}
	if !ok {
		return nil, lock.ErrNotAcquired
	}

	return func(ctx context.Context) error {
		if err := unlockScript.Run(ctx, l.client, []string{redisKey}, token).Err(); err != nil {
			return fmt.Errorf("release lock %s: %w", key, err)
		}
		return nil
	}, nil
}
