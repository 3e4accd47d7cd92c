package numerator

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	corenumerator "github.com/Colossus92/eazy-recycling-sub004/internal/core/numerator"
)

// RedisKeyPrefix namespaces counters in Redis.
const RedisKeyPrefix = "seq:"

// RedisAllocator keeps counters in Redis with INCR. It suits ids that
// need no transactional rollback, such as weight ticket ids when several
// API instances run without a shared database sequence.
type RedisAllocator struct {
	client redis.UniversalClient
}

var _ corenumerator.Allocator = (*RedisAllocator)(nil)

// NewRedisAllocator creates an allocator on client.
func NewRedisAllocator(client redis.UniversalClient) *RedisAllocator {
	return &RedisAllocator{client: client}
}

var ensureAtLeastScript = redis.NewScript(`
	local current = tonumber(redis.call("GET", KEYS[1]) or "0")
	local wanted = tonumber(ARGV[1])
	if current < wanted then
		redis.call("SET", KEYS[1], wanted)
		return wanted
	end
	return current
`)

// NextValue implements Allocator.
func (a *RedisAllocator) NextValue(ctx context.Context, name string) (int64, error) {
	v, err := a.client.Incr(ctx, RedisKeyPrefix+name).Result()
	if err != nil {
		return 0, fmt.Errorf("incr %s: %w", name, err)
	}
	return v, nil
}

// EnsureAtLeast implements Allocator.
func (a *RedisAllocator) EnsureAtLeast(ctx context.Context, name string, value int64) error {
	if err := ensureAtLeastScript.Run(ctx, a.client, []string{RedisKeyPrefix + name}, value).Err(); err != nil {
		return fmt.Errorf("raise %s to %d: %w", name, value, err)
	}
	return nil
}
