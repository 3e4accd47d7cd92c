package numerator

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisAllocator(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	alloc := NewRedisAllocator(client)
	ctx := context.Background()

	v, err := alloc.NextValue(ctx, "weight_ticket")
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)

	require.NoError(t, alloc.EnsureAtLeast(ctx, "weight_ticket", 40))
	v, err = alloc.NextValue(ctx, "weight_ticket")
	require.NoError(t, err)
	assert.Equal(t, int64(41), v)

	// Never moves backwards.
	require.NoError(t, alloc.EnsureAtLeast(ctx, "weight_ticket", 5))
	v, err = alloc.NextValue(ctx, "weight_ticket")
	require.NoError(t, err)
	assert.Equal(t, int64(42), v)

	got, err := mr.Get("seq:weight_ticket")
	require.NoError(t, err)
	assert.Equal(t, "42", got)
}
