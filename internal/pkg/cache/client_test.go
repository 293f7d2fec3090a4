package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gocatalog/internal/pkg/cache"
)

func TestRedisClient_GetSetDeleteIncr(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := cache.NewRedisClient(mr.Addr())
	require.NoError(t, err)
	defer client.Close()
	ctx := context.Background()

	_, err = client.Get(ctx, "product:1")
	assert.Equal(t, cache.ErrCacheMiss, err)

	require.NoError(t, client.Set(ctx, "product:1", `{"id":"1"}`, time.Minute))
	val, err := client.Get(ctx, "product:1")
	require.NoError(t, err)
	assert.Equal(t, `{"id":"1"}`, val)

	require.NoError(t, client.Delete(ctx, "product:1"))
	_, err = client.Get(ctx, "product:1")
	assert.Equal(t, cache.ErrCacheMiss, err)

	n, err := client.Incr(ctx, "counter")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	n, err = client.Incr(ctx, "counter")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	require.NoError(t, client.Expire(ctx, "counter", time.Second))
	mr.FastForward(2 * time.Second)
	_, err = client.Get(ctx, "counter")
	assert.Equal(t, cache.ErrCacheMiss, err)
}

func TestNewRedisClient_Unreachable(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	addr := mr.Addr()
	mr.Close()

	_, err = cache.NewRedisClient(addr)
	assert.Error(t, err)
}

func TestNoopClient_AlwaysMisses(t *testing.T) {
	var c cache.Client = cache.NoopClient{}
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", "v", time.Minute))
	_, err := c.Get(ctx, "k")
	assert.Equal(t, cache.ErrCacheMiss, err)
}
