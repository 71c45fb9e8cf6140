package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalCacheRoundtrip(t *testing.T) {
	c, err := New(Config{Type: "local"})
	require.NoError(t, err)
	defer c.Close()

	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "health", true, time.Minute))

	v, ok := c.Get(ctx, "health")
	require.True(t, ok)
	assert.Equal(t, true, v)
	assert.True(t, c.Exists(ctx, "health"))

	require.NoError(t, c.Delete(ctx, "health"))
	_, ok = c.Get(ctx, "health")
	assert.False(t, ok)
}

func TestLocalCacheExpiration(t *testing.T) {
	c := NewLocalCache(LocalConfig{DefaultExpiration: time.Minute, CleanupInterval: time.Minute})
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", "v", 10*time.Millisecond))
	time.Sleep(30 * time.Millisecond)
	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)
}

func TestLocalCacheClear(t *testing.T) {
	c := NewLocalCache(DefaultLocalConfig())
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "a", 1, time.Minute))
	require.NoError(t, c.Set(ctx, "b", 2, time.Minute))
	require.NoError(t, c.Clear(ctx))
	assert.False(t, c.Exists(ctx, "a"))
	assert.False(t, c.Exists(ctx, "b"))
}

func TestNewUnsupportedType(t *testing.T) {
	_, err := New(Config{Type: "memcached"})
	assert.Error(t, err)
}
