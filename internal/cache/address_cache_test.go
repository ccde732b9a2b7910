package cache_test

import (
	"context"
	"os"
	"testing"
	"time"

	"clientes/internal/cache"
	"clientes/pkg/viacep"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryAddressCache(t *testing.T) {
	ctx := context.Background()
	c := cache.NewMemoryAddressCache(time.Minute)

	_, found, err := c.Get(ctx, "01310930")
	require.NoError(t, err)
	assert.False(t, found)

	addr := &viacep.Address{State: "SP", City: "São Paulo"}
	require.NoError(t, c.Set(ctx, "01310930", addr))
	addr.City = "mutated"

	got, found, err := c.Get(ctx, "01310930")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "São Paulo", got.City)
}

func TestMemoryAddressCache_Expires(t *testing.T) {
	ctx := context.Background()
	c := cache.NewMemoryAddressCache(20 * time.Millisecond)
	require.NoError(t, c.Set(ctx, "01310930", &viacep.Address{State: "SP"}))

	time.Sleep(40 * time.Millisecond)
	_, found, err := c.Get(ctx, "01310930")
	require.NoError(t, err)
	assert.False(t, found)
}

// TestRedisAddressCache runs against a live Redis when REDIS_ADDR is set.
func TestRedisAddressCache(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	ctx := context.Background()
	c, err := cache.NewRedisAddressCache(cache.RedisConfig{Addr: addr}, time.Minute)
	require.NoError(t, err)
	defer c.Close()

	cep := "0" + time.Now().Format("150405") + "9"
	_, found, err := c.Get(ctx, cep)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, c.Set(ctx, cep, &viacep.Address{State: "RJ", City: "Rio de Janeiro"}))
	got, found, err := c.Get(ctx, cep)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "Rio de Janeiro", got.City)
}

func TestNewRedisAddressCache_Unreachable(t *testing.T) {
	_, err := cache.NewRedisAddressCache(cache.RedisConfig{Addr: "127.0.0.1:1"}, time.Minute)
	assert.Error(t, err)
}
