// Package cache stores postal-code lookups so repeated keystrokes on the
// same CEP do not hit ViaCEP again.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"clientes/pkg/viacep"

	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// AddressCache keeps addresses keyed by eight digit CEP.
type AddressCache interface {
	Get(ctx context.Context, cep string) (*viacep.Address, bool, error)
	Set(ctx context.Context, cep string, addr *viacep.Address) error
}

// MemoryAddressCache is an in-process AddressCache.
type MemoryAddressCache struct {
	cache *gocache.Cache
}

// NewMemoryAddressCache creates a cache whose entries expire after ttl.
func NewMemoryAddressCache(ttl time.Duration) *MemoryAddressCache {
	return &MemoryAddressCache{cache: gocache.New(ttl, ttl*2)}
}

func (c *MemoryAddressCache) Get(_ context.Context, cep string) (*viacep.Address, bool, error) {
	x, found := c.cache.Get(cep)
	if !found {
		return nil, false, nil
	}
	addr := x.(viacep.Address)
	return &addr, true, nil
}

func (c *MemoryAddressCache) Set(_ context.Context, cep string, addr *viacep.Address) error {
	c.cache.Set(cep, *addr, gocache.DefaultExpiration)
	return nil
}

// RedisAddressCache shares lookups between service instances.
type RedisAddressCache struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisAddressCache connects to Redis and verifies the connection.
func NewRedisAddressCache(cfg RedisConfig, ttl time.Duration) (*RedisAddressCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return NewRedisAddressCacheWithClient(client, ttl), nil
}

// NewRedisAddressCacheWithClient wraps an existing client.
func NewRedisAddressCacheWithClient(client *redis.Client, ttl time.Duration) *RedisAddressCache {
	return &RedisAddressCache{client: client, keyPrefix: "cep:", ttl: ttl}
}

func (c *RedisAddressCache) Get(ctx context.Context, cep string) (*viacep.Address, bool, error) {
	raw, err := c.client.Get(ctx, c.keyPrefix+cep).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cached address: %w", err)
	}
	var addr viacep.Address
	if err := json.Unmarshal(raw, &addr); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached address: %w", err)
	}
	return &addr, true, nil
}

func (c *RedisAddressCache) Set(ctx context.Context, cep string, addr *viacep.Address) error {
	raw, err := json.Marshal(addr)
	if err != nil {
		return fmt.Errorf("failed to encode address: %w", err)
	}
	if err := c.client.Set(ctx, c.keyPrefix+cep, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache address: %w", err)
	}
	return nil
}

// Close releases the Redis connection pool.
func (c *RedisAddressCache) Close() error {
	return c.client.Close()
}
