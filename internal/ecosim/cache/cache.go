// Package cache wraps Redis as a generic JSON query cache
// (get/set/getOrSet around a *redis.Client with a default TTL),
// fronting the illumination
// engine's per-cell hours-of-sunlight output, keyed by (scenario, tick,
// cell), so repeated Observer reads between ticks don't force a
// recompute and a control-plane replica can serve sunlight queries
// without holding the simulation's in-memory grid.
package cache

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultTTL = 60 * time.Second

// QueryCache is a thin, generic get/set/getOrSet wrapper over Redis.
type QueryCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewQueryCache constructs a cache using client, defaulting ttl to 60s
// when zero.
func NewQueryCache(client *redis.Client, ttl time.Duration) *QueryCache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &QueryCache{client: client, ttl: ttl}
}

// Set JSON-encodes value and stores it under key with the cache's TTL.
func (c *QueryCache) Set(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, c.ttl).Err()
}

// Get decodes the cached value for key into dest. Returns redis.Nil if
// key is not present, matching the underlying client's miss signal so
// callers can distinguish a miss from a decode error.
func (c *QueryCache) Get(ctx context.Context, key string, dest interface{}) error {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}

// Delete removes key from the cache.
func (c *QueryCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}

// GetOrSet returns the cached value for key into dest if present;
// otherwise it calls loader, stores the result under key (best-effort,
// asynchronously, so a slow Redis never adds latency to the caller),
// and decodes the loaded value into dest directly.
func (c *QueryCache) GetOrSet(ctx context.Context, key string, dest interface{}, loader func() (interface{}, error)) error {
	if err := c.Get(ctx, key, dest); err == nil {
		return nil
	} else if err != redis.Nil {
		return err
	}

	value, err := loader()
	if err != nil {
		return err
	}

	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return err
	}

	go func() {
		setCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = c.Set(setCtx, key, value)
	}()
	return nil
}

// SunlightKey builds the cache key for a cell's cached monthly sunlight
// array for a given scenario and simulated year.
func SunlightKey(scenario string, year, cellX, cellY int) string {
	return "sunlight:" + scenario + ":" + strconv.Itoa(year) + ":" +
		strconv.Itoa(cellX) + ":" + strconv.Itoa(cellY)
}
