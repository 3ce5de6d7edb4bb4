package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testSunlight struct {
	Hours [12]float64 `json:"hours"`
}

func newTestCache(t *testing.T) (*QueryCache, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewQueryCache(client, 5*time.Second), mr
}

func TestNewQueryCache_DefaultTTL(t *testing.T) {
	cache, _ := newTestCache(t)
	assert.Equal(t, 5*time.Second, cache.ttl)

	client := redis.NewClient(&redis.Options{Addr: "localhost:0"})
	defer client.Close()
	withDefault := NewQueryCache(client, 0)
	assert.Equal(t, defaultTTL, withDefault.ttl)
}

func TestQueryCache_SetGet(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	want := testSunlight{Hours: [12]float64{6.75, 6.75, 8.25}}
	require.NoError(t, cache.Set(ctx, "sunlight:flat:0:2:2", want))

	var got testSunlight
	require.NoError(t, cache.Get(ctx, "sunlight:flat:0:2:2", &got))
	assert.Equal(t, want, got)
}

func TestQueryCache_GetMiss(t *testing.T) {
	cache, _ := newTestCache(t)
	var got testSunlight
	err := cache.Get(context.Background(), "does-not-exist", &got)
	assert.ErrorIs(t, err, redis.Nil)
}

func TestQueryCache_Delete(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "k", testSunlight{}))
	require.NoError(t, cache.Delete(ctx, "k"))

	var got testSunlight
	err := cache.Get(ctx, "k", &got)
	assert.ErrorIs(t, err, redis.Nil)
}

func TestQueryCache_GetOrSet(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	called := 0
	loader := func() (interface{}, error) {
		called++
		return testSunlight{Hours: [12]float64{1, 2, 3}}, nil
	}

	var first testSunlight
	require.NoError(t, cache.GetOrSet(ctx, "sunlight:flat:1:0:0", &first, loader))
	assert.Equal(t, 1, called)
	assert.Equal(t, 1.0, first.Hours[0])

	// the async Set races the test; fast-forward isn't needed since
	// miniredis writes are synchronous once the goroutine runs, but we
	// give it a moment to land before asserting cache-hit behavior.
	require.Eventually(t, func() bool {
		return mr.Exists("sunlight:flat:1:0:0")
	}, time.Second, 5*time.Millisecond)

	var second testSunlight
	require.NoError(t, cache.GetOrSet(ctx, "sunlight:flat:1:0:0", &second, loader))
	assert.Equal(t, 1, called, "loader must not be called again on a cache hit")
	assert.Equal(t, first, second)
}

func TestQueryCache_GetOrSet_LoaderError(t *testing.T) {
	cache, _ := newTestCache(t)
	wantErr := errors.New("loader failed")

	var dest testSunlight
	err := cache.GetOrSet(context.Background(), "k", &dest, func() (interface{}, error) {
		return nil, wantErr
	})
	assert.Equal(t, wantErr, err)
}

func TestSunlightKey(t *testing.T) {
	assert.Equal(t, "sunlight:flat:12:2:3", SunlightKey("flat", 12, 2, 3))
}
