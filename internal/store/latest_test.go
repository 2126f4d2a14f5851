package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reading struct {
	DeviceID string  `json:"device_id"`
	PPM      float64 `json:"ppm_value"`
}

func setupMiniredis(t *testing.T) (*miniredis.Miniredis, *LatestCache) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, NewLatestCache(NewRedisKV(client), 30*time.Second)
}

func fill(t *testing.T, cache *LatestCache, kind, key string, v any) {
	t.Helper()
	ctx := context.Background()
	gen, err := cache.Generation(ctx, kind, key)
	require.NoError(t, err)
	ok, err := cache.Fill(ctx, kind, key, gen, v)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestLatestCache_SetGet(t *testing.T) {
	mr, cache := setupMiniredis(t)
	ctx := context.Background()

	var got reading
	hit, err := cache.Get(ctx, "mq7", "dev-1", &got)
	require.NoError(t, err)
	assert.False(t, hit)

	fill(t, cache, "mq7", "dev-1", reading{DeviceID: "dev-1", PPM: 42.5})
	assert.True(t, mr.Exists("iotcare:latest:mq7:dev-1"))
	assert.Equal(t, 30*time.Second, mr.TTL("iotcare:latest:mq7:dev-1"))

	hit, err = cache.Get(ctx, "mq7", "dev-1", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 42.5, got.PPM)
}

func TestLatestCache_ExpiresAfterTTL(t *testing.T) {
	mr, cache := setupMiniredis(t)
	ctx := context.Background()

	fill(t, cache, "sound", "mic-1", reading{DeviceID: "mic-1"})
	mr.FastForward(31 * time.Second)

	var got reading
	hit, err := cache.Get(ctx, "sound", "mic-1", &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestLatestCache_Invalidate(t *testing.T) {
	mr, cache := setupMiniredis(t)
	ctx := context.Background()

	fill(t, cache, "mq5", "dev-2", reading{DeviceID: "dev-2"})
	require.NoError(t, cache.Invalidate(ctx, "mq5", "dev-2"))
	assert.False(t, mr.Exists("iotcare:latest:mq5:dev-2"))
	gen, err := mr.Get("iotcare:latest-gen:mq5:dev-2")
	require.NoError(t, err)
	assert.Equal(t, "1", gen)

	// missing key is not an error
	require.NoError(t, cache.Invalidate(ctx, "mq5", "dev-2"))
}

func TestLatestCache_FillAfterInvalidateIsDropped(t *testing.T) {
	mr, cache := setupMiniredis(t)
	ctx := context.Background()

	gen, err := cache.Generation(ctx, "relay", "dev-4")
	require.NoError(t, err)
	assert.Equal(t, "", gen)

	// a newer record lands between the database read and the fill
	require.NoError(t, cache.Invalidate(ctx, "relay", "dev-4"))

	ok, err := cache.Fill(ctx, "relay", "dev-4", gen, reading{DeviceID: "dev-4", PPM: 1})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, mr.Exists("iotcare:latest:relay:dev-4"))

	gen, err = cache.Generation(ctx, "relay", "dev-4")
	require.NoError(t, err)
	ok, err = cache.Fill(ctx, "relay", "dev-4", gen, reading{DeviceID: "dev-4", PPM: 2})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLatestCache_CorruptEntryIsMiss(t *testing.T) {
	mr, cache := setupMiniredis(t)
	require.NoError(t, mr.Set("iotcare:latest:cds:dev-3", "{not json"))

	var got reading
	hit, err := cache.Get(context.Background(), "cds", "dev-3", &got)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.False(t, mr.Exists("iotcare:latest:cds:dev-3"))
}

func TestLatestCache_Purge(t *testing.T) {
	mr, cache := setupMiniredis(t)
	ctx := context.Background()

	fill(t, cache, "mq5", "a", reading{})
	fill(t, cache, "dht", "b", reading{})
	require.NoError(t, cache.Invalidate(ctx, "dht", "c"))
	require.NoError(t, mr.Set("unrelated", "keep"))

	n, err := cache.Purge(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.True(t, mr.Exists("unrelated"))

	n, err = cache.Purge(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestRedisKV_GetMiss(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	kv := NewRedisKV(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	_, err = kv.Get(context.Background(), "absent")
	assert.ErrorIs(t, err, ErrMiss)
}
