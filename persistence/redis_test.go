package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupRedisStore creates a test store backed by miniredis.
func setupRedisStore(t *testing.T, opts ...RedisOption) (*RedisStore, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewRedisStore(client, opts...), mr
}

func TestRedisStoreRoundTrip(t *testing.T) {
	store, _ := setupRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveSessions(ctx, sampleSessions()))

	loaded, err := store.LoadSessions(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, 2, loaded[0].ID)
	assert.Equal(t, "Session 1", loaded[1].Name)
}

func TestRedisStoreMissingKeyIsEmpty(t *testing.T) {
	store, _ := setupRedisStore(t)
	loaded, err := store.LoadSessions(context.Background())
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestRedisStoreCustomKey(t *testing.T) {
	store, mr := setupRedisStore(t, WithKey("custom:deck"))
	require.NoError(t, store.SaveSessions(context.Background(), sampleSessions()))
	assert.True(t, mr.Exists("custom:deck"))
	assert.False(t, mr.Exists(defaultRedisKey))
}

func TestRedisStoreTTL(t *testing.T) {
	store, mr := setupRedisStore(t, WithTTL(time.Minute))
	ctx := context.Background()
	require.NoError(t, store.SaveSessions(ctx, sampleSessions()))

	mr.FastForward(2 * time.Minute)

	loaded, err := store.LoadSessions(ctx)
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestRedisStoreCorruptDocument(t *testing.T) {
	store, mr := setupRedisStore(t)
	require.NoError(t, mr.Set(defaultRedisKey, "{not json"))
	_, err := store.LoadSessions(context.Background())
	assert.Error(t, err)
}
