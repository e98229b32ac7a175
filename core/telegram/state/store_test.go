package state

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	fresh, err := store.Load(ctx, 42)
	require.NoError(t, err)
	assert.True(t, fresh.Idle())

	s := NewSession()
	s.Enter("ad:target_views")
	s.Fields.Set("ad_text", "Book now")
	s.Fields.Set("button_url", nil)
	require.NoError(t, store.Save(ctx, 42, s))

	s.Fields.Set("leak", "mutated after save")

	loaded, err := store.Load(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, State("ad:target_views"), loaded.State)
	assert.Equal(t, []string{"ad_text", "button_url"}, loaded.Fields.Keys())

	other, err := store.Load(ctx, 7)
	require.NoError(t, err)
	assert.True(t, other.Idle())

	require.NoError(t, store.Clear(ctx, 42))
	cleared, err := store.Load(ctx, 42)
	require.NoError(t, err)
	assert.True(t, cleared.Idle())

	assert.ErrorIs(t, store.Save(ctx, 1, nil), ErrNilSession)
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	exerciseStore(t, store)
	assert.Zero(t, store.Len())
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	exerciseStore(t, NewRedisStore(client, RedisOptions{Prefix: "delofix:session"}))
}

func TestRedisStoreTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	store := NewRedisStore(client, RedisOptions{Prefix: "s:", TTL: time.Minute})
	ctx := context.Background()

	s := NewSession()
	s.Enter("profile:skills")
	require.NoError(t, store.Save(ctx, 5, s))
	assert.True(t, mr.Exists("s:5"))
	assert.Equal(t, time.Minute, mr.TTL("s:5"))

	mr.FastForward(2 * time.Minute)
	loaded, err := store.Load(ctx, 5)
	require.NoError(t, err)
	assert.True(t, loaded.Idle())
}

func TestRedisStoreCorruptPayload(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, mr.Set("session:9", "{not json"))

	_, err := NewRedisStore(client, RedisOptions{}).Load(context.Background(), 9)
	assert.Error(t, err)
}
