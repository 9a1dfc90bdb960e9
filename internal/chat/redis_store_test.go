package chat

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
		mr.Close()
	})
	return mr, client
}

func TestRedisStore_CreateGetSave(t *testing.T) {
	ctx := context.Background()
	mr, client := setupTestRedis(t)
	store := NewRedisStore(client, 5*time.Minute)

	sess := newTestSession("s1", "u1")
	require.NoError(t, store.Create(ctx, sess))
	assert.True(t, mr.Exists("chat:session:s1"))
	assert.Error(t, store.Create(ctx, sess), "duplicate ids must not overwrite")

	got, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)
	require.Len(t, got.Memory.All(), 1)
	assert.Equal(t, "Aspirin", got.Memory.All()[0].Name)

	got.History = append(got.History, ChatMessage{ID: "m2", Role: RoleUser, Text: "hello"})
	require.NoError(t, store.Save(ctx, got))

	again, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, again.History, 2)
}

func TestRedisStore_Expiry(t *testing.T) {
	ctx := context.Background()
	mr, client := setupTestRedis(t)
	store := NewRedisStore(client, time.Minute)

	require.NoError(t, store.Create(ctx, newTestSession("s1", "u1")))

	mr.FastForward(50 * time.Second)
	_, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, time.Minute, mr.TTL("chat:session:s1"))

	mr.FastForward(61 * time.Second)
	_, err = store.Get(ctx, "s1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRedisStore_Delete(t *testing.T) {
	ctx := context.Background()
	_, client := setupTestRedis(t)
	store := NewRedisStore(client, 0)

	require.NoError(t, store.Create(ctx, newTestSession("s1", "u1")))
	require.NoError(t, store.Delete(ctx, "s1"))

	_, err := store.Get(ctx, "s1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRedisStore_SaveDoesNotResurrect(t *testing.T) {
	ctx := context.Background()
	mr, client := setupTestRedis(t)
	store := NewRedisStore(client, time.Minute)

	sess := newTestSession("s1", "u1")
	require.NoError(t, store.Create(ctx, sess))
	require.NoError(t, store.Delete(ctx, "s1"))
	assert.ErrorIs(t, store.Save(ctx, sess), ErrSessionNotFound)
	assert.False(t, mr.Exists("chat:session:s1"))

	require.NoError(t, store.Create(ctx, newTestSession("s2", "u1")))
	mr.FastForward(2 * time.Minute)
	assert.ErrorIs(t, store.Save(ctx, newTestSession("s2", "u1")), ErrSessionNotFound)
	assert.False(t, mr.Exists("chat:session:s2"))
}

func TestRedisTurnLocker(t *testing.T) {
	ctx := context.Background()
	mr, client := setupTestRedis(t)
	locks := NewRedisTurnLocker(client, 10*time.Second)
	other := NewRedisTurnLocker(client, 10*time.Second)

	unlock, err := locks.Lock(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, mr.Exists("chat:lock:s1"))
	assert.Equal(t, 10*time.Second, mr.TTL("chat:lock:s1"))

	_, err = other.Lock(ctx, "s1")
	assert.ErrorIs(t, err, ErrTurnInProgress, "a second replica must see the lock")

	unlockS2, err := other.Lock(ctx, "s2")
	require.NoError(t, err)
	unlockS2()

	unlock()
	assert.False(t, mr.Exists("chat:lock:s1"))
	unlock, err = other.Lock(ctx, "s1")
	require.NoError(t, err)
	unlock()
}

func TestRedisTurnLocker_ExpiredLockIsNotStolenBack(t *testing.T) {
	ctx := context.Background()
	mr, client := setupTestRedis(t)
	locks := NewRedisTurnLocker(client, 10*time.Second)

	staleUnlock, err := locks.Lock(ctx, "s1")
	require.NoError(t, err)
	mr.FastForward(11 * time.Second)

	unlock, err := locks.Lock(ctx, "s1")
	require.NoError(t, err)

	staleUnlock()
	assert.True(t, mr.Exists("chat:lock:s1"), "a stale holder must not release the new lock")
	unlock()
	assert.False(t, mr.Exists("chat:lock:s1"))
}
