package chat

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/healthcare-assistant/internal/assistant"
)

func newTestSession(id, userID string) *Session {
	mem := assistant.RestoreMemory([]assistant.RecordedMedicine{{ID: "1", Name: "Aspirin", Dosage: "81mg"}})
	return &Session{ID: id, UserID: userID, Memory: mem, History: []ChatMessage{{ID: "m1", Role: RoleBot, Text: "hi"}}}
}

func TestMemoryStore_SlidingExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore(10 * time.Minute)
	store.now = func() time.Time { return now }

	require.NoError(t, store.Create(ctx, newTestSession("s1", "u1")))

	now = now.Add(9 * time.Minute)
	_, err := store.Get(ctx, "s1")
	require.NoError(t, err)

	// the read above slid the deadline forward
	now = now.Add(9 * time.Minute)
	_, err = store.Get(ctx, "s1")
	require.NoError(t, err)

	now = now.Add(11 * time.Minute)
	_, err = store.Get(ctx, "s1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(0)
	require.NoError(t, store.Create(ctx, newTestSession("s1", "u1")))

	got, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	got.History = append(got.History, ChatMessage{ID: "m2", Text: "unsaved"})
	got.Memory.Add(assistant.RecordedMedicine{ID: "2", Name: "Ibuprofen"})

	again, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, again.History, 1)
	assert.Equal(t, 1, again.Memory.Len())
}

func TestMemoryStore_Delete(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Minute)
	require.NoError(t, store.Create(ctx, newTestSession("s1", "u1")))
	require.NoError(t, store.Delete(ctx, "s1"))
	require.NoError(t, store.Delete(ctx, "unknown"))

	_, err := store.Get(ctx, "s1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestMemoryStore_SaveDoesNotResurrect(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore(time.Minute)
	store.now = func() time.Time { return now }

	sess := newTestSession("s1", "u1")
	require.NoError(t, store.Create(ctx, sess))
	assert.Error(t, store.Create(ctx, sess), "duplicate ids must not overwrite")
	require.NoError(t, store.Save(ctx, sess))

	require.NoError(t, store.Delete(ctx, "s1"))
	assert.ErrorIs(t, store.Save(ctx, sess), ErrSessionNotFound)
	_, err := store.Get(ctx, "s1")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	require.NoError(t, store.Create(ctx, newTestSession("s2", "u1")))
	now = now.Add(2 * time.Minute)
	assert.ErrorIs(t, store.Save(ctx, newTestSession("s2", "u1")), ErrSessionNotFound)
}

func TestSession_JSONRoundTripKeepsMedicines(t *testing.T) {
	sess := newTestSession("s1", "u1")
	data, err := sess.MarshalJSON()
	require.NoError(t, err)
	var restored Session
	require.NoError(t, restored.UnmarshalJSON(data))

	meds := restored.Memory.All()
	require.Len(t, meds, 1)
	assert.Equal(t, "Aspirin", meds[0].Name)
	assert.Equal(t, "u1", restored.UserID)
}
