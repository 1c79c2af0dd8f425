package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/beatpilot/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunStateStoreContract runs a suite of tests to verify that a StateStore implementation
// adheres to the defined interface contract.
func RunStateStoreContract(t *testing.T, store StateStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	t.Run("Put and Get", func(t *testing.T) {
		blob := []byte(`{"currentTrack":"Levels - Avicii (BPM: 126)","history":[],"lastSuggestions":null}`)

		err := store.Put(ctx, sessionID, blob)
		require.NoError(t, err, "Put should not return error")

		loaded, err := store.Get(ctx, sessionID)
		require.NoError(t, err, "Get should not return error")
		assert.Equal(t, blob, loaded)
	})

	t.Run("Put Overwrites", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, sessionID, []byte(`{"v":1}`)))
		require.NoError(t, store.Put(ctx, sessionID, []byte(`{"v":2}`)))

		loaded, err := store.Get(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, []byte(`{"v":2}`), loaded)
	})

	t.Run("Get Returns Isolated Copy", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, sessionID, []byte(`{"v":3}`)))

		loaded, err := store.Get(ctx, sessionID)
		require.NoError(t, err)
		loaded[0] = 'X'

		again, err := store.Get(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, []byte(`{"v":3}`), again)
	})

	t.Run("Get Non-Existent", func(t *testing.T) {
		_, err := store.Get(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, sessionID, []byte(`{}`)))

		err := store.Delete(ctx, sessionID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Get(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Get after Delete should return ErrSessionNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		_ = store.Put(ctx, id1, []byte(`{}`))
		_ = store.Put(ctx, id2, []byte(`{}`))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}
