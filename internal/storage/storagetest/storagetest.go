// Package storagetest holds the behaviour every storage.Store must share.
package storagetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AdeelRMZ/BlockShock/internal/storage"
)

// Run exercises s. Each backend's tests call it with a fresh store.
func Run(t *testing.T, s storage.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("missing snapshot", func(t *testing.T) {
		_, err := s.LoadSnapshot(ctx, "nope")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("save load overwrite delete", func(t *testing.T) {
		require.NoError(t, s.SaveSnapshot(ctx, "ABC123", []byte(`{"score":1}`)))
		got, err := s.LoadSnapshot(ctx, "ABC123")
		require.NoError(t, err)
		assert.Equal(t, []byte(`{"score":1}`), got)

		require.NoError(t, s.SaveSnapshot(ctx, "ABC123", []byte(`{"score":2}`)))
		got, err = s.LoadSnapshot(ctx, "ABC123")
		require.NoError(t, err)
		assert.Equal(t, []byte(`{"score":2}`), got)

		require.NoError(t, s.DeleteSnapshot(ctx, "ABC123"))
		_, err = s.LoadSnapshot(ctx, "ABC123")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("delete missing is not an error", func(t *testing.T) {
		assert.NoError(t, s.DeleteSnapshot(ctx, "never-saved"))
	})

	t.Run("snapshots are keyed by code", func(t *testing.T) {
		require.NoError(t, s.SaveSnapshot(ctx, "one", []byte{1}))
		require.NoError(t, s.SaveSnapshot(ctx, "two", []byte{2}))
		a, err := s.LoadSnapshot(ctx, "one")
		require.NoError(t, err)
		b, err := s.LoadSnapshot(ctx, "two")
		require.NoError(t, err)
		assert.Equal(t, []byte{1}, a)
		assert.Equal(t, []byte{2}, b)
	})

	t.Run("settings", func(t *testing.T) {
		_, err := s.GetSetting(ctx, "highScore")
		assert.ErrorIs(t, err, storage.ErrNotFound)

		require.NoError(t, s.SetSetting(ctx, "highScore", "12"))
		require.NoError(t, s.SetSetting(ctx, "highScore", "40"))
		v, err := s.GetSetting(ctx, "highScore")
		require.NoError(t, err)
		assert.Equal(t, "40", v)
	})

	t.Run("invalid keys", func(t *testing.T) {
		assert.ErrorIs(t, s.SaveSnapshot(ctx, "../etc", []byte{1}), storage.ErrInvalidKey)
		_, err := s.LoadSnapshot(ctx, "")
		assert.ErrorIs(t, err, storage.ErrInvalidKey)
		assert.ErrorIs(t, s.SetSetting(ctx, "a b", "1"), storage.ErrInvalidKey)
	})
}
