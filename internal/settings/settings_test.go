package settings

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AdeelRMZ/BlockShock/internal/storage"
)

type memKV struct {
	mu     sync.Mutex
	values map[string]string
}

func newMemKV() *memKV { return &memKV{values: map[string]string{}} }

func (m *memKV) GetSetting(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	if !ok {
		return "", storage.ErrNotFound
	}
	return v, nil
}

func (m *memKV) SetSetting(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func TestLoadRegistersDefaults(t *testing.T) {
	kv := newMemKV()
	s := New(kv, nil)

	v, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Defaults(), v)
	assert.Equal(t, map[string]string{
		KeySoundEnabled: "true",
		KeyMusicEnabled: "true",
		KeyAdsRemoved:   "false",
		KeyHighScore:    "0",
	}, kv.values)
}

func TestUpdateOnlyTouchesGivenFields(t *testing.T) {
	s := New(newMemKV(), nil)
	off := false

	v, err := s.Update(context.Background(), Patch{MusicEnabled: &off})
	require.NoError(t, err)
	assert.True(t, v.SoundEnabled)
	assert.False(t, v.MusicEnabled)
	assert.False(t, v.AdsRemoved)
}

func TestRecordScore(t *testing.T) {
	s := New(newMemKV(), nil)
	ctx := context.Background()

	cases := []struct {
		score    int
		wantHigh int
		improved bool
	}{
		{score: 50, wantHigh: 50, improved: true},
		{score: 20, wantHigh: 50, improved: false},
		{score: 50, wantHigh: 50, improved: false},
		{score: 51, wantHigh: 51, improved: true},
	}
	for _, tc := range cases {
		high, improved, err := s.RecordScore(ctx, tc.score)
		require.NoError(t, err)
		assert.Equal(t, tc.wantHigh, high, "score %d", tc.score)
		assert.Equal(t, tc.improved, improved, "score %d", tc.score)
	}

	v, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 51, v.HighScore)
}

func TestUnreadableValueFallsBackToDefault(t *testing.T) {
	kv := newMemKV()
	kv.values[KeySoundEnabled] = "maybe"
	v, err := New(kv, nil).Load(context.Background())
	require.NoError(t, err)
	assert.True(t, v.SoundEnabled)
}
