// Package settings is the process-wide key/value settings collaborator:
// sound and music toggles, ads removal and the high score.
package settings

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"github.com/AdeelRMZ/BlockShock/internal/storage"
)

const (
	KeySoundEnabled = "isSoundEnabled"
	KeyMusicEnabled = "isMusicEnabled"
	KeyAdsRemoved   = "adsRemoved"
	KeyHighScore    = "highScore"
)

// KV is the slice of storage.Store settings need.
type KV interface {
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error
}

type Values struct {
	SoundEnabled bool `json:"isSoundEnabled"`
	MusicEnabled bool `json:"isMusicEnabled"`
	AdsRemoved   bool `json:"adsRemoved"`
	HighScore    int  `json:"highScore"`
}

func Defaults() Values {
	return Values{SoundEnabled: true, MusicEnabled: true}
}

// Patch carries the fields a client wants to change; nil means keep.
type Patch struct {
	SoundEnabled *bool `json:"isSoundEnabled,omitempty"`
	MusicEnabled *bool `json:"isMusicEnabled,omitempty"`
	AdsRemoved   *bool `json:"adsRemoved,omitempty"`
}

type Service struct {
	kv     KV
	logger *zap.Logger

	mu sync.Mutex
}

func New(kv KV, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{kv: kv, logger: logger}
}

// Load returns every setting. A key read for the first time is written
// with its default.
func (s *Service) Load(ctx context.Context) (Values, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

func (s *Service) load(ctx context.Context) (Values, error) {
	d := Defaults()
	var v Values
	var err error
	if v.SoundEnabled, err = s.boolean(ctx, KeySoundEnabled, d.SoundEnabled); err != nil {
		return Values{}, err
	}
	if v.MusicEnabled, err = s.boolean(ctx, KeyMusicEnabled, d.MusicEnabled); err != nil {
		return Values{}, err
	}
	if v.AdsRemoved, err = s.boolean(ctx, KeyAdsRemoved, d.AdsRemoved); err != nil {
		return Values{}, err
	}
	if v.HighScore, err = s.integer(ctx, KeyHighScore, d.HighScore); err != nil {
		return Values{}, err
	}
	return v, nil
}

func (s *Service) Update(ctx context.Context, p Patch) (Values, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	set := func(key string, b *bool) error {
		if b == nil {
			return nil
		}
		return s.kv.SetSetting(ctx, key, strconv.FormatBool(*b))
	}
	if err := set(KeySoundEnabled, p.SoundEnabled); err != nil {
		return Values{}, err
	}
	if err := set(KeyMusicEnabled, p.MusicEnabled); err != nil {
		return Values{}, err
	}
	if err := set(KeyAdsRemoved, p.AdsRemoved); err != nil {
		return Values{}, err
	}
	return s.load(ctx)
}

func (s *Service) HighScore(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.integer(ctx, KeyHighScore, 0)
}

// RecordScore raises the high score to score when it is higher and
// returns the resulting high score.
func (s *Service) RecordScore(ctx context.Context, score int) (int, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	high, err := s.integer(ctx, KeyHighScore, 0)
	if err != nil {
		return 0, false, err
	}
	if score <= high {
		return high, false, nil
	}
	if err := s.kv.SetSetting(ctx, KeyHighScore, strconv.Itoa(score)); err != nil {
		return high, false, err
	}
	s.logger.Info("new high score", zap.Int("score", score), zap.Int("previous", high))
	return score, true, nil
}

func (s *Service) raw(ctx context.Context, key, def string) (string, error) {
	v, err := s.kv.GetSetting(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		if err := s.kv.SetSetting(ctx, key, def); err != nil {
			return "", fmt.Errorf("register default %s: %w", key, err)
		}
		return def, nil
	}
	if err != nil {
		return "", err
	}
	return v, nil
}

func (s *Service) boolean(ctx context.Context, key string, def bool) (bool, error) {
	v, err := s.raw(ctx, key, strconv.FormatBool(def))
	if err != nil {
		return false, err
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		s.logger.Warn("unreadable setting, using default", zap.String("key", key), zap.String("value", v))
		return def, nil
	}
	return b, nil
}

func (s *Service) integer(ctx context.Context, key string, def int) (int, error) {
	v, err := s.raw(ctx, key, strconv.Itoa(def))
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		s.logger.Warn("unreadable setting, using default", zap.String("key", key), zap.String("value", v))
		return def, nil
	}
	return n, nil
}
