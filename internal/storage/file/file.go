// Package file stores each game's snapshot as its own file under a data
// directory, plus one settings.json for all settings.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/AdeelRMZ/BlockShock/internal/storage"
)

const (
	DefaultSnapshotName = "savedGame.json"
	settingsName        = "settings.json"
	gamesDir            = "games"
)

type Store struct {
	dir          string
	snapshotName string

	mu sync.Mutex // guards settings.json read-modify-write
}

type Option func(*Store)

// WithSnapshotName changes the per-game file name, e.g. for msgpack data.
func WithSnapshotName(name string) Option {
	return func(s *Store) { s.snapshotName = name }
}

func Open(dir string, opts ...Option) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("data dir is required")
	}
	if err := os.MkdirAll(filepath.Join(dir, gamesDir), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	s := &Store{dir: dir, snapshotName: DefaultSnapshotName}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Store) Close() error { return nil }

func (s *Store) snapshotPath(code string) string {
	return filepath.Join(s.dir, gamesDir, code, s.snapshotName)
}

func (s *Store) SaveSnapshot(ctx context.Context, code string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := storage.CheckKey(code); err != nil {
		return err
	}
	path := s.snapshotPath(code)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("save snapshot %s: %w", code, err)
	}
	if err := writeAtomic(path, data); err != nil {
		return fmt.Errorf("save snapshot %s: %w", code, err)
	}
	return nil
}

func (s *Store) LoadSnapshot(ctx context.Context, code string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := storage.CheckKey(code); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.snapshotPath(code))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot %s: %w", code, err)
	}
	return data, nil
}

func (s *Store) DeleteSnapshot(ctx context.Context, code string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := storage.CheckKey(code); err != nil {
		return err
	}
	err := os.RemoveAll(filepath.Join(s.dir, gamesDir, code))
	if err != nil {
		return fmt.Errorf("delete snapshot %s: %w", code, err)
	}
	return nil
}

func (s *Store) GetSetting(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := storage.CheckKey(key); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.readSettings()
	if err != nil {
		return "", err
	}
	v, ok := values[key]
	if !ok {
		return "", storage.ErrNotFound
	}
	return v, nil
}

func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := storage.CheckKey(key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.readSettings()
	if err != nil {
		return err
	}
	values[key] = value
	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := writeAtomic(filepath.Join(s.dir, settingsName), data); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}

func (s *Store) readSettings() (map[string]string, error) {
	values := map[string]string{}
	data, err := os.ReadFile(filepath.Join(s.dir, settingsName))
	if errors.Is(err, fs.ErrNotExist) {
		return values, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}
	return values, nil
}

// writeAtomic writes through a temp file in the same directory so a crash
// never leaves a half-written snapshot behind.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
