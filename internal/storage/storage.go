// Package storage persists session snapshots and settings values.
package storage

import (
	"context"
	"errors"
	"fmt"
	"regexp"
)

var ErrNotFound = errors.New("not found")
var ErrInvalidKey = errors.New("invalid key")

// Store is implemented by the file, sqlite and postgres backends. Snapshot
// data is opaque: the codec owns the byte format.
type Store interface {
	SaveSnapshot(ctx context.Context, code string, data []byte) error
	LoadSnapshot(ctx context.Context, code string) ([]byte, error)
	DeleteSnapshot(ctx context.Context, code string) error

	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error

	Close() error
}

var keyPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// CheckKey rejects game codes and setting keys that cannot be used as file
// names or primary keys.
func CheckKey(key string) error {
	if !keyPattern.MatchString(key) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}
