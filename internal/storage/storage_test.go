package storage

import (
	"errors"
	"testing"
)

func TestCheckKey(t *testing.T) {
	cases := []struct {
		key string
		ok  bool
	}{
		{key: "K7Q2ZP", ok: true},
		{key: "isSoundEnabled", ok: true},
		{key: "a-b_c", ok: true},
		{key: "", ok: false},
		{key: "../x", ok: false},
		{key: "with space", ok: false},
	}
	for _, tc := range cases {
		err := CheckKey(tc.key)
		if tc.ok && err != nil {
			t.Fatalf("CheckKey(%q): unexpected %v", tc.key, err)
		}
		if !tc.ok && !errors.Is(err, ErrInvalidKey) {
			t.Fatalf("CheckKey(%q): want ErrInvalidKey, got %v", tc.key, err)
		}
	}
}
