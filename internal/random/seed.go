// Package random builds the pseudo-random generators the spawner draws from.
//
// Seeds come from crypto/rand unless a fixed seed is configured, which keeps
// replays and tests deterministic.
package random

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"math/rand/v2"
)

// NewSeed generates a random seed using crypto/rand.
func NewSeed() (uint64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}

// New returns a PCG generator for seed. A zero seed draws one from
// crypto/rand, falling back to the runtime's global source.
func New(seed uint64) *rand.Rand {
	if seed == 0 {
		s, err := NewSeed()
		if err != nil {
			s = rand.Uint64()
		}
		seed = s
	}
	return rand.New(rand.NewPCG(seed, seed^0x9E3779B97F4A7C15))
}

// Derive mixes key into a fixed seed so every key gets its own stream from
// the same configuration. A zero seed stays zero and keeps New random.
func Derive(seed uint64, key string) uint64 {
	if seed == 0 {
		return 0
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(key))
	if d := seed ^ h.Sum64(); d != 0 {
		return d
	}
	return seed
}
