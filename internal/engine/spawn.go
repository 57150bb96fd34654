package engine

import (
	"github.com/AdeelRMZ/BlockShock/internal/random"
	"github.com/AdeelRMZ/BlockShock/internal/shape"
)

const (
	SpawnThresholdMin = 5
	SpawnThresholdMax = 7
	BombThresholdMin  = 8
	BombThresholdMax  = 10
)

// Rand is the randomness the spawner draws from. *rand.Rand from
// math/rand/v2 satisfies it.
type Rand interface {
	IntN(n int) int
}

// Counters drive the emergence of exception pieces and bombs.
type Counters struct {
	Spawn          int
	SpawnThreshold int
	Bomb           int
	BombThreshold  int
}

// Spawner deals pool batches.
type Spawner struct {
	rng   Rand
	slots [PoolSize]Point
}

type SpawnerOption func(*Spawner)

// WithSlotPositions sets the origin recorded on pieces dealt into each slot.
func WithSlotPositions(pts [PoolSize]Point) SpawnerOption {
	return func(sp *Spawner) { sp.slots = pts }
}

// DefaultSlotPositions spreads the slots at 1/6, 3/6 and 5/6 of the grid
// width.
func DefaultSlotPositions() [PoolSize]Point {
	var pts [PoolSize]Point
	for i := range pts {
		pts[i] = Point{X: float64(2*i+1) / 6, Y: 0}
	}
	return pts
}

// NewSpawner builds a spawner; a nil rng gets a crypto-seeded generator.
func NewSpawner(rng Rand, opts ...SpawnerOption) *Spawner {
	if rng == nil {
		rng = random.New(0)
	}
	sp := &Spawner{rng: rng, slots: DefaultSlotPositions()}
	for _, opt := range opts {
		opt(sp)
	}
	return sp
}

// SlotPositions returns the configured slot origins.
func (sp *Spawner) SlotPositions() [PoolSize]Point { return sp.slots }

func (sp *Spawner) between(lo, hi int) int {
	return lo + sp.rng.IntN(hi-lo+1)
}

// InitialCounters is the counter state of a fresh game.
func (sp *Spawner) InitialCounters() Counters {
	return Counters{
		SpawnThreshold: sp.between(SpawnThresholdMin, SpawnThresholdMax),
		BombThreshold:  sp.between(BombThresholdMin, BombThresholdMax),
	}
}

// Refill deals a full batch of PoolSize pieces. Per slot: a bomb when the
// bomb counter has reached its threshold, otherwise a random normal piece.
// At most one normal piece per batch becomes the exception piece, and never
// a square-like one; when the spawn counter is due on a square-like piece
// the flag waits for the next eligible piece.
func (sp *Spawner) Refill(c Counters) (Pool, Counters) {
	var pool Pool
	exceptionAssigned := false
	for slot := range PoolSize {
		var p Piece
		if c.Bomb >= c.BombThreshold {
			p = Piece{Kind: KindBomb, Color: BombColor, DisplayScale: BombScale}
			c.Bomb = 0
			c.BombThreshold = sp.between(BombThresholdMin, BombThresholdMax)
		} else {
			p = sp.normal()
			c.Spawn++
			c.Bomb++
			if !exceptionAssigned && c.Spawn >= c.SpawnThreshold && !shape.IsSquareLike(p.Shape()) {
				p.Exception = true
				exceptionAssigned = true
				c.Spawn = 0
				c.SpawnThreshold = sp.between(SpawnThresholdMin, SpawnThresholdMax)
			}
		}
		p.Slot = slot
		p.Origin = sp.slots[slot]
		pool[slot] = &p
	}
	return pool, c
}

func (sp *Spawner) normal() Piece {
	base := sp.rng.IntN(shape.Len())
	rot := sp.rng.IntN(shape.RotationCount(base))
	color := Palette[sp.rng.IntN(len(Palette))]
	return Piece{
		Kind:          KindNormal,
		BaseIndex:     base,
		RotationIndex: rot,
		Color:         color,
		DisplayScale:  NormalScale,
	}
}
