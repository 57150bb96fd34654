package engine

import "github.com/AdeelRMZ/BlockShock/internal/shape"

type Kind uint8

const (
	KindNormal Kind = iota
	KindBomb
)

const (
	NormalScale = 0.4
	BombScale   = 1.0
)

// Point is a slot origin in host coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Piece is an immutable pool entry. A Normal piece is identified by its
// catalog index and rotation index; a Bomb has neither.
type Piece struct {
	Kind          Kind
	BaseIndex     int
	RotationIndex int
	Color         Color
	Exception     bool

	// Slot is the pool slot the piece was dealt into; a rejected release
	// returns it there.
	Slot         int
	Origin       Point
	DisplayScale float64
}

func (p Piece) IsBomb() bool { return p.Kind == KindBomb }

// Shape is the footprint of the piece in its current rotation.
func (p Piece) Shape() shape.Shape {
	if p.IsBomb() {
		return shape.Shape{{X: 0, Y: 0}}
	}
	s, ok := shape.Lookup(p.BaseIndex, p.RotationIndex)
	if !ok {
		return nil
	}
	return s
}

// Rotated returns the piece advanced to its next distinct rotation. Only
// exception pieces rotate.
func (p Piece) Rotated() (Piece, bool) {
	if p.IsBomb() || !p.Exception {
		return p, false
	}
	n := shape.RotationCount(p.BaseIndex)
	if n == 0 {
		return p, false
	}
	p.RotationIndex = (p.RotationIndex + 1) % n
	return p, true
}

// Valid reports whether a Normal piece refers to an existing catalog entry.
func (p Piece) Valid() bool {
	if p.IsBomb() {
		return true
	}
	_, ok := shape.Lookup(p.BaseIndex, p.RotationIndex)
	return ok
}

const PoolSize = 3

// Pool is the three spawn slots; nil marks an empty slot.
type Pool [PoolSize]*Piece

func (p Pool) Empty() bool {
	for _, pc := range p {
		if pc != nil {
			return false
		}
	}
	return true
}

func (p Pool) Count() int {
	n := 0
	for _, pc := range p {
		if pc != nil {
			n++
		}
	}
	return n
}

// Pieces returns the occupied slots in slot order.
func (p Pool) Pieces() []Piece {
	var out []Piece
	for _, pc := range p {
		if pc != nil {
			out = append(out, *pc)
		}
	}
	return out
}
