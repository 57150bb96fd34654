package shape

// Catalog order and each entry's rotation order are part of the saved game
// format: pieces are persisted as (base index, rotation index). Append new
// shapes at the end; never reorder or edit existing entries.
var catalog = []Shape{
	{{0, 0}, {1, 0}, {2, 0}, {3, 0}},                                         // I4
	{{0, 0}, {1, 0}, {0, 1}, {1, 1}},                                         // O
	{{0, 0}, {1, 0}, {2, 0}, {1, 1}},                                         // T
	{{1, 0}, {2, 0}, {0, 1}, {1, 1}},                                         // S
	{{0, 0}, {1, 0}, {1, 1}, {2, 1}},                                         // Z
	{{0, 0}, {0, 1}, {0, 2}, {1, 2}},                                         // L
	{{1, 0}, {1, 1}, {1, 2}, {0, 2}},                                         // J
	{{0, 0}, {1, 0}},                                                         // domino
	{{0, 0}, {0, 1}},                                                         // domino, vertical
	{{0, 0}, {1, 0}, {2, 0}, {0, 1}, {1, 1}, {2, 1}, {0, 2}, {1, 2}, {2, 2}}, // 3x3
	{{0, 0}},                                                                 // monomino
	{{0, 0}, {0, 1}, {0, 2}, {1, 2}, {2, 2}},                                 // big L
	{{0, 0}, {0, 1}, {1, 1}},                                                 // small L
	{{0, 0}, {0, 1}, {0, 2}, {0, 3}, {0, 4}},                                 // I5
	{{0, 0}, {1, 0}, {0, 1}, {1, 1}, {0, 2}, {1, 2}},                         // 2x3
}

var rotationTable = buildRotations(catalog)

func buildRotations(shapes []Shape) [][]Shape {
	out := make([][]Shape, len(shapes))
	for i, s := range shapes {
		out[i] = Rotations(s)
	}
	return out
}

// Len is the number of base shapes in the catalog.
func Len() int { return len(catalog) }

// Base returns a copy of the base shape at index i.
func Base(i int) (Shape, bool) {
	if i < 0 || i >= len(catalog) {
		return nil, false
	}
	return clone(catalog[i]), true
}

// RotationCount returns how many distinct rotations base shape i has, or 0
// for an unknown index.
func RotationCount(i int) int {
	if i < 0 || i >= len(rotationTable) {
		return 0
	}
	return len(rotationTable[i])
}

// Lookup returns rotation r of base shape i.
func Lookup(i, r int) (Shape, bool) {
	if r < 0 || r >= RotationCount(i) {
		return nil, false
	}
	return clone(rotationTable[i][r]), true
}

// MustLookup is Lookup for indices already validated by the caller.
func MustLookup(i, r int) Shape {
	s, ok := Lookup(i, r)
	if !ok {
		panic("shape: index out of catalog range")
	}
	return s
}

func clone(s Shape) Shape {
	out := make(Shape, len(s))
	copy(out, s)
	return out
}
