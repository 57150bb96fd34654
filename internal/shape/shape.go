package shape

import "slices"

// Offset is one cell of a shape relative to its anchor. X runs along a
// board row (columns), Y runs down the board (rows).
type Offset struct {
	X int
	Y int
}

// Shape is an ordered set of offsets.
type Shape []Offset

// Normalize translates s so that its minimum x and y are both 0.
func Normalize(s Shape) Shape {
	if len(s) == 0 {
		return Shape{}
	}
	minX, minY := s[0].X, s[0].Y
	for _, o := range s[1:] {
		minX = min(minX, o.X)
		minY = min(minY, o.Y)
	}
	out := make(Shape, len(s))
	for i, o := range s {
		out[i] = Offset{X: o.X - minX, Y: o.Y - minY}
	}
	return out
}

// Rotate turns s a quarter turn, (x, y) -> (y, -x), and renormalizes.
func Rotate(s Shape) Shape {
	n := Normalize(s)
	out := make(Shape, len(n))
	for i, o := range n {
		out[i] = Offset{X: o.Y, Y: -o.X}
	}
	return Normalize(out)
}

// Equal reports whether a and b cover the same cells once normalized.
// Offset order does not matter.
func Equal(a, b Shape) bool {
	if len(a) != len(b) {
		return false
	}
	na, nb := Normalize(a), Normalize(b)
	for _, o := range na {
		if !slices.Contains(nb, o) {
			return false
		}
	}
	return true
}

// Rotations returns the distinct canonical forms reached by rotating s up to
// four times, in first-seen order. The first element is Normalize(s).
func Rotations(s Shape) []Shape {
	var out []Shape
	cur := Normalize(s)
	for range 4 {
		seen := slices.ContainsFunc(out, func(r Shape) bool { return Equal(r, cur) })
		if !seen {
			out = append(out, cur)
		}
		cur = Rotate(cur)
	}
	return out
}

// Bounds returns the width and height of the normalized shape.
func Bounds(s Shape) (w, h int) {
	for _, o := range Normalize(s) {
		w = max(w, o.X+1)
		h = max(h, o.Y+1)
	}
	return w, h
}

// IsSquareLike reports whether s is a filled k×k square (the monomino
// included). Rotating such a shape never changes the cells it covers.
func IsSquareLike(s Shape) bool {
	n := Normalize(s)
	count := len(n)
	if count == 0 {
		return false
	}
	k := 0
	for k*k < count {
		k++
	}
	if k*k != count {
		return false
	}
	w, h := Bounds(n)
	if w != k || h != k {
		return false
	}
	rows := make(map[int]bool, k)
	cols := make(map[int]bool, k)
	for _, o := range n {
		cols[o.X] = true
		rows[o.Y] = true
	}
	return len(rows) == k && len(cols) == k
}
