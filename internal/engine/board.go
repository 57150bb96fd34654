package engine

import "github.com/AdeelRMZ/BlockShock/internal/shape"

const (
	Rows = 8
	Cols = 8
)

// Position addresses one board cell.
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Cell is Empty when Filled is false.
type Cell struct {
	Filled bool
	Color  Color
}

// Board is the fixed Rows×Cols occupancy matrix. It is a value type, so
// copying a State copies the board.
type Board [Rows][Cols]Cell

func inBounds(p Position) bool {
	return p.Row >= 0 && p.Row < Rows && p.Col >= 0 && p.Col < Cols
}

// Footprint translates offsets to board positions anchored at `at`.
// Offset X moves along the row, offset Y moves down the column.
func Footprint(s shape.Shape, at Position) []Position {
	out := make([]Position, len(s))
	for i, o := range s {
		out[i] = Position{Row: at.Row + o.Y, Col: at.Col + o.X}
	}
	return out
}

// At returns the cell at p and false when p is off the board.
func (b *Board) At(p Position) (Cell, bool) {
	if !inBounds(p) {
		return Cell{}, false
	}
	return b[p.Row][p.Col], true
}

// CanPlace reports whether every cell of s anchored at `at` is on the board
// and empty.
func (b *Board) CanPlace(s shape.Shape, at Position) bool {
	if len(s) == 0 {
		return false
	}
	for _, p := range Footprint(s, at) {
		if !inBounds(p) || b[p.Row][p.Col].Filled {
			return false
		}
	}
	return true
}

// Commit fills the footprint of s at `at` with color. It re-checks CanPlace
// and leaves the board untouched on failure.
func (b *Board) Commit(s shape.Shape, at Position, color Color) ([]Position, error) {
	if !b.CanPlace(s, at) {
		return nil, ErrInvalidPlacement
	}
	cells := Footprint(s, at)
	for _, p := range cells {
		b[p.Row][p.Col] = Cell{Filled: true, Color: color}
	}
	return cells, nil
}

// HasEmpty reports whether at least one cell is empty.
func (b *Board) HasEmpty() bool {
	for r := range Rows {
		for c := range Cols {
			if !b[r][c].Filled {
				return true
			}
		}
	}
	return false
}

// Filled lists occupied cells in row-major order.
func (b *Board) Filled() []Position {
	var out []Position
	for r := range Rows {
		for c := range Cols {
			if b[r][c].Filled {
				out = append(out, Position{Row: r, Col: c})
			}
		}
	}
	return out
}

// Reset empties every cell.
func (b *Board) Reset() {
	*b = Board{}
}
