package engine

import "github.com/AdeelRMZ/BlockShock/internal/shape"

func (b *Board) anyAnchor(s shape.Shape) bool {
	for r := range Rows {
		for c := range Cols {
			if b.CanPlace(s, Position{Row: r, Col: c}) {
				return true
			}
		}
	}
	return false
}

// ExistsAnyPlacement reports whether p fits anywhere on b. Exception pieces
// may be rotated first, so every rotation is tried; a bomb needs one empty
// cell.
func (b *Board) ExistsAnyPlacement(p Piece) bool {
	if p.IsBomb() {
		return b.HasEmpty()
	}
	if !p.Exception {
		return b.anyAnchor(p.Shape())
	}
	for r := range shape.RotationCount(p.BaseIndex) {
		if b.anyAnchor(shape.MustLookup(p.BaseIndex, r)) {
			return true
		}
	}
	return false
}

// anyPlayable reports whether some pool piece can still be placed.
func anyPlayable(s State) bool {
	for _, p := range s.Pool {
		if p != nil && s.Board.ExistsAnyPlacement(*p) {
			return true
		}
	}
	return false
}

// Preview describes where a piece would land and which lines that placement
// would complete.
type Preview struct {
	Cells []Position `json:"cells"`
	Rows  []int      `json:"rows"`
	Cols  []int      `json:"cols"`
}

// PreviewPlacement is a pure query: it returns nil when p cannot be placed
// at `at`.
func PreviewPlacement(b Board, p Piece, at Position) *Preview {
	s := p.Shape()
	if !b.CanPlace(s, at) {
		return nil
	}
	if p.IsBomb() {
		return &Preview{Cells: []Position{at}}
	}
	cells, _ := b.Commit(s, at, p.Color)
	lines := b.DetectFullLines()
	return &Preview{Cells: cells, Rows: lines.Rows, Cols: lines.Cols}
}
