package engine

// Lines lists full rows and full columns. A cell can sit in both.
type Lines struct {
	Rows []int
	Cols []int
}

func (l Lines) Empty() bool { return len(l.Rows) == 0 && len(l.Cols) == 0 }

// DetectFullLines finds every row and column whose cells are all filled.
func (b *Board) DetectFullLines() Lines {
	var l Lines
	for r := range Rows {
		full := true
		for c := range Cols {
			if !b[r][c].Filled {
				full = false
				break
			}
		}
		if full {
			l.Rows = append(l.Rows, r)
		}
	}
	for c := range Cols {
		full := true
		for r := range Rows {
			if !b[r][c].Filled {
				full = false
				break
			}
		}
		if full {
			l.Cols = append(l.Cols, c)
		}
	}
	return l
}

// Clear empties every filled cell lying in one of the given rows or columns
// and returns those cells once each, so a row/column intersection counts
// a single time.
func (b *Board) Clear(l Lines) []Position {
	var rows [Rows]bool
	var cols [Cols]bool
	for _, r := range l.Rows {
		if r >= 0 && r < Rows {
			rows[r] = true
		}
	}
	for _, c := range l.Cols {
		if c >= 0 && c < Cols {
			cols[c] = true
		}
	}

	var cleared []Position
	for r := range Rows {
		for c := range Cols {
			if (rows[r] || cols[c]) && b[r][c].Filled {
				b[r][c] = Cell{}
				cleared = append(cleared, Position{Row: r, Col: c})
			}
		}
	}
	return cleared
}

// Explode clears the whole row and column through `at`, regardless of
// whether those lines were full, and returns the filled cells it emptied.
func (b *Board) Explode(at Position) []Position {
	if !inBounds(at) {
		return nil
	}
	return b.Clear(Lines{Rows: []int{at.Row}, Cols: []int{at.Col}})
}
