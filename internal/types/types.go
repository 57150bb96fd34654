package types

import "github.com/AdeelRMZ/BlockShock/internal/engine"

type ClientMessage struct {
	Type string `json:"type"`
	Slot int    `json:"slot"`
	Row  int    `json:"row"`
	Col  int    `json:"col"`
}

type ServerMessage struct {
	Type    string          `json:"type"` // "StateSnapshot" | "Preview" | "Error"
	Version int             `json:"version,omitempty"`
	State   *GameView       `json:"state,omitempty"`
	Preview *engine.Preview `json:"preview,omitempty"`
	Error   string          `json:"error,omitempty"`
}

type Block struct {
	Row   int    `json:"row"`
	Col   int    `json:"col"`
	Color string `json:"color"`
}

type Cell struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type PieceView struct {
	Kind          string       `json:"kind"` // "normal" | "bomb"
	BaseIndex     int          `json:"base_index"`
	RotationIndex int          `json:"rotation_index"`
	Slot          int          `json:"slot"`
	Color         string       `json:"color"`
	Exception     bool         `json:"exception"`
	Origin        engine.Point `json:"origin"`
	DisplayScale  float64      `json:"display_scale"`
	Cells         []Cell       `json:"cells"`
}

type GameView struct {
	Phase       engine.Phase `json:"phase"`
	Board       []Block      `json:"board"`
	Pool        []*PieceView `json:"pool"`
	Held        *PieceView   `json:"held"`
	Score       int          `json:"score"`
	Combo       int          `json:"combo"`
	ReviveCount int          `json:"revive_count"`
	RevivesLeft int          `json:"revives_left"`
	HighScore   int          `json:"high_score"`
}

func NewGameView(s engine.State, highScore int) *GameView {
	v := &GameView{
		Phase:       s.Phase,
		Board:       []Block{},
		Pool:        make([]*PieceView, engine.PoolSize),
		Score:       s.Score,
		Combo:       s.Combo,
		ReviveCount: s.ReviveCount,
		RevivesLeft: engine.MaxRevives - s.ReviveCount,
		HighScore:   highScore,
	}
	for _, pos := range s.Board.Filled() {
		v.Board = append(v.Board, Block{Row: pos.Row, Col: pos.Col, Color: s.Board[pos.Row][pos.Col].Color.Hex()})
	}
	for i, p := range s.Pool {
		if p != nil {
			v.Pool[i] = newPieceView(*p)
		}
	}
	if s.Held != nil {
		v.Held = newPieceView(*s.Held)
	}
	return v
}

func newPieceView(p engine.Piece) *PieceView {
	pv := &PieceView{
		Kind:          "normal",
		BaseIndex:     p.BaseIndex,
		RotationIndex: p.RotationIndex,
		Slot:          p.Slot,
		Color:         p.Color.Hex(),
		Exception:     p.Exception,
		Origin:        p.Origin,
		DisplayScale:  p.DisplayScale,
	}
	if p.IsBomb() {
		pv.Kind = "bomb"
	}
	for _, o := range p.Shape() {
		pv.Cells = append(pv.Cells, Cell{X: o.X, Y: o.Y})
	}
	return pv
}
