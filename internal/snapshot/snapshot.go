package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/AdeelRMZ/BlockShock/internal/engine"
	"github.com/AdeelRMZ/BlockShock/pkg/types"
)

var ErrCorrupt = errors.New("corrupt snapshot")
var ErrUnknownFormat = errors.New("unknown snapshot format")

type Format string

const (
	FormatJSON    Format = "json"
	FormatMsgpack Format = "msgpack"
)

func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatJSON, "":
		return FormatJSON, nil
	case FormatMsgpack:
		return FormatMsgpack, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// Encode serializes the persistable part of s: score, counters, board,
// held piece and pool. Phase is implied (only Playing sessions are saved).
func Encode(s engine.State, f Format) ([]byte, error) {
	g := FromState(s)
	switch f {
	case FormatJSON, "":
		return json.Marshal(g)
	case FormatMsgpack:
		return msgpack.Marshal(&g)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
}

// Decode parses data into a Playing state. Any malformed input yields an
// error wrapping ErrCorrupt.
func Decode(data []byte, f Format) (engine.State, error) {
	var g types.SavedGame
	var err error
	switch f {
	case FormatJSON, "":
		err = json.Unmarshal(data, &g)
	case FormatMsgpack:
		err = msgpack.Unmarshal(data, &g)
	default:
		return engine.State{}, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
	if err != nil {
		return engine.State{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return ToState(g)
}

// Restore decodes data into a session, or returns nil when data cannot be
// used; callers treat nil as "no saved game".
func Restore(data []byte, f Format, opts ...engine.SessionOption) *engine.Session {
	st, err := Decode(data, f)
	if err != nil {
		return nil
	}
	return engine.RestoreSession(st, opts...)
}

func FromState(s engine.State) types.SavedGame {
	g := types.SavedGame{
		Version:             types.SnapshotVersion,
		Score:               s.Score,
		SpawnCounter:        s.Counters.Spawn,
		SpawnThreshold:      s.Counters.SpawnThreshold,
		BlackSpawnCounter:   s.Counters.Bomb,
		BlackSpawnThreshold: s.Counters.BombThreshold,
		ComboCounter:        s.Combo,
		ReviveCount:         s.ReviveCount,
		GridBlocks:          []types.SavedBlock{},
		SpawnOptions:        make([]*types.SavedPiece, engine.PoolSize),
	}
	for _, pos := range s.Board.Filled() {
		g.GridBlocks = append(g.GridBlocks, types.SavedBlock{
			Row:   pos.Row,
			Col:   pos.Col,
			Color: s.Board[pos.Row][pos.Col].Color.Hex(),
		})
	}
	if s.Held != nil {
		g.CurrentPiece = savePiece(*s.Held)
	}
	for i, p := range s.Pool {
		if p != nil {
			g.SpawnOptions[i] = savePiece(*p)
		}
	}
	return g
}

func savePiece(p engine.Piece) *types.SavedPiece {
	return &types.SavedPiece{
		BaseIndex:             p.BaseIndex,
		RotationIndex:         p.RotationIndex,
		BlockColor:            p.Color.Hex(),
		Slot:                  p.Slot,
		OriginalSpawnPosition: types.SavedPoint{X: p.Origin.X, Y: p.Origin.Y},
		DisplayScale:          p.DisplayScale,
		ExceptionSpawn:        p.Exception,
		IsBlackSpawn:          p.IsBomb(),
	}
}

// ToState validates g and rebuilds the session state it describes.
func ToState(g types.SavedGame) (engine.State, error) {
	corrupt := func(format string, args ...any) (engine.State, error) {
		return engine.State{}, fmt.Errorf("%w: %s", ErrCorrupt, fmt.Sprintf(format, args...))
	}

	if g.Version > types.SnapshotVersion {
		return corrupt("version %d is newer than %d", g.Version, types.SnapshotVersion)
	}
	if g.Score < 0 || g.ComboCounter < 0 || g.SpawnCounter < 0 || g.BlackSpawnCounter < 0 {
		return corrupt("negative counter")
	}
	if g.ReviveCount < 0 || g.ReviveCount > engine.MaxRevives {
		return corrupt("revive count %d", g.ReviveCount)
	}
	if len(g.SpawnOptions) > engine.PoolSize {
		return corrupt("%d spawn options", len(g.SpawnOptions))
	}
	if g.SpawnThreshold < engine.SpawnThresholdMin || g.SpawnThreshold > engine.SpawnThresholdMax {
		return corrupt("spawn threshold %d", g.SpawnThreshold)
	}
	if g.BlackSpawnThreshold < engine.BombThresholdMin || g.BlackSpawnThreshold > engine.BombThresholdMax {
		return corrupt("bomb threshold %d", g.BlackSpawnThreshold)
	}

	s := engine.NewEmptyState()
	s.Phase = engine.PhasePlaying
	s.Score = g.Score
	s.Combo = g.ComboCounter
	s.ReviveCount = g.ReviveCount
	s.Counters = engine.Counters{
		Spawn:          g.SpawnCounter,
		SpawnThreshold: g.SpawnThreshold,
		Bomb:           g.BlackSpawnCounter,
		BombThreshold:  g.BlackSpawnThreshold,
	}

	for _, b := range g.GridBlocks {
		if b.Row < 0 || b.Row >= engine.Rows || b.Col < 0 || b.Col >= engine.Cols {
			return corrupt("block (%d,%d) out of bounds", b.Row, b.Col)
		}
		if s.Board[b.Row][b.Col].Filled {
			return corrupt("block (%d,%d) listed twice", b.Row, b.Col)
		}
		c, err := engine.ParseColor(b.Color)
		if err != nil {
			return corrupt("block (%d,%d): %v", b.Row, b.Col, err)
		}
		s.Board[b.Row][b.Col] = engine.Cell{Filled: true, Color: c}
	}

	for i, sp := range g.SpawnOptions {
		if sp == nil {
			continue
		}
		p, err := loadPiece(*sp)
		if err != nil {
			return corrupt("spawn option %d: %v", i, err)
		}
		p.Slot = i
		s.Pool[i] = &p
	}
	if g.CurrentPiece != nil {
		p, err := loadPiece(*g.CurrentPiece)
		if err != nil {
			return corrupt("current piece: %v", err)
		}
		s.Held = &p
	}

	if s.Held == nil && s.Pool.Empty() {
		return corrupt("no pieces")
	}
	exceptions := engine.CountExceptions(s.Pool)
	if s.Held != nil && s.Held.Exception {
		exceptions++
	}
	if exceptions > 1 {
		return corrupt("%d exception pieces", exceptions)
	}
	return s, nil
}

func loadPiece(sp types.SavedPiece) (engine.Piece, error) {
	p := engine.Piece{
		Slot:         sp.Slot,
		Origin:       engine.Point{X: sp.OriginalSpawnPosition.X, Y: sp.OriginalSpawnPosition.Y},
		DisplayScale: sp.DisplayScale,
	}
	if p.Slot < 0 || p.Slot >= engine.PoolSize {
		p.Slot = 0
	}
	if sp.IsBlackSpawn {
		p.Kind = engine.KindBomb
		p.Color = engine.BombColor
		if p.DisplayScale == 0 {
			p.DisplayScale = engine.BombScale
		}
		return p, nil
	}

	hex := sp.BlockColor
	if hex == "" {
		hex = sp.Color
	}
	c, err := engine.ParseColor(hex)
	if err != nil {
		return engine.Piece{}, err
	}
	p.Kind = engine.KindNormal
	p.BaseIndex = sp.BaseIndex
	p.RotationIndex = sp.RotationIndex
	p.Color = c
	p.Exception = sp.ExceptionSpawn
	if p.DisplayScale == 0 {
		p.DisplayScale = engine.NormalScale
	}
	if !p.Valid() {
		return engine.Piece{}, fmt.Errorf("no shape %d/%d", sp.BaseIndex, sp.RotationIndex)
	}
	return p, nil
}
