package engine

import "errors"

var ErrNotPlaying = errors.New("no game in progress")
var ErrAlreadyStarted = errors.New("game already started")
var ErrIllegalSlot = errors.New("illegal spawn slot")
var ErrAlreadyHolding = errors.New("a piece is already held")
var ErrNothingHeld = errors.New("no piece held")
var ErrNotRotatable = errors.New("piece cannot rotate")
var ErrInvalidPlacement = errors.New("invalid placement")
var ErrReviveLimit = errors.New("revive limit reached")
var ErrNotGameOver = errors.New("game is not over")
var ErrUnsupportedCommand = errors.New("unsupported command")

const MaxRevives = 3

// HeldSlot addresses the held piece in a rotate command.
const HeldSlot = -1

type Phase string

const (
	PhaseNotStarted Phase = "not_started"
	PhasePlaying    Phase = "playing"
	PhaseGameOver   Phase = "game_over"
)

// State is everything a session owns. Copying a State yields an independent
// value: the board is an array and pieces are never mutated in place.
type State struct {
	Phase       Phase
	Board       Board
	Pool        Pool
	Held        *Piece
	Score       int
	Combo       int
	Counters    Counters
	ReviveCount int
}

type CommandType string

const (
	CmdStart   CommandType = "Start"
	CmdPick    CommandType = "Pick"
	CmdRelease CommandType = "Release"
	CmdRotate  CommandType = "Rotate"
	CmdRevive  CommandType = "Revive"
	CmdRestart CommandType = "Restart"
	CmdHome    CommandType = "Home"
)

/*
	CmdStart   -> EvtStarted -> EvtPoolRefilled
	CmdPick    -> EvtPiecePicked
	CmdRelease -> EvtPiecePlaced | EvtBombExploded -> EvtLinesCleared? -> EvtScored? -> EvtPoolRefilled? -> EvtGameOver?
	           -> EvtPlacementRejected (piece goes back to its slot)
	CmdRotate  -> EvtPieceRotated
	CmdRevive  -> EvtRevived -> EvtPoolRefilled -> EvtGameOver?
	CmdRestart -> EvtSessionDiscarded -> EvtStarted -> EvtPoolRefilled
	CmdHome    -> EvtSessionDiscarded
*/

type Command struct {
	Type CommandType
	Slot int
	At   Position
}

type EventType string

const (
	EvtStarted           EventType = "Started"
	EvtPiecePicked       EventType = "PiecePicked"
	EvtPiecePlaced       EventType = "PiecePlaced"
	EvtPlacementRejected EventType = "PlacementRejected"
	EvtBombExploded      EventType = "BombExploded"
	EvtLinesCleared      EventType = "LinesCleared"
	EvtScored            EventType = "Scored"
	EvtPoolRefilled      EventType = "PoolRefilled"
	EvtPieceRotated      EventType = "PieceRotated"
	EvtGameOver          EventType = "GameOver"
	EvtRevived           EventType = "Revived"
	EvtSessionDiscarded  EventType = "SessionDiscarded"
)

type Event struct {
	Type          EventType
	Slot          int
	At            Position
	Cells         []Position
	Rows          []int
	Cols          []int
	Delta         int
	Score         int
	Count         int
	RotationIndex int
}

// Apply runs one command against s. On error the returned state is s. A
// release at an illegal anchor is not an error: the held piece goes back to
// its slot and EvtPlacementRejected is emitted.
func Apply(s State, cmd Command, sp *Spawner) ([]Event, State, error) {
	switch cmd.Type {
	case CmdStart:
		if s.Phase != PhaseNotStarted {
			return nil, s, ErrAlreadyStarted
		}
		events, ns := newGame(sp)
		return events, ns, nil

	case CmdRestart:
		events, ns := newGame(sp)
		events = append([]Event{{Type: EvtSessionDiscarded, Score: s.Score}}, events...)
		return events, ns, nil

	case CmdHome:
		return []Event{{Type: EvtSessionDiscarded, Score: s.Score}}, NewEmptyState(), nil

	case CmdPick:
		if s.Phase != PhasePlaying {
			return nil, s, ErrNotPlaying
		}
		if s.Held != nil {
			return nil, s, ErrAlreadyHolding
		}
		if cmd.Slot < 0 || cmd.Slot >= PoolSize || s.Pool[cmd.Slot] == nil {
			return nil, s, ErrIllegalSlot
		}
		newState := s
		newState.Held = s.Pool[cmd.Slot]
		newState.Pool[cmd.Slot] = nil
		return []Event{{Type: EvtPiecePicked, Slot: cmd.Slot}}, newState, nil

	case CmdRelease:
		if s.Phase != PhasePlaying {
			return nil, s, ErrNotPlaying
		}
		if s.Held == nil {
			return nil, s, ErrNothingHeld
		}
		events, newState := release(s, cmd.At, sp)
		return events, newState, nil

	case CmdRotate:
		if s.Phase != PhasePlaying {
			return nil, s, ErrNotPlaying
		}
		return rotate(s, cmd.Slot)

	case CmdRevive:
		if s.Phase != PhaseGameOver {
			return nil, s, ErrNotGameOver
		}
		if s.ReviveCount >= MaxRevives {
			return nil, s, ErrReviveLimit
		}
		newState := s
		newState.ReviveCount++
		newState.Phase = PhasePlaying
		newState.Held = nil
		newState.Pool, newState.Counters = sp.Refill(s.Counters)
		events := []Event{
			{Type: EvtRevived, Count: newState.ReviveCount},
			{Type: EvtPoolRefilled},
		}
		if !anyPlayable(newState) {
			newState.Phase = PhaseGameOver
			events = append(events, Event{Type: EvtGameOver, Score: newState.Score})
		}
		return events, newState, nil

	default:
		return nil, s, ErrUnsupportedCommand
	}
}

func newGame(sp *Spawner) ([]Event, State) {
	s := NewEmptyState()
	s.Phase = PhasePlaying
	s.Counters = sp.InitialCounters()
	s.Pool, s.Counters = sp.Refill(s.Counters)
	return []Event{{Type: EvtStarted}, {Type: EvtPoolRefilled}}, s
}

func release(s State, at Position, sp *Spawner) ([]Event, State) {
	newState := s
	piece := *s.Held

	if !newState.Board.CanPlace(piece.Shape(), at) {
		newState.Held = nil
		newState.Pool[returnSlot(newState.Pool, piece.Slot)] = s.Held
		return []Event{{Type: EvtPlacementRejected, Slot: piece.Slot, At: at}}, newState
	}

	var events []Event
	delta := 0
	if piece.IsBomb() {
		// The bomb detonates on contact and never occupies its cell.
		cleared := newState.Board.Explode(at)
		delta += len(cleared)
		events = append(events, Event{Type: EvtBombExploded, At: at, Cells: cleared})
	} else {
		cells, _ := newState.Board.Commit(piece.Shape(), at, piece.Color)
		delta += len(cells)
		events = append(events, Event{Type: EvtPiecePlaced, Slot: piece.Slot, At: at, Cells: cells})
	}

	lines := newState.Board.DetectFullLines()
	if lines.Empty() {
		newState.Combo = 0
	} else {
		cleared := newState.Board.Clear(lines)
		delta += len(cleared)
		newState.Combo++
		events = append(events, Event{
			Type:  EvtLinesCleared,
			Rows:  lines.Rows,
			Cols:  lines.Cols,
			Cells: cleared,
			Count: newState.Combo,
		})
	}

	newState.Score += delta
	if delta > 0 {
		events = append(events, Event{Type: EvtScored, Delta: delta, Score: newState.Score})
	}

	newState.Held = nil
	if newState.Pool.Empty() {
		newState.Pool, newState.Counters = sp.Refill(newState.Counters)
		events = append(events, Event{Type: EvtPoolRefilled})
	}

	if !anyPlayable(newState) {
		newState.Phase = PhaseGameOver
		events = append(events, Event{Type: EvtGameOver, Score: newState.Score})
	}
	return events, newState
}

// returnSlot picks where a rejected piece goes: its own slot, or the first
// free one if a restored pool has something there already.
func returnSlot(p Pool, slot int) int {
	if slot >= 0 && slot < PoolSize && p[slot] == nil {
		return slot
	}
	for i, pc := range p {
		if pc == nil {
			return i
		}
	}
	return 0
}

func rotate(s State, slot int) ([]Event, State, error) {
	var current *Piece
	switch {
	case slot == HeldSlot:
		current = s.Held
	case slot >= 0 && slot < PoolSize:
		current = s.Pool[slot]
	}
	if current == nil {
		return nil, s, ErrIllegalSlot
	}
	rotated, ok := current.Rotated()
	if !ok {
		return nil, s, ErrNotRotatable
	}

	newState := s
	if slot == HeldSlot {
		newState.Held = &rotated
	} else {
		newState.Pool[slot] = &rotated
	}
	return []Event{{Type: EvtPieceRotated, Slot: slot, RotationIndex: rotated.RotationIndex}}, newState, nil
}
