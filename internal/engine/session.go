package engine

import (
	"errors"

	"go.uber.org/zap"
)

// Listener receives fire-and-forget notifications from a Session.
type Listener interface {
	OnScored(delta int)
	OnGameOver(finalScore int)
	OnRevive(count int)
}

// ListenerFuncs adapts plain functions to Listener; nil fields are skipped.
type ListenerFuncs struct {
	Scored   func(delta int)
	GameOver func(finalScore int)
	Revive   func(count int)
}

func (f ListenerFuncs) OnScored(delta int) {
	if f.Scored != nil {
		f.Scored(delta)
	}
}

func (f ListenerFuncs) OnGameOver(finalScore int) {
	if f.GameOver != nil {
		f.GameOver(finalScore)
	}
}

func (f ListenerFuncs) OnRevive(count int) {
	if f.Revive != nil {
		f.Revive(count)
	}
}

// Session is the mutable game a host drives. It is not safe for concurrent
// use: a host with several goroutines must hold one lock across a whole
// pick→release sequence (see package room).
type Session struct {
	state    State
	spawner  *Spawner
	listener Listener
	logger   *zap.Logger
}

type SessionOption func(*Session)

func WithSpawner(sp *Spawner) SessionOption {
	return func(s *Session) { s.spawner = sp }
}

func WithListener(l Listener) SessionOption {
	return func(s *Session) { s.listener = l }
}

func WithLogger(l *zap.Logger) SessionOption {
	return func(s *Session) { s.logger = l }
}

// NewSession returns a session in PhaseNotStarted.
func NewSession(opts ...SessionOption) *Session {
	return RestoreSession(NewEmptyState(), opts...)
}

// RestoreSession resumes from a previously persisted state.
func RestoreSession(st State, opts ...SessionOption) *Session {
	s := &Session{state: st}
	for _, opt := range opts {
		opt(s)
	}
	if s.spawner == nil {
		s.spawner = NewSpawner(nil)
	}
	if s.listener == nil {
		s.listener = ListenerFuncs{}
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

// State returns a copy of the current state.
func (s *Session) State() State { return s.state }

func (s *Session) Phase() Phase { return s.state.Phase }

// Spawner exposes the session's spawner, e.g. for slot positions.
func (s *Session) Spawner() *Spawner { return s.spawner }

// Apply runs cmd. Rejected commands leave the state untouched and return
// the reason; callers at the host boundary log and drop it.
func (s *Session) Apply(cmd Command) ([]Event, error) {
	events, next, err := Apply(s.state, cmd, s.spawner)
	if err != nil {
		s.logger.Debug("command rejected",
			zap.String("command", string(cmd.Type)),
			zap.Int("slot", cmd.Slot),
			zap.Error(err),
		)
		return nil, err
	}
	s.state = next
	s.dispatch(events)
	return events, nil
}

func (s *Session) dispatch(events []Event) {
	for _, e := range events {
		switch e.Type {
		case EvtScored:
			s.listener.OnScored(e.Delta)
		case EvtGameOver:
			s.logger.Info("game over", zap.Int("score", e.Score), zap.Int("revives", s.state.ReviveCount))
			s.listener.OnGameOver(e.Score)
		case EvtRevived:
			s.listener.OnRevive(e.Count)
		}
	}
}

func (s *Session) Start() {
	_, _ = s.Apply(Command{Type: CmdStart})
}

func (s *Session) Restart() {
	_, _ = s.Apply(Command{Type: CmdRestart})
}

// Home abandons the session without touching the score.
func (s *Session) Home() {
	_, _ = s.Apply(Command{Type: CmdHome})
}

// Pick moves the piece in slot into the hand.
func (s *Session) Pick(slot int) (Piece, bool) {
	if _, err := s.Apply(Command{Type: CmdPick, Slot: slot}); err != nil {
		return Piece{}, false
	}
	return *s.state.Held, true
}

// ReleaseResult summarises one release.
type ReleaseResult struct {
	Accepted         bool
	ClearedCells     int
	BombClearedCells int
	Score            int
	GameOver         bool
}

// Release drops the held piece at `at`. An illegal anchor returns the piece
// to its slot and reports Accepted=false.
func (s *Session) Release(at Position) ReleaseResult {
	events, err := s.Apply(Command{Type: CmdRelease, At: at})
	res := ReleaseResult{Score: s.state.Score}
	if err != nil || ContainsEvent(events, EvtPlacementRejected) {
		return res
	}
	res.Accepted = true
	if e, ok := FindEvent(events, EvtLinesCleared); ok {
		res.ClearedCells = len(e.Cells)
	}
	if e, ok := FindEvent(events, EvtBombExploded); ok {
		res.BombClearedCells = len(e.Cells)
	}
	res.GameOver = ContainsEvent(events, EvtGameOver)
	return res
}

// Rotate advances an exception piece's rotation; slot HeldSlot targets the
// held piece. It returns the new rotation index.
func (s *Session) Rotate(slot int) (int, bool) {
	events, err := s.Apply(Command{Type: CmdRotate, Slot: slot})
	if err != nil {
		return 0, false
	}
	return events[0].RotationIndex, true
}

// Revive continues a finished game. At the revive cap it does nothing.
func (s *Session) Revive() bool {
	_, err := s.Apply(Command{Type: CmdRevive})
	if errors.Is(err, ErrReviveLimit) {
		s.logger.Debug("revive ignored at cap", zap.Int("revives", s.state.ReviveCount))
	}
	return err == nil
}

// Preview reports where the piece in slot (or the held piece for HeldSlot)
// would land at `at`, or nil when it cannot go there.
func (s *Session) Preview(slot int, at Position) *Preview {
	var p *Piece
	switch {
	case slot == HeldSlot:
		p = s.state.Held
	case slot >= 0 && slot < PoolSize:
		p = s.state.Pool[slot]
	}
	if p == nil {
		return nil
	}
	return PreviewPlacement(s.state.Board, *p, at)
}
