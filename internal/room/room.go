package room

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/AdeelRMZ/BlockShock/internal/engine"
	"github.com/AdeelRMZ/BlockShock/internal/snapshot"
)

const storeTimeout = 5 * time.Second

// ErrClosed answers commands still queued when the room stops.
var ErrClosed = errors.New("room closed")

type Msg interface{ isRoomMsg() }

// FromClient runs one command. Reply, when set, receives the rejection
// reason (or nil) once the command has been applied.
type FromClient struct {
	Cmd   engine.Command
	Reply chan error
}

func (FromClient) isRoomMsg() {}

type Join struct {
	ClientID string
	Outbox   chan Snapshot // where this client wants to receive snapshots
}

func (Join) isRoomMsg() {}

// Leave unregisters a client. When the last client leaves a Playing game
// the room suspends and persists a snapshot. A room left with a stored
// snapshot or a finished game stops; the hub restores it on demand.
type Leave struct{ ClientID string }

func (Leave) isRoomMsg() {}

// Preview asks where a pool or held piece would land. It never changes
// state.
type Preview struct {
	Slot  int
	At    engine.Position
	Reply chan *engine.Preview
}

func (Preview) isRoomMsg() {}

// Suspend persists the current game if it is Playing.
type Suspend struct{ Reply chan error }

func (Suspend) isRoomMsg() {}

// Encode returns the current game in the room's snapshot format.
type Encode struct{ Reply chan EncodeResult }

func (Encode) isRoomMsg() {}

type EncodeResult struct {
	Data   []byte
	Format snapshot.Format
	Err    error
}

type Shutdown struct{}

func (Shutdown) isRoomMsg() {}

type GetState struct {
	Reply chan View
}

func (GetState) isRoomMsg() {}

type Snapshot struct {
	Version   int
	State     engine.State
	HighScore int
}

type View struct {
	Code       string
	Version    int
	NumClients int
	State      engine.State
	HighScore  int
}

// Persister is the part of storage.Store a room writes to.
type Persister interface {
	SaveSnapshot(ctx context.Context, code string, data []byte) error
	DeleteSnapshot(ctx context.Context, code string) error
}

// ScoreRecorder raises the persisted high score.
type ScoreRecorder interface {
	RecordScore(ctx context.Context, score int) (int, bool, error)
}

type Config struct {
	Code      string
	Store     Persister     // nil disables persistence
	Format    snapshot.Format
	Scores    ScoreRecorder // nil disables high-score tracking
	HighScore int
	Spawner   *engine.Spawner
	Logger    *zap.Logger
}

type Room struct {
	code      string
	inbox     chan Msg
	session   *engine.Session
	version   int
	highScore int
	clients   map[string]chan Snapshot

	store  Persister
	format snapshot.Format
	scores ScoreRecorder
	logger *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

func New(parent context.Context, cfg Config, initial engine.State) *Room {
	ctx, cancel := context.WithCancel(parent)
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("code", cfg.Code))

	r := &Room{
		code:      cfg.Code,
		inbox:     make(chan Msg, 64),
		highScore: cfg.HighScore,
		clients:   make(map[string]chan Snapshot),
		store:     cfg.Store,
		format:    cfg.Format,
		scores:    cfg.Scores,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
	r.session = engine.RestoreSession(initial,
		engine.WithSpawner(cfg.Spawner),
		engine.WithLogger(logger),
		engine.WithListener(engine.ListenerFuncs{
			Scored:   r.onScored,
			GameOver: r.onGameOver,
		}),
	)

	go r.loop()
	return r
}

func (r *Room) loop() {
	defer close(r.done)
	for {
		select {
		case <-r.ctx.Done():
			r.shutdown()
			return

		case m := <-r.inbox:
			switch msg := m.(type) {
			case Join:
				r.clients[msg.ClientID] = msg.Outbox
				msg.Outbox <- r.snapshot()

			case Leave:
				delete(r.clients, msg.ClientID)
				if len(r.clients) == 0 && r.suspendIdle() {
					r.logger.Debug("room idle, stopping")
					r.stop()
					return
				}

			case FromClient:
				err := r.apply(msg.Cmd)
				if msg.Reply != nil {
					msg.Reply <- err
				}

			case Preview:
				msg.Reply <- r.session.Preview(msg.Slot, msg.At)

			case Suspend:
				err := r.persist()
				if msg.Reply != nil {
					msg.Reply <- err
				}

			case Encode:
				if r.session.Phase() != engine.PhasePlaying {
					msg.Reply <- EncodeResult{Err: engine.ErrNotPlaying}
					break
				}
				data, err := snapshot.Encode(r.session.State(), r.format)
				msg.Reply <- EncodeResult{Data: data, Format: r.format, Err: err}

			case GetState:
				msg.Reply <- r.view()

			case Shutdown:
				r.shutdown()
				return
			}
		}
	}
}

func (r *Room) apply(cmd engine.Command) error {
	events, err := r.session.Apply(cmd)
	if err != nil {
		return err
	}
	if engine.ContainsEvent(events, engine.EvtSessionDiscarded) || engine.ContainsEvent(events, engine.EvtGameOver) {
		r.discardSnapshot()
	}
	r.version++
	r.broadcast(r.snapshot())
	return nil
}

func (r *Room) view() View {
	return View{
		Code:       r.code,
		Version:    r.version,
		NumClients: len(r.clients),
		State:      r.session.State(),
		HighScore:  r.highScore,
	}
}

func (r *Room) snapshot() Snapshot {
	return Snapshot{Version: r.version, State: r.session.State(), HighScore: r.highScore}
}

func (r *Room) onScored(int) {
	score := r.session.State().Score
	if r.scores == nil || score <= r.highScore {
		return
	}
	ctx, cancel := r.storeCtx()
	defer cancel()
	high, _, err := r.scores.RecordScore(ctx, score)
	if err != nil {
		r.logger.Warn("record high score", zap.Error(err))
		high = score
	}
	r.highScore = high
}

func (r *Room) onGameOver(finalScore int) {
	r.logger.Info("room game over", zap.Int("score", finalScore), zap.Int("high_score", r.highScore))
}

// persist saves the session if it is Playing. Only a settled state is
// saved; the loop never observes a half-finished pick→release.
func (r *Room) persist() error {
	if r.store == nil || r.session.Phase() != engine.PhasePlaying {
		return nil
	}
	data, err := snapshot.Encode(r.session.State(), r.format)
	if err != nil {
		r.logger.Error("encode snapshot", zap.Error(err))
		return err
	}
	ctx, cancel := r.storeCtx()
	defer cancel()
	if err := r.store.SaveSnapshot(ctx, r.code, data); err != nil {
		r.logger.Warn("save snapshot", zap.Error(err))
		return err
	}
	r.logger.Debug("snapshot saved", zap.Int("bytes", len(data)))
	return nil
}

func (r *Room) discardSnapshot() {
	if r.store == nil {
		return
	}
	ctx, cancel := r.storeCtx()
	defer cancel()
	if err := r.store.DeleteSnapshot(ctx, r.code); err != nil {
		r.logger.Warn("delete snapshot", zap.Error(err))
	}
}

// storeCtx outlives the room's own context so shutdown can still persist.
func (r *Room) storeCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(r.ctx), storeTimeout)
}

// suspendIdle persists an abandoned game and reports whether nothing is
// lost by stopping: the game is finished, or its snapshot is stored.
func (r *Room) suspendIdle() bool {
	switch r.session.Phase() {
	case engine.PhaseGameOver:
		return true
	case engine.PhasePlaying:
		return r.store != nil && r.persist() == nil
	}
	return false
}

func (r *Room) shutdown() {
	_ = r.persist()
	r.stop()
}

func (r *Room) stop() {
	for id, ch := range r.clients {
		close(ch) // Tell client no more snapshots
		delete(r.clients, id)
	}
	r.drain()
	r.cancel()
}

// drain answers every message still queued so no sender waits on a loop
// that will never read it.
func (r *Room) drain() {
	for {
		select {
		case m := <-r.inbox:
			r.refuse(m)
		default:
			return
		}
	}
}

func (r *Room) refuse(m Msg) {
	switch msg := m.(type) {
	case Join:
		close(msg.Outbox)
	case FromClient:
		if msg.Reply != nil {
			offer(msg.Reply, ErrClosed)
		}
	case Preview:
		offer(msg.Reply, (*engine.Preview)(nil))
	case Suspend:
		if msg.Reply != nil {
			offer(msg.Reply, ErrClosed)
		}
	case Encode:
		offer(msg.Reply, EncodeResult{Err: ErrClosed})
	case GetState:
		offer(msg.Reply, r.view())
	}
}

// offer replies without blocking; a sender that stopped waiting is skipped.
func offer[T any](ch chan T, v T) {
	select {
	case ch <- v:
	default:
	}
}

func (r *Room) broadcast(snap Snapshot) {
	for id, ch := range r.clients {
		select {
		case ch <- snap:
		default:
			// Client is slow/full - drop them.
			close(ch)
			delete(r.clients, id)
		}
	}
}

// Inbox lets the transport and tests send messages to the room.
func (r *Room) Inbox() chan<- Msg { return r.inbox }

func (r *Room) Code() string { return r.code }

// Done is closed once the loop has exited and the final snapshot (if any)
// has been written.
func (r *Room) Done() <-chan struct{} { return r.done }

// Send delivers m unless the room has already stopped.
func (r *Room) Send(m Msg) bool {
	select {
	case <-r.done:
		return false
	default:
	}
	select {
	case r.inbox <- m:
		return true
	case <-r.done:
		return false
	}
}
