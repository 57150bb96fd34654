package hub

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/AdeelRMZ/BlockShock/internal/engine"
	"github.com/AdeelRMZ/BlockShock/internal/room"
	"github.com/AdeelRMZ/BlockShock/internal/snapshot"
	"github.com/AdeelRMZ/BlockShock/internal/storage"
)

const loadTimeout = 5 * time.Second

type HubMsg interface{ isHubMsg() }

// CreateRoom registers a fresh NotStarted room under Code.
type CreateRoom struct {
	Code  string
	Reply chan *room.Room
}

// GetRoom returns the live room for Code, restoring it from a stored
// snapshot when it is not in memory. Reply receives nil when neither exists.
type GetRoom struct {
	Code  string
	Reply chan *room.Room
}

// EnsureRoom is GetRoom that creates a fresh room instead of replying nil.
type EnsureRoom struct {
	Code  string
	Reply chan *room.Room
}

type RemoveRoom struct {
	Code string
}

// ShutdownHub stops every room, waiting for their final snapshots.
type ShutdownHub struct {
	Done chan struct{}
}

// roomStopped reports a room whose loop exited on its own.
type roomStopped struct {
	code string
	room *room.Room
}

func (CreateRoom) isHubMsg()  {}
func (GetRoom) isHubMsg()     {}
func (EnsureRoom) isHubMsg()  {}
func (RemoveRoom) isHubMsg()  {}
func (ShutdownHub) isHubMsg() {}
func (roomStopped) isHubMsg() {}

// Loader is the part of storage.Store the hub reads snapshots through.
type Loader interface {
	room.Persister
	LoadSnapshot(ctx context.Context, code string) ([]byte, error)
}

// HighScores supplies the persisted high score a new room starts from.
type HighScores interface {
	room.ScoreRecorder
	HighScore(ctx context.Context) (int, error)
}

type Options struct {
	Store      Loader     // nil keeps everything in memory
	Format     snapshot.Format
	Scores     HighScores // nil disables high-score tracking
	NewSpawner func(code string) *engine.Spawner
	Logger     *zap.Logger
}

type Hub struct {
	inbox  chan HubMsg
	rooms  map[string]*room.Room
	opts   Options
	ctx    context.Context
	cancel context.CancelFunc
}

func NewHub(parent context.Context, opts Options) *Hub {
	ctx, cancel := context.WithCancel(parent)
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.NewSpawner == nil {
		opts.NewSpawner = func(string) *engine.Spawner { return engine.NewSpawner(nil) }
	}
	h := &Hub{
		inbox:  make(chan HubMsg, 64),
		rooms:  make(map[string]*room.Room),
		opts:   opts,
		ctx:    ctx,
		cancel: cancel,
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case CreateRoom:
				if rm := h.live(msg.Code); rm != nil {
					msg.Reply <- rm
					break
				}
				msg.Reply <- h.start(msg.Code, engine.NewEmptyState())

			case GetRoom:
				msg.Reply <- h.lookup(msg.Code) // May be nil

			case EnsureRoom:
				rm := h.lookup(msg.Code)
				if rm == nil {
					rm = h.start(msg.Code, engine.NewEmptyState())
				}
				msg.Reply <- rm

			case RemoveRoom:
				if rm := h.rooms[msg.Code]; rm != nil {
					rm.Send(room.Shutdown{})
					delete(h.rooms, msg.Code)
				}

			case roomStopped:
				if h.rooms[msg.code] == msg.room {
					delete(h.rooms, msg.code)
				}

			case ShutdownHub:
				h.shutdown()
				close(msg.Done)
				return
			}
		}
	}
}

// live returns the running room for code. A room that stopped but has not
// been reported yet is forgotten here.
func (h *Hub) live(code string) *room.Room {
	rm := h.rooms[code]
	if rm == nil {
		return nil
	}
	select {
	case <-rm.Done():
		delete(h.rooms, code)
		return nil
	default:
		return rm
	}
}

// lookup returns the live room, or one restored from storage.
func (h *Hub) lookup(code string) *room.Room {
	if rm := h.live(code); rm != nil {
		return rm
	}
	if h.opts.Store == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(h.ctx, loadTimeout)
	defer cancel()
	logger := h.opts.Logger.With(zap.String("code", code))

	data, err := h.opts.Store.LoadSnapshot(ctx, code)
	if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrInvalidKey) {
		return nil
	}
	if err != nil {
		logger.Warn("load snapshot", zap.Error(err))
		return nil
	}

	st, err := snapshot.Decode(data, h.opts.Format)
	if err != nil {
		// A corrupt save counts as no save: drop it and start fresh.
		logger.Warn("discarding corrupt snapshot", zap.Error(err))
		if err := h.opts.Store.DeleteSnapshot(ctx, code); err != nil {
			logger.Warn("delete corrupt snapshot", zap.Error(err))
		}
		return h.start(code, engine.NewEmptyState())
	}
	logger.Info("room restored", zap.Int("score", st.Score))
	return h.start(code, st)
}

func (h *Hub) start(code string, st engine.State) *room.Room {
	cfg := room.Config{
		Code:    code,
		Format:  h.opts.Format,
		Spawner: h.opts.NewSpawner(code),
		Logger:  h.opts.Logger,
	}
	if h.opts.Store != nil {
		cfg.Store = h.opts.Store
	}
	if h.opts.Scores != nil {
		cfg.Scores = h.opts.Scores
		ctx, cancel := context.WithTimeout(h.ctx, loadTimeout)
		high, err := h.opts.Scores.HighScore(ctx)
		cancel()
		if err != nil {
			h.opts.Logger.Warn("load high score", zap.Error(err))
		}
		cfg.HighScore = high
	}
	rm := room.New(h.ctx, cfg, st)
	h.rooms[code] = rm
	go h.watch(code, rm)
	return rm
}

func (h *Hub) watch(code string, rm *room.Room) {
	select {
	case <-rm.Done():
	case <-h.ctx.Done():
		return
	}
	select {
	case h.inbox <- roomStopped{code: code, room: rm}:
	case <-h.ctx.Done():
	}
}

func (h *Hub) shutdown() {
	for _, rm := range h.rooms {
		rm.Send(room.Shutdown{})
	}
	for _, rm := range h.rooms {
		<-rm.Done()
	}
	clear(h.rooms)
	h.cancel()
}
