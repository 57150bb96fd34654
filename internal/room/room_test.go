package room

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/AdeelRMZ/BlockShock/internal/engine"
	"github.com/AdeelRMZ/BlockShock/internal/random"
	"github.com/AdeelRMZ/BlockShock/internal/snapshot"
)

// helper: receive one snapshot with a timeout so tests never hang
func recvSnapshot(t *testing.T, ch <-chan Snapshot, within time.Duration) Snapshot {
	t.Helper()
	select {
	case snap, ok := <-ch:
		if !ok {
			t.Fatalf("client outbox closed unexpectedly")
		}
		return snap
	case <-time.After(within):
		t.Fatalf("timed out waiting for snapshot")
		return Snapshot{} // unreachable
	}
}

func recvNoSnapshot(t *testing.T, ch <-chan Snapshot, within time.Duration) {
	t.Helper()
	select {
	case s, ok := <-ch:
		if !ok {
			return
		}
		t.Fatalf("expected no snapshot within %v, but got: %+v", within, s)
	case <-time.After(within):
	}
}

func recvView(t *testing.T, r *Room) View {
	t.Helper()
	reply := make(chan View, 1)
	r.Inbox() <- GetState{Reply: reply}
	select {
	case v := <-reply:
		return v
	case <-time.After(200 * time.Millisecond):
		t.Fatalf("timed out waiting for view")
		return View{} // unreachable
	}
}

func waitDone(t *testing.T, r *Room) {
	t.Helper()
	select {
	case <-r.Done():
	case <-time.After(500 * time.Millisecond):
		t.Fatalf("room did not stop")
	}
}

type memStore struct {
	mu    sync.Mutex
	saved map[string][]byte
}

func newMemStore() *memStore { return &memStore{saved: map[string][]byte{}} }

func (m *memStore) SaveSnapshot(_ context.Context, code string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved[code] = data
	return nil
}

func (m *memStore) DeleteSnapshot(_ context.Context, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.saved, code)
	return nil
}

func (m *memStore) get(code string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.saved[code]
	return d, ok
}

type fakeScores struct {
	mu   sync.Mutex
	high int
}

func (f *fakeScores) RecordScore(_ context.Context, score int) (int, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if score > f.high {
		f.high = score
		return score, true, nil
	}
	return f.high, false, nil
}

func monomino(slot int) *engine.Piece {
	return &engine.Piece{Kind: engine.KindNormal, BaseIndex: 10, Color: engine.ColorGreen, Slot: slot, DisplayScale: engine.NormalScale}
}

// playing returns a Playing state holding nothing with three monominoes.
func playing() engine.State {
	s := engine.NewEmptyState()
	s.Phase = engine.PhasePlaying
	s.Counters = engine.Counters{SpawnThreshold: 6, BombThreshold: 9}
	for i := range engine.PoolSize {
		s.Pool[i] = monomino(i)
	}
	return s
}

// stuck returns a state one monomino away from game over: a checkerboard
// with an O piece left in the pool.
func stuck() engine.State {
	s := playing()
	for r := range engine.Rows {
		for c := range engine.Cols {
			if (r+c)%2 == 0 {
				s.Board[r][c] = engine.Cell{Filled: true, Color: engine.ColorRed}
			}
		}
	}
	s.Held = monomino(0)
	s.Pool[0] = nil
	s.Pool[1] = &engine.Piece{Kind: engine.KindNormal, BaseIndex: 1, Color: engine.ColorRed, Slot: 1, DisplayScale: engine.NormalScale}
	s.Pool[2] = nil
	return s
}

func newRoom(t *testing.T, cfg Config, init engine.State) *Room {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	if cfg.Code == "" {
		cfg.Code = "ROOM01"
	}
	if cfg.Spawner == nil {
		cfg.Spawner = engine.NewSpawner(random.New(7))
	}
	return New(ctx, cfg, init)
}

func TestRoom_Start_BroadcastsSnapshotAndVersionIncrements(t *testing.T) {
	r := newRoom(t, Config{}, engine.NewEmptyState())

	out := make(chan Snapshot, 2)
	r.Inbox() <- Join{ClientID: "c1", Outbox: out}

	first := recvSnapshot(t, out, 100*time.Millisecond)
	if first.Version != 0 || first.State.Phase != engine.PhaseNotStarted {
		t.Fatalf("after join: want version=0 not started, got %d %s", first.Version, first.State.Phase)
	}

	r.Inbox() <- FromClient{Cmd: engine.Command{Type: engine.CmdStart}}

	next := recvSnapshot(t, out, 100*time.Millisecond)
	if next.Version != 1 {
		t.Fatalf("after start: want version=1, got %d", next.Version)
	}
	if next.State.Phase != engine.PhasePlaying || next.State.Pool.Count() != engine.PoolSize {
		t.Fatalf("after start: phase=%s pool=%d", next.State.Phase, next.State.Pool.Count())
	}

	r.Inbox() <- Shutdown{}
}

func TestRoom_RejectedCommandRepliesWithoutBroadcast(t *testing.T) {
	r := newRoom(t, Config{}, playing())

	out := make(chan Snapshot, 2)
	r.Inbox() <- Join{ClientID: "c1", Outbox: out}
	_ = recvSnapshot(t, out, 100*time.Millisecond)

	reply := make(chan error, 1)
	r.Inbox() <- FromClient{Cmd: engine.Command{Type: engine.CmdRelease}, Reply: reply}
	if err := <-reply; !errors.Is(err, engine.ErrNothingHeld) {
		t.Fatalf("want ErrNothingHeld, got %v", err)
	}
	recvNoSnapshot(t, out, 100*time.Millisecond)

	if v := recvView(t, r); v.Version != 0 {
		t.Fatalf("version moved on a rejected command: %d", v.Version)
	}
}

func TestRoom_DropSlowClient(t *testing.T) {
	r := newRoom(t, Config{}, playing())

	clientOut := make(chan Snapshot, 1)
	r.Inbox() <- Join{ClientID: "c1", Outbox: clientOut}

	r.Inbox() <- FromClient{Cmd: engine.Command{Type: engine.CmdPick, Slot: 0}}

	view := recvView(t, r)
	if view.NumClients != 0 {
		t.Fatalf("expected slow client to be dropped; NumClients=%d", view.NumClients)
	}
}

func TestRoom_GameOverDeletesSnapshot(t *testing.T) {
	store := newMemStore()
	store.saved["ROOM01"] = []byte("old")
	r := newRoom(t, Config{Store: store}, stuck())

	out := make(chan Snapshot, 4)
	r.Inbox() <- Join{ClientID: "c1", Outbox: out}
	_ = recvSnapshot(t, out, 100*time.Millisecond)

	r.Inbox() <- FromClient{Cmd: engine.Command{Type: engine.CmdRelease, At: engine.Position{Row: 0, Col: 1}}}
	snap := recvSnapshot(t, out, 100*time.Millisecond)
	if snap.State.Phase != engine.PhaseGameOver {
		t.Fatalf("want game over, got %s", snap.State.Phase)
	}
	if _, ok := store.get("ROOM01"); ok {
		t.Fatalf("snapshot should be deleted on game over")
	}

	// Leaving a finished game stops the room without writing a new snapshot.
	r.Inbox() <- Leave{ClientID: "c1"}
	waitDone(t, r)
	if _, ok := store.get("ROOM01"); ok {
		t.Fatalf("finished game was persisted on leave")
	}
}

func TestRoom_LastLeaveSuspendsPlayingGame(t *testing.T) {
	store := newMemStore()
	init := playing()
	init.Score = 21
	r := newRoom(t, Config{Store: store, Format: snapshot.FormatMsgpack}, init)

	out := make(chan Snapshot, 2)
	r.Inbox() <- Join{ClientID: "c1", Outbox: out}
	_ = recvSnapshot(t, out, 100*time.Millisecond)
	r.Inbox() <- Leave{ClientID: "c1"}
	waitDone(t, r)

	data, ok := store.get("ROOM01")
	if !ok {
		t.Fatalf("expected a snapshot after the last client left")
	}
	restored, err := snapshot.Decode(data, snapshot.FormatMsgpack)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if restored.Score != 21 || restored.Pool.Count() != engine.PoolSize {
		t.Fatalf("restored: score=%d pool=%d", restored.Score, restored.Pool.Count())
	}
}

func TestRoom_ShutdownPersistsAndStops(t *testing.T) {
	store := newMemStore()
	r := newRoom(t, Config{Store: store}, playing())

	out := make(chan Snapshot, 2)
	r.Inbox() <- Join{ClientID: "c1", Outbox: out}
	_ = recvSnapshot(t, out, 100*time.Millisecond)

	r.Inbox() <- Shutdown{}
	waitDone(t, r)
	if _, ok := store.get("ROOM01"); !ok {
		t.Fatalf("expected shutdown to persist the playing game")
	}
	recvNoSnapshot(t, out, 50*time.Millisecond)
	if r.Send(GetState{Reply: make(chan View, 1)}) {
		t.Fatalf("Send should report a stopped room")
	}
}

func TestRoom_HomeDiscardsSnapshot(t *testing.T) {
	store := newMemStore()
	store.saved["ROOM01"] = []byte("old")
	r := newRoom(t, Config{Store: store}, playing())

	reply := make(chan error, 1)
	r.Inbox() <- FromClient{Cmd: engine.Command{Type: engine.CmdHome}, Reply: reply}
	if err := <-reply; err != nil {
		t.Fatalf("home: %v", err)
	}
	if _, ok := store.get("ROOM01"); ok {
		t.Fatalf("home should delete the snapshot")
	}
	if v := recvView(t, r); v.State.Phase != engine.PhaseNotStarted {
		t.Fatalf("home: phase=%s", v.State.Phase)
	}
}

func TestRoom_ScoringRaisesHighScore(t *testing.T) {
	scores := &fakeScores{high: 5}
	init := playing()
	init.Score = 4
	for c := 1; c < engine.Cols; c++ {
		init.Board[7][c] = engine.Cell{Filled: true, Color: engine.ColorRed}
	}
	r := newRoom(t, Config{Scores: scores, HighScore: 5}, init)

	r.Inbox() <- FromClient{Cmd: engine.Command{Type: engine.CmdPick, Slot: 0}}
	r.Inbox() <- FromClient{Cmd: engine.Command{Type: engine.CmdRelease, At: engine.Position{Row: 7, Col: 0}}}

	v := recvView(t, r)
	// 4 + 1 placed + 8 cleared
	if v.State.Score != 13 || v.HighScore != 13 {
		t.Fatalf("score=%d high=%d, want 13/13", v.State.Score, v.HighScore)
	}
	if scores.high != 13 {
		t.Fatalf("recorder high=%d", scores.high)
	}
}

func TestRoom_PreviewAndEncode(t *testing.T) {
	r := newRoom(t, Config{}, playing())

	reply := make(chan *engine.Preview, 1)
	r.Inbox() <- Preview{Slot: 2, At: engine.Position{Row: 3, Col: 3}, Reply: reply}
	pv := <-reply
	if pv == nil || len(pv.Cells) != 1 || pv.Cells[0] != (engine.Position{Row: 3, Col: 3}) {
		t.Fatalf("preview: %+v", pv)
	}

	enc := make(chan EncodeResult, 1)
	r.Inbox() <- Encode{Reply: enc}
	res := <-enc
	if res.Err != nil {
		t.Fatalf("encode: %v", res.Err)
	}
	if _, err := snapshot.Decode(res.Data, snapshot.FormatJSON); err != nil {
		t.Fatalf("encoded snapshot does not decode: %v", err)
	}

	r.Inbox() <- FromClient{Cmd: engine.Command{Type: engine.CmdHome}}
	r.Inbox() <- Encode{Reply: enc}
	if res := <-enc; !errors.Is(res.Err, engine.ErrNotPlaying) {
		t.Fatalf("encode after home: want ErrNotPlaying, got %v", res.Err)
	}
}

func TestRoom_LastLeaveKeepsUnsavedRoom(t *testing.T) {
	cases := []struct {
		name  string
		store Persister
		init  engine.State
	}{
		{name: "not started", store: newMemStore(), init: engine.NewEmptyState()},
		{name: "playing without a store", init: playing()},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newRoom(t, Config{Store: tc.store}, tc.init)

			out := make(chan Snapshot, 2)
			r.Inbox() <- Join{ClientID: "c1", Outbox: out}
			_ = recvSnapshot(t, out, 100*time.Millisecond)
			r.Inbox() <- Leave{ClientID: "c1"}

			if v := recvView(t, r); v.NumClients != 0 || v.State.Phase != tc.init.Phase {
				t.Fatalf("room should stay up: clients=%d phase=%s", v.NumClients, v.State.Phase)
			}
		})
	}
}

func TestRoom_QueuedBehindShutdownGetsAnswered(t *testing.T) {
	r := newRoom(t, Config{}, playing())

	// Park the loop on an unread reply so everything below is queued
	// behind Shutdown before the loop sees it.
	parked := make(chan View)
	r.inbox <- GetState{Reply: parked}

	errs := make(chan error, 1)
	pv := make(chan *engine.Preview, 1)
	enc := make(chan EncodeResult, 1)
	out := make(chan Snapshot, 1)
	r.inbox <- Shutdown{}
	r.inbox <- FromClient{Cmd: engine.Command{Type: engine.CmdStart}, Reply: errs}
	r.inbox <- Preview{Slot: 0, Reply: pv}
	r.inbox <- Encode{Reply: enc}
	r.inbox <- Join{ClientID: "late", Outbox: out}
	<-parked

	waitDone(t, r)

	select {
	case err := <-errs:
		if !errors.Is(err, ErrClosed) {
			t.Fatalf("want ErrClosed, got %v", err)
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatalf("queued command never answered")
	}
	if p := <-pv; p != nil {
		t.Fatalf("preview after shutdown: %+v", p)
	}
	if res := <-enc; !errors.Is(res.Err, ErrClosed) {
		t.Fatalf("encode after shutdown: %v", res.Err)
	}
	if _, ok := <-out; ok {
		t.Fatalf("late join should see a closed outbox")
	}
}
